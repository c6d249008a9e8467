// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package mapper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/repo-map/internal/flightplan"
	"github.com/petar-djukic/repo-map/internal/render"
	"github.com/petar-djukic/repo-map/pkg/types"
)

var authRepo = map[string]string{
	"auth.py": `def authenticate(user):
    return check_password(user)


def check_password(user):
    return True
`,
	"main.py": `from auth import authenticate


def main():
    authenticate("bob")
`,
	"util.py": `def helper():
    return 1
`,
}

var authFiles = []string{"auth.py", "main.py", "util.py"}

func setupTestRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func newPlan(t *testing.T, spec flightplan.Spec) *flightplan.FlightPlan {
	t.Helper()
	plan, err := flightplan.New(spec)
	require.NoError(t, err)
	return plan
}

func TestBuildRankedMap(t *testing.T) {
	dir := setupTestRepo(t, authRepo)

	var calls int
	m, err := BuildRankedMap(context.Background(), authFiles, 1024,
		WithRoot(dir),
		WithWorkers(2),
		WithProgress(func(done, total int, file string) { calls++ }),
	)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Contains(t, m.Content, "auth.py:\n")
	assert.Contains(t, m.Content, "│def authenticate(user):")
	assert.Equal(t, authFiles, m.Files)
	assert.Equal(t, types.EstimateTokens(m.Content), m.TotalTokens)
	assert.Equal(t, len(authFiles), calls)
}

func TestBuildRankedMap_NothingToMap(t *testing.T) {
	dir := setupTestRepo(t, authRepo)

	m, err := BuildRankedMap(context.Background(), authFiles, 0, WithRoot(dir))
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = BuildRankedMap(context.Background(), nil, 1024, WithRoot(dir))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestBuildRankedMap_InvalidWorkers(t *testing.T) {
	_, err := BuildRankedMap(context.Background(), authFiles, 1024, WithWorkers(-1))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBuildMultiResolutionMap(t *testing.T) {
	plan := newPlan(t, flightplan.Spec{
		Verbosity: []flightplan.VerbosityRule{
			flightplan.AtLevel("*.py", types.LevelStructure),
			flightplan.AtLevel("util.py", types.LevelExistence),
		},
	})
	files := []render.File{
		{Path: "auth.py", Content: authRepo["auth.py"]},
		{Path: "util.py", Content: authRepo["util.py"]},
	}

	m, err := BuildMultiResolutionMap(context.Background(), files, plan, false, false)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Contains(t, m.Content, "## auth.py\n```\ndef authenticate(user):\ndef check_password(user):\n```\n")
	assert.Contains(t, m.Content, "## util.py\n# [path only - 5 tokens]\n")
	assert.Contains(t, m.Content, "/20000 tokens")
	assert.Equal(t, []string{"auth.py", "util.py"}, m.Files)
}

func TestBuildMultiResolutionMap_Strict(t *testing.T) {
	plan := newPlan(t, flightplan.Spec{Budget: 5})
	files := []render.File{{Path: "auth.py", Content: authRepo["auth.py"]}}

	m, err := BuildMultiResolutionMap(context.Background(), files, plan, false, true)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrBudgetExceeded)

	m, err = BuildMultiResolutionMap(context.Background(), files, plan, false, false)
	require.NoError(t, err)
	assert.Contains(t, m.Content, "OVER BUDGET")
}

func TestBuildMultiResolutionMap_NoFiles(t *testing.T) {
	m, err := BuildMultiResolutionMap(context.Background(), nil, nil, false, false)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "\n# Total: 0/20000 tokens", m.Content)
	assert.Zero(t, m.TotalTokens)
	assert.Empty(t, m.Files)

	m, err = BuildMultiResolutionMap(context.Background(), nil, newPlan(t, flightplan.Spec{Budget: 300}), false, true)
	require.NoError(t, err)
	assert.Equal(t, "\n# Total: 0/300 tokens", m.Content)
}

func TestBuild_SelectsRankedWithoutPlan(t *testing.T) {
	dir := setupTestRepo(t, authRepo)

	res, err := Build(context.Background(), Request{
		Root:   dir,
		Files:  append([]string{"missing.py"}, authFiles...),
		Budget: 1024,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Map)

	assert.Nil(t, res.Manifest)
	assert.Contains(t, res.Map.Content, "auth.py:\n")
	assert.NotContains(t, res.Map.Content, "## auth.py")
	assert.Equal(t, []string{filepath.Join(dir, "missing.py")}, res.Unreadable)
	assert.Equal(t, len(authFiles), res.Stats.FilesProcessed)
}

func TestBuild_SelectsMultiResolutionWithPlan(t *testing.T) {
	dir := setupTestRepo(t, authRepo)

	res, err := Build(context.Background(), Request{
		Root:      dir,
		Files:     append(append([]string{}, authFiles...), "missing.py"),
		Plan:      newPlan(t, flightplan.Spec{Budget: 1000}),
		ShowCosts: true,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Map)
	require.NotNil(t, res.Manifest)

	assert.Contains(t, res.Map.Content, "## auth.py\n# Costs: L0=0, L1=5,")
	assert.Contains(t, res.Map.Content, "/1000 tokens")
	assert.Equal(t, authFiles, res.Manifest.Files())
	assert.Equal(t, authFiles, res.Map.FocusAreas)
	assert.Equal(t, []string{filepath.Join(dir, "missing.py")}, res.Unreadable)
}

func TestBuild_RankedOverridesPlanAndReusesFocus(t *testing.T) {
	dir := setupTestRepo(t, authRepo)
	plan := newPlan(t, flightplan.Spec{
		Focus: &flightplan.Focus{Paths: []flightplan.PathBoost{{Pattern: "util.py", Weight: 50}}},
	})

	res, err := Build(context.Background(), Request{
		Root:   dir,
		Files:  authFiles,
		Budget: 1024,
		Plan:   plan,
		Ranked: true,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Map)

	assert.Nil(t, res.Manifest)
	assert.Contains(t, res.Map.Content, "util.py:\n")
}

func TestBuild_StrictOverBudget(t *testing.T) {
	dir := setupTestRepo(t, authRepo)

	_, err := Build(context.Background(), Request{
		Root:   dir,
		Files:  authFiles,
		Plan:   newPlan(t, flightplan.Spec{Budget: 10}),
		Strict: true,
	})
	assert.ErrorIs(t, err, ErrBudgetExceeded)

	var exceeded *render.BudgetExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 10, exceeded.Budget)
}

func TestBuild_RejectsInvalidRequest(t *testing.T) {
	_, err := Build(context.Background(), Request{Workers: -2, Budget: 10})
	assert.ErrorIs(t, err, ErrInvalidRequest)

}

func TestBuild_NonPositiveBudgetIsNoMap(t *testing.T) {
	dir := setupTestRepo(t, authRepo)

	res, err := Build(context.Background(), Request{Root: dir, Files: authFiles, Budget: -1})
	require.NoError(t, err)
	assert.Nil(t, res.Map)
}

func TestBuild_CancelledContext(t *testing.T) {
	dir := setupTestRepo(t, authRepo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, Request{
		Root:  dir,
		Files: authFiles,
		Plan:  newPlan(t, flightplan.Spec{}),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrBuildFailed)
}
