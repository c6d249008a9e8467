// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petar-djukic/repo-map/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTree_GroupsByFile(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"a.py":      "def f():\n    return 1\n",
		"README.md": "# Readme\n",
	})
	e := newTestEngine(t, dir)

	out := e.toTree(context.Background(), []types.RankedEntry{
		{Kind: types.TagEntry, File: "a.py", AbsFile: filepath.Join(dir, "a.py"), Ident: "f", Lines: []int{0}},
		types.NewFileOnly("README.md"),
	})

	assert.Equal(t, "\nREADME.md\n\na.py:\n│def f():\n⋮\n\n", out)
}

func TestToTree_MergesLinesOfOneFile(t *testing.T) {
	dir := setupTestRepo(t, map[string]string{
		"a.py": "def f():\n    return 1\n\ndef g():\n    return 2\n",
	})
	e := newTestEngine(t, dir)
	abs := filepath.Join(dir, "a.py")

	out := e.toTree(context.Background(), []types.RankedEntry{
		{Kind: types.TagEntry, File: "a.py", AbsFile: abs, Ident: "g", Lines: []int{3}},
		{Kind: types.TagEntry, File: "a.py", AbsFile: abs, Ident: "f", Lines: []int{0}},
	})

	assert.Equal(t, 1, strings.Count(out, "a.py:"))
	assert.Contains(t, out, "│def f():")
	assert.Contains(t, out, "│def g():")
}

func TestToTree_Empty(t *testing.T) {
	e := newTestEngine(t, t.TempDir())
	assert.Empty(t, e.toTree(context.Background(), nil))
}

func TestTruncateLines(t *testing.T) {
	long := strings.Repeat("é", 150)
	out := truncateLines("short\n" + long)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "short", lines[0])
	assert.Equal(t, strings.Repeat("é", maxLineLength), lines[1])
	assert.Equal(t, "", lines[2])
}

func manyFunctionsRepo(t *testing.T, files, funcs int) (string, []types.RankedEntry) {
	t.Helper()
	contents := make(map[string]string)
	var entries []types.RankedEntry
	for f := 0; f < files; f++ {
		name := fmt.Sprintf("mod%02d.py", f)
		var b strings.Builder
		for i := 0; i < funcs; i++ {
			fmt.Fprintf(&b, "def function_%02d_%02d(argument):\n    return argument\n\n", f, i)
		}
		contents[name] = b.String()
	}
	dir := setupTestRepo(t, contents)
	for f := 0; f < files; f++ {
		name := fmt.Sprintf("mod%02d.py", f)
		for i := 0; i < funcs; i++ {
			entries = append(entries, types.RankedEntry{
				Kind:    types.TagEntry,
				File:    name,
				AbsFile: filepath.Join(dir, name),
				Ident:   fmt.Sprintf("function_%02d_%02d", f, i),
				Lines:   []int{i * 3},
			})
		}
	}
	return dir, entries
}

func TestFitBudget_StaysNearBudget(t *testing.T) {
	dir, entries := manyFunctionsRepo(t, 10, 20)
	e := newTestEngine(t, dir)

	budget := 500
	out, n, err := e.fitBudget(context.Background(), entries, budget)
	require.NoError(t, err)

	require.NotEmpty(t, out)
	assert.Greater(t, n, 0)
	assert.Less(t, n, len(entries))
	assert.LessOrEqual(t, float64(types.EstimateTokens(out)), float64(budget)*(1+fitTolerance))
	assert.Equal(t, e.toTree(context.Background(), entries[:n]), out)
}

func TestFitBudget_TakesEverythingWhenItFits(t *testing.T) {
	dir, entries := manyFunctionsRepo(t, 2, 2)
	e := newTestEngine(t, dir)

	out, n, err := e.fitBudget(context.Background(), entries, 100000)
	require.NoError(t, err)
	assert.Equal(t, len(entries), n)
	assert.Equal(t, e.toTree(context.Background(), entries), out)
}

func TestFitBudget_NothingFits(t *testing.T) {
	dir, entries := manyFunctionsRepo(t, 1, 1)
	e := newTestEngine(t, dir)

	out, n, err := e.fitBudget(context.Background(), entries, 1)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, n)
}

func TestFitBudget_NonPositiveBudget(t *testing.T) {
	dir, entries := manyFunctionsRepo(t, 1, 1)
	e := newTestEngine(t, dir)

	out, _, err := e.fitBudget(context.Background(), entries, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}
