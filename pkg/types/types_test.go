// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerbosityLevel_String(t *testing.T) {
	tests := []struct {
		level VerbosityLevel
		want  string
	}{
		{LevelExclude, "Exclude"},
		{LevelExistence, "Existence"},
		{LevelStructure, "Structure"},
		{LevelInterface, "Interface"},
		{LevelImplementation, "Implementation"},
		{VerbosityLevel(9), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.String())
		})
	}
}

func TestLevelFromInt(t *testing.T) {
	for i := 0; i <= 4; i++ {
		l, err := LevelFromInt(i)
		require.NoError(t, err)
		assert.Equal(t, VerbosityLevel(i), l)
	}

	_, err := LevelFromInt(5)
	assert.Error(t, err)
	_, err = LevelFromInt(-1)
	assert.Error(t, err)
}

func TestLevelsAreOrdered(t *testing.T) {
	assert.Len(t, AllLevels, 5)
	for i := 1; i < len(AllLevels); i++ {
		assert.Less(t, AllLevels[i-1], AllLevels[i])
	}
}

func TestRankedEntry_Variants(t *testing.T) {
	fo := NewFileOnly("README.md")
	assert.True(t, fo.IsFileOnly())
	assert.Equal(t, "README.md", fo.File)
	assert.Empty(t, fo.Ident)

	te := RankedEntry{Kind: TagEntry, File: "auth.py", Ident: "login", Lines: []int{0}}
	assert.False(t, te.IsFileOnly())
}

func TestTagKind_String(t *testing.T) {
	assert.Equal(t, "def", Definition.String())
	assert.Equal(t, "ref", Reference.String())
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 0, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 100, EstimateTokens(strings.Repeat("x", 400)))
	assert.Equal(t, 1, EstimateTokens("│⋮ab"), "counts characters, not bytes")
}
