// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "fmt"

// VerbosityLevel is the detail tier at which a file or section is rendered.
type VerbosityLevel int

const (
	LevelExclude        VerbosityLevel = iota // Hidden entirely
	LevelExistence                            // Path only
	LevelStructure                            // Definition lines only
	LevelInterface                            // Definitions, signatures and docs
	LevelImplementation                       // Full content
)

// AllLevels lists every verbosity level in ascending order.
var AllLevels = []VerbosityLevel{
	LevelExclude,
	LevelExistence,
	LevelStructure,
	LevelInterface,
	LevelImplementation,
}

// String returns the human-readable name of the verbosity level.
func (l VerbosityLevel) String() string {
	switch l {
	case LevelExclude:
		return "Exclude"
	case LevelExistence:
		return "Existence"
	case LevelStructure:
		return "Structure"
	case LevelInterface:
		return "Interface"
	case LevelImplementation:
		return "Implementation"
	default:
		return "Unknown"
	}
}

// Valid reports whether l lies in [0, 4].
func (l VerbosityLevel) Valid() bool {
	return l >= LevelExclude && l <= LevelImplementation
}

// LevelFromInt converts an integer to a VerbosityLevel, rejecting values
// outside [0, 4].
func LevelFromInt(v int) (VerbosityLevel, error) {
	l := VerbosityLevel(v)
	if !l.Valid() {
		return 0, fmt.Errorf("verbosity level must be 0-4, got %d", v)
	}
	return l, nil
}
