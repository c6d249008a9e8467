// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines shared types used across repo-map packages.
package types

// Tag is a named definition or reference site found by structural parsing.
type Tag struct {
	FilePath string // Absolute path of the source file
	RelPath  string // Path relative to the map root, used for display
	Line     int    // Line number (0-based); -1 when the position is unknown
	EndLine  int    // Last line of the enclosing definition node (0-based)
	Name     string // Identifier text
	Kind     TagKind
}

// TagKind distinguishes symbol definitions from references.
type TagKind int

const (
	Definition TagKind = iota
	Reference
)

// String returns the short name used in logs.
func (k TagKind) String() string {
	switch k {
	case Definition:
		return "def"
	case Reference:
		return "ref"
	default:
		return "unknown"
	}
}

// EntryKind discriminates the variants of RankedEntry.
type EntryKind int

const (
	TagEntry      EntryKind = iota // A ranked (file, identifier) pair
	FileOnlyEntry                  // A bare file placeholder
)

// RankedEntry is one element of the ranked selection. A TagEntry carries
// the identifier and every definition line that shares its (file,
// identifier) key; a FileOnlyEntry carries only the file.
type RankedEntry struct {
	Kind    EntryKind
	File    string  // Relative path
	AbsFile string  // Absolute path (empty for placeholders)
	Ident   string  // Identifier (TagEntry only)
	Lines   []int   // Definition lines, 0-based (TagEntry only)
	Rank    float64 // Accumulated rank (TagEntry only)
}

// NewFileOnly returns a placeholder entry for a file with no ranked tags.
func NewFileOnly(file string) RankedEntry {
	return RankedEntry{Kind: FileOnlyEntry, File: file}
}

// IsFileOnly reports whether the entry is a bare file placeholder.
func (e RankedEntry) IsFileOnly() bool {
	return e.Kind == FileOnlyEntry
}

// RenderedMap holds a rendered repository map and its estimated size.
type RenderedMap struct {
	Content     string   // Rendered map text
	TotalTokens int      // Estimated token count (4 characters per token)
	Files       []string // Files that contributed to the map, in output order
	FocusAreas  []string // Files rendered at interface level or above (multi-resolution only)
}
