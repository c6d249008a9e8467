// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tags

import (
	"embed"
	"path"

	"github.com/petar-djukic/repo-map/pkg/types"
)

//go:embed queries
var queryFS embed.FS

const (
	queryTags      = "tags"
	queryStructure = "structure"
	queryInterface = "interface"
)

// queryCandidates returns the ordered query names to try for a verbosity
// hint. The first one present for the language wins.
func queryCandidates(hint types.VerbosityLevel) []string {
	switch hint {
	case types.LevelStructure:
		return []string{queryStructure, queryTags}
	case types.LevelInterface:
		return []string{queryInterface, queryTags}
	default:
		return []string{queryTags}
	}
}

// lookupQuery walks the candidate list for lang and returns the first query
// document found along with its name. ok is false when no candidate exists.
func lookupQuery(lang string, hint types.VerbosityLevel) (name string, text []byte, ok bool) {
	for _, candidate := range queryCandidates(hint) {
		data, err := queryFS.ReadFile(path.Join("queries", lang, candidate+".scm"))
		if err != nil {
			continue
		}
		return candidate, data, true
	}
	return "", nil, false
}
