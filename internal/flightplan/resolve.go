// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package flightplan

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/petar-djukic/repo-map/pkg/types"
)

// Resolution is the verbosity decision for one file.
type Resolution struct {
	Level    types.VerbosityLevel // File-level verbosity
	Sections []SectionRule        // Section rules when the deciding rule carves the file
}

// HasSections reports whether the file is rendered section by section.
func (r Resolution) HasSections() bool {
	return r.Sections != nil
}

// SectionLevel resolves the verbosity of one named section. The last
// matching section rule wins; the default is the file level.
func (r Resolution) SectionLevel(name string) types.VerbosityLevel {
	level := r.Level
	for _, s := range r.Sections {
		if ok, _ := doublestar.Match(s.Pattern, name); ok {
			level = types.VerbosityLevel(s.Level)
		}
	}
	return level
}

// Resolve applies the verbosity rules to relPath in order; the last
// matching rule decides. A level rule sets the file level. A sections rule
// sets the file level to Implementation and supplies the section rules.
// With no matching rule the file renders at Implementation.
func (p *FlightPlan) Resolve(relPath string) Resolution {
	res := Resolution{Level: types.LevelImplementation}
	for _, r := range p.spec.Verbosity {
		if !MatchPath(r.Pattern, relPath) {
			continue
		}
		if r.Level != nil {
			res = Resolution{Level: types.VerbosityLevel(*r.Level)}
			continue
		}
		res = Resolution{Level: types.LevelImplementation, Sections: r.Sections}
	}
	return res
}

// LevelForPath returns the file-level verbosity for relPath.
func (p *FlightPlan) LevelForPath(relPath string) types.VerbosityLevel {
	return p.Resolve(relPath).Level
}

// CustomQueryFor returns the custom query of the last matching entry.
func (p *FlightPlan) CustomQueryFor(relPath string) (string, bool) {
	query, found := "", false
	for _, q := range p.spec.CustomQueries {
		if MatchPath(q.Pattern, relPath) {
			query, found = q.Query, true
		}
	}
	return query, found
}

// PathWeight returns the largest boost among path patterns matching
// relPath, or 1 when none match.
func (f *Focus) PathWeight(relPath string) float64 {
	weight := 1.0
	if f == nil {
		return weight
	}
	for _, b := range f.Paths {
		if MatchPath(b.Pattern, relPath) && b.Weight > weight {
			weight = b.Weight
		}
	}
	return weight
}

// SymbolWeights returns the symbol boosts keyed by identifier.
func (f *Focus) SymbolWeights() map[string]float64 {
	if f == nil || len(f.Symbols) == 0 {
		return nil
	}
	m := make(map[string]float64, len(f.Symbols))
	for _, s := range f.Symbols {
		m[s.Name] = s.Weight
	}
	return m
}

// MatchPath reports whether relPath matches the glob pattern. Patterns use
// doublestar syntax. As in .gitignore, a pattern without a slash also
// matches the base name at any depth and a trailing slash matches
// everything below that directory.
func MatchPath(pattern, relPath string) bool {
	p := filepath.ToSlash(relPath)
	if strings.HasSuffix(pattern, "/") {
		pattern += "**"
	}
	if ok, _ := doublestar.Match(pattern, p); ok {
		return true
	}
	if !strings.Contains(strings.TrimSuffix(pattern, "/**"), "/") {
		if ok, _ := doublestar.Match(pattern, path.Base(p)); ok {
			return true
		}
	}
	return false
}
