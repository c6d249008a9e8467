// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package render

import (
	"context"
	"sort"
	"strings"

	"github.com/petar-djukic/repo-map/internal/flightplan"
	"github.com/petar-djukic/repo-map/internal/tags"
	"github.com/petar-djukic/repo-map/pkg/types"
)

// section is an outermost definition and the definitions nested in it.
type section struct {
	name   string
	start  int
	end    int
	nested []int // Start lines of nested definitions, ascending
}

// findSections groups definition tags into outermost sections. Tags may
// arrive in any order; a definition inside an earlier section's span is
// nested in it.
func findSections(defs []types.Tag, lineCount int) []section {
	sorted := make([]types.Tag, 0, len(defs))
	for _, d := range defs {
		if d.Kind == types.Definition && d.Line >= 0 && d.Line < lineCount {
			sorted = append(sorted, d)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line < sorted[j].Line
		}
		return sorted[i].EndLine > sorted[j].EndLine
	})

	var out []section
	for _, d := range sorted {
		if n := len(out); n > 0 && d.Line <= out[n-1].end {
			cur := &out[n-1]
			if d.Line > cur.start && (len(cur.nested) == 0 || cur.nested[len(cur.nested)-1] != d.Line) {
				cur.nested = append(cur.nested, d.Line)
			}
			continue
		}
		end := d.EndLine
		if end < d.Line {
			end = d.Line
		}
		if end >= lineCount {
			end = lineCount - 1
		}
		out = append(out, section{name: d.Name, start: d.Line, end: end})
	}
	return out
}

// carve renders content section by section. Each section is rendered at
// the level res assigns to its name; lines outside every section are kept.
func (r *Renderer) carve(ctx context.Context, path, content string, res flightplan.Resolution) string {
	if !tags.Supported(path) {
		return content
	}
	defs := r.extractor.Extract(ctx, tags.Request{
		AbsPath: path,
		RelPath: path,
		Content: []byte(content),
	})

	lines := strings.Split(content, "\n")
	sections := findSections(defs, len(lines))
	if len(sections) == 0 {
		return content
	}

	out := make([]string, 0, len(lines))
	next := 0
	for i := 0; i < len(lines); {
		if next < len(sections) && sections[next].start == i {
			s := sections[next]
			out = append(out, renderSection(s, lines, res.SectionLevel(s.name))...)
			i = s.end + 1
			next++
			continue
		}
		out = append(out, lines[i])
		i++
	}
	return strings.Join(out, "\n")
}

func renderSection(s section, lines []string, level types.VerbosityLevel) []string {
	switch level {
	case types.LevelExclude:
		return nil
	case types.LevelExistence:
		return []string{"⋮ " + s.name}
	case types.LevelStructure:
		return []string{lines[s.start], "⋮"}
	case types.LevelInterface:
		out := []string{lines[s.start]}
		for _, l := range s.nested {
			out = append(out, lines[l])
		}
		return append(out, "⋮")
	default:
		return append([]string(nil), lines[s.start:s.end+1]...)
	}
}
