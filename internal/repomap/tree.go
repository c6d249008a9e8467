// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"context"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/petar-djukic/repo-map/internal/tags"
)

const (
	shownPrefix = "│"
	gapMarker   = "⋮"
)

// treeKey identifies a rendered excerpt. Lines is the canonical
// comma-joined list of lines of interest.
type treeKey struct {
	file    string
	lines   string
	modTime time.Time
}

// renderExcerpt renders the lines of interest of absPath with their
// enclosing scope headers. Results are cached per build.
func (e *Engine) renderExcerpt(ctx context.Context, absPath string, lois []int) string {
	info, err := os.Stat(absPath)
	if err != nil {
		e.markUnreadable(absPath, err)
		return ""
	}
	key := treeKey{file: absPath, lines: joinLines(lois), modTime: info.ModTime()}

	e.mu.Lock()
	if cached, ok := e.trees[key]; ok {
		e.mu.Unlock()
		return cached
	}
	e.mu.Unlock()

	content, err := os.ReadFile(absPath)
	if err != nil {
		e.markUnreadable(absPath, err)
		return ""
	}
	out := excerpt(ctx, absPath, content, lois)

	e.mu.Lock()
	e.trees[key] = out
	e.mu.Unlock()
	return out
}

// excerpt renders content keeping the lines of interest plus the first
// line of every multi-line syntax node that encloses one of them. Every
// run of hidden lines collapses to a single gap marker. When the file
// cannot be parsed only the lines of interest are kept.
func excerpt(ctx context.Context, path string, content []byte, lois []int) string {
	lines := strings.Split(string(content), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		return ""
	}

	shown := make([]bool, len(lines))
	var valid []int
	for _, l := range lois {
		if l >= 0 && l < len(lines) {
			shown[l] = true
			valid = append(valid, l)
		}
	}
	if len(valid) == 0 {
		return ""
	}

	if root, ok := tags.Parse(ctx, path, content); ok {
		for _, l := range valid {
			markScopes(root, uint32(l), shown)
		}
	}

	// A hidden line between two shown lines costs as much as its marker.
	for i := 1; i < len(lines)-1; i++ {
		if !shown[i] && shown[i-1] && shown[i+1] {
			shown[i] = true
		}
	}

	var b strings.Builder
	inGap := false
	for i, line := range lines {
		if !shown[i] {
			if !inGap {
				b.WriteString(gapMarker + "\n")
				inGap = true
			}
			continue
		}
		inGap = false
		b.WriteString(shownPrefix + line + "\n")
	}
	return b.String()
}

// markScopes descends from root through the named nodes that contain row
// and marks the start row of each one spanning several lines.
func markScopes(root *sitter.Node, row uint32, shown []bool) {
	node := root
	for node != nil {
		var next *sitter.Node
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child == nil {
				continue
			}
			if child.StartPoint().Row <= row && row <= child.EndPoint().Row {
				next = child
				break
			}
		}
		if next == nil {
			return
		}
		start, end := next.StartPoint().Row, next.EndPoint().Row
		if end > start && int(start) < len(shown) {
			shown[start] = true
		}
		node = next
	}
}

func joinLines(lois []int) string {
	sorted := append([]int(nil), lois...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, l := range sorted {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ",")
}
