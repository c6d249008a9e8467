// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/petar-djukic/repo-map/pkg/types"
)

const (
	longNameThreshold = 8
	longNameFactor    = 10.0
	underscoreFactor  = 0.1
	commonThreshold   = 5
	commonFactor      = 0.1
	selfLoopWeight    = 0.1
)

// Edge represents a directed edge in the dependency graph.
type Edge struct {
	From   string  // Referencing file
	To     string  // Defining file
	Ident  string  // Identifier carried by the edge
	Weight float64 // Edge weight after identifier heuristics
}

// Graph is a directed multigraph where nodes are files and edges
// represent "From references Ident defined in To". Parallel edges and
// self-loops are allowed.
type Graph struct {
	Nodes []string // Sorted file paths
	Edges []Edge
}

// defKey identifies the definitions of one identifier in one file.
type defKey struct {
	file  string
	ident string
}

// symbolIndex groups tags across all files.
type symbolIndex struct {
	defines     map[string][]string // ident → sorted defining files
	references  map[string][]string // ident → referencing files, with repetition
	definitions map[defKey][]int    // (file, ident) → definition lines, in collection order
	absPaths    map[string]string   // rel → abs
}

// indexTags builds the symbol index from per-file tag lists.
func indexTags(fileTags [][]types.Tag) *symbolIndex {
	idx := &symbolIndex{
		defines:     make(map[string][]string),
		references:  make(map[string][]string),
		definitions: make(map[defKey][]int),
		absPaths:    make(map[string]string),
	}
	definerSet := make(map[defKey]bool)
	lineSet := make(map[defKey]map[int]bool)

	for _, list := range fileTags {
		for _, t := range list {
			idx.absPaths[t.RelPath] = t.FilePath
			switch t.Kind {
			case types.Definition:
				key := defKey{file: t.RelPath, ident: t.Name}
				if !definerSet[key] {
					definerSet[key] = true
					idx.defines[t.Name] = append(idx.defines[t.Name], t.RelPath)
				}
				if lineSet[key] == nil {
					lineSet[key] = make(map[int]bool)
				}
				if !lineSet[key][t.Line] {
					lineSet[key][t.Line] = true
					idx.definitions[key] = append(idx.definitions[key], t.Line)
				}
			case types.Reference:
				idx.references[t.Name] = append(idx.references[t.Name], t.RelPath)
			}
		}
	}

	for ident := range idx.defines {
		sort.Strings(idx.defines[ident])
	}

	// A corpus with no references at all treats every definition as a
	// self-reference so the graph is not empty.
	if len(idx.references) == 0 {
		for ident, files := range idx.defines {
			idx.references[ident] = append([]string(nil), files...)
		}
	}
	return idx
}

// BuildGraph constructs the weighted dependency graph. Identifiers are
// visited in sorted order so edge order is stable. boosts multiplies the
// weight of edges carrying the named identifiers.
func BuildGraph(idx *symbolIndex, boosts map[string]float64) *Graph {
	g := &Graph{}
	nodeSet := make(map[string]bool)
	addEdge := func(from, to, ident string, weight float64) {
		nodeSet[from] = true
		nodeSet[to] = true
		g.Edges = append(g.Edges, Edge{From: from, To: to, Ident: ident, Weight: weight})
	}

	for _, ident := range sortedKeys(idx.defines) {
		if _, referenced := idx.references[ident]; referenced {
			continue
		}
		for _, definer := range idx.defines[ident] {
			addEdge(definer, definer, ident, selfLoopWeight)
		}
	}

	for _, ident := range sortedKeys(idx.defines) {
		refs, ok := idx.references[ident]
		if !ok {
			continue
		}
		definers := idx.defines[ident]
		mul := identifierMultiplier(ident, len(definers))
		if b, ok := boosts[ident]; ok {
			mul *= b
		}

		counts := make(map[string]int)
		for _, r := range refs {
			counts[r]++
		}
		for _, referencer := range sortedKeys(counts) {
			scaled := math.Sqrt(float64(counts[referencer]))
			for _, definer := range definers {
				addEdge(referencer, definer, ident, mul*scaled)
			}
		}
	}

	g.Nodes = sortedKeys(nodeSet)
	return g
}

// identifierMultiplier scores an identifier. The factors compose.
func identifierMultiplier(ident string, definers int) float64 {
	mul := 1.0
	if isMultiWord(ident) && utf8.RuneCountInString(ident) >= longNameThreshold {
		mul *= longNameFactor
	}
	if strings.HasPrefix(ident, "_") {
		mul *= underscoreFactor
	}
	if definers > commonThreshold {
		mul *= commonFactor
	}
	return mul
}

// isMultiWord reports snake_case, kebab-case or camelCase identifiers.
func isMultiWord(ident string) bool {
	var hasLetter, hasUpper, hasLower bool
	for _, r := range ident {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	snake := strings.Contains(ident, "_") && hasLetter
	kebab := strings.Contains(ident, "-") && hasLetter
	camel := hasUpper && hasLower
	return snake || kebab || camel
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedUnique(in []string) []string {
	set := make(map[string]bool, len(in))
	for _, s := range in {
		set[s] = true
	}
	return sortedKeys(set)
}
