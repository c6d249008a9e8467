// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"sort"

	"github.com/petar-djukic/repo-map/pkg/types"
)

// rankNodes runs PageRank and retries once on failure. A second failure
// yields an empty ranking.
func (e *Engine) rankNodes(g *Graph, cfg RankConfig) []float64 {
	ranks, err := PageRank(g, cfg)
	if err == nil {
		return ranks
	}
	e.log.Warn().Err(err).Msg("pagerank failed, retrying")
	ranks, err = PageRank(g, cfg)
	if err != nil {
		e.log.Warn().Err(err).Msg("pagerank failed twice, ranking is empty")
		return nil
	}
	return ranks
}

// distributeRank splits each node's rank across its outgoing edges in
// proportion to edge weight and accumulates it per (destination, ident).
func distributeRank(g *Graph, ranks []float64) map[defKey]float64 {
	acc := make(map[defKey]float64)
	if len(ranks) != len(g.Nodes) {
		return acc
	}

	nodeRank := make(map[string]float64, len(g.Nodes))
	for i, node := range g.Nodes {
		nodeRank[node] = ranks[i]
	}

	outWeight := make(map[string]float64, len(g.Nodes))
	for _, e := range g.Edges {
		outWeight[e.From] += e.Weight
	}

	for _, e := range g.Edges {
		total := outWeight[e.From]
		if total == 0 {
			continue
		}
		acc[defKey{file: e.To, ident: e.Ident}] += nodeRank[e.From] * e.Weight / total
	}
	return acc
}

// rankedEntries orders the ranked (file, ident) pairs and appends bare
// file placeholders for every input file not already represented.
func rankedEntries(g *Graph, ranks []float64, idx *symbolIndex, relFiles []string) []types.RankedEntry {
	acc := distributeRank(g, ranks)

	keys := make([]defKey, 0, len(acc))
	for k := range acc {
		keys = append(keys, k)
	}
	// Descending on (rank, file, ident).
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := acc[keys[i]], acc[keys[j]]
		if ri != rj {
			return ri > rj
		}
		if keys[i].file != keys[j].file {
			return keys[i].file > keys[j].file
		}
		return keys[i].ident > keys[j].ident
	})

	var entries []types.RankedEntry
	included := make(map[string]bool)
	for _, k := range keys {
		lines := idx.definitions[k]
		if len(lines) == 0 {
			continue
		}
		entries = append(entries, types.RankedEntry{
			Kind:    types.TagEntry,
			File:    k.file,
			AbsFile: idx.absPaths[k.file],
			Ident:   k.ident,
			Lines:   append([]int(nil), lines...),
			Rank:    acc[k],
		})
		included[k.file] = true
	}

	remaining := make(map[string]bool, len(relFiles))
	for _, f := range relFiles {
		remaining[f] = true
	}

	if len(ranks) == len(g.Nodes) {
		order := make([]int, len(g.Nodes))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			ra, rb := ranks[order[a]], ranks[order[b]]
			if ra != rb {
				return ra > rb
			}
			return g.Nodes[order[a]] > g.Nodes[order[b]]
		})
		for _, i := range order {
			node := g.Nodes[i]
			delete(remaining, node)
			if !included[node] {
				entries = append(entries, types.NewFileOnly(node))
				included[node] = true
			}
		}
	}

	for _, f := range sortedKeys(remaining) {
		if !included[f] {
			entries = append(entries, types.NewFileOnly(f))
		}
	}
	return entries
}

// prependSpecial places important files that have no tag entries right
// after the last tag entry, ahead of the other placeholders, and drops
// their later placeholders.
func prependSpecial(entries []types.RankedEntry, relFiles []string) []types.RankedEntry {
	tagged := make(map[string]bool)
	lastTag := -1
	for i, e := range entries {
		if !e.IsFileOnly() {
			tagged[e.File] = true
			lastTag = i
		}
	}

	special := make(map[string]bool)
	var extra []types.RankedEntry
	for _, f := range filterImportant(relFiles) {
		if tagged[f] || special[f] {
			continue
		}
		special[f] = true
		extra = append(extra, types.NewFileOnly(f))
	}
	if len(extra) == 0 {
		return entries
	}

	out := make([]types.RankedEntry, 0, len(entries)+len(extra))
	out = append(out, entries[:lastTag+1]...)
	out = append(out, extra...)
	for _, e := range entries[lastTag+1:] {
		if e.IsFileOnly() && special[e.File] {
			continue
		}
		out = append(out, e)
	}
	return out
}
