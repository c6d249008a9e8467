// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"errors"
	"math"
)

const (
	defaultDamping   = 0.85
	defaultMaxIter   = 100
	defaultTolerance = 1e-6
)

// ErrRankFailed is returned when PageRank does not produce finite scores.
var ErrRankFailed = errors.New("pagerank produced non-finite scores")

// RankConfig configures PageRank computation.
type RankConfig struct {
	Damping       float64            // Damping factor (default 0.85)
	MaxIterations int                // Maximum iterations (default 100)
	Tolerance     float64            // L1 convergence tolerance (default 1e-6)
	Weights       map[string]float64 // Personalization weight per node (default 1)
}

// PageRank runs weighted power-iteration PageRank over g and returns one
// score per entry of g.Nodes. Dangling mass is redistributed according to
// the personalization vector. An empty graph yields a nil slice.
func PageRank(g *Graph, cfg RankConfig) ([]float64, error) {
	damping := cfg.Damping
	if damping == 0 {
		damping = defaultDamping
	}
	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = defaultMaxIter
	}
	tolerance := cfg.Tolerance
	if tolerance == 0 {
		tolerance = defaultTolerance
	}

	n := len(g.Nodes)
	if n == 0 {
		return nil, nil
	}

	idx := make(map[string]int, n)
	for i, node := range g.Nodes {
		idx[node] = i
	}

	personalization := make([]float64, n)
	totalPersonal := 0.0
	for i, node := range g.Nodes {
		w := 1.0
		if pw, ok := cfg.Weights[node]; ok && pw > 0 {
			w = pw
		}
		personalization[i] = w
		totalPersonal += w
	}
	for i := range personalization {
		personalization[i] /= totalPersonal
	}

	type outEdge struct {
		to     int
		weight float64
	}
	outEdges := make([][]outEdge, n)
	outWeight := make([]float64, n)

	for _, e := range g.Edges {
		fromIdx, okF := idx[e.From]
		toIdx, okT := idx[e.To]
		if !okF || !okT {
			continue
		}
		outEdges[fromIdx] = append(outEdges[fromIdx], outEdge{to: toIdx, weight: e.Weight})
		outWeight[fromIdx] += e.Weight
	}

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}

	newRank := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		for i := range newRank {
			newRank[i] = (1.0 - damping) * personalization[i]
		}

		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				for j := range newRank {
					newRank[j] += damping * rank[i] * personalization[j]
				}
				continue
			}
			for _, e := range outEdges[i] {
				newRank[e.to] += damping * rank[i] * (e.weight / outWeight[i])
			}
		}

		diff := 0.0
		for i := range rank {
			diff += math.Abs(newRank[i] - rank[i])
		}
		copy(rank, newRank)
		if diff < tolerance {
			break
		}
	}

	for _, r := range rank {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, ErrRankFailed
		}
	}
	return rank, nil
}
