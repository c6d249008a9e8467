// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repomap builds a token-budgeted map of a repository. Tags are
// extracted per file, joined into a reference graph between files, ranked
// with personalized PageRank, and rendered as source excerpts whose size is
// fitted to the budget by binary search.
package repomap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/petar-djukic/repo-map/internal/flightplan"
	"github.com/petar-djukic/repo-map/internal/tags"
	"github.com/petar-djukic/repo-map/pkg/types"
)

// ErrInvalidConfig is returned by New when the configuration is unusable.
var ErrInvalidConfig = errors.New("invalid repomap config")

// Config configures an Engine.
type Config struct {
	Root     string                             // Directory relative paths are computed against (default: working directory)
	Workers  int                                // Parallel extraction workers (default runtime.NumCPU())
	Focus    *flightplan.Focus                  // Optional path and symbol boosts
	Logger   zerolog.Logger                     // Structured logger (default: disabled)
	Progress func(done, total int, file string) // Called after each file is extracted
}

// Engine builds ranked maps. The tag cache lives as long as the engine;
// the excerpt cache and statistics are reset by every Build.
type Engine struct {
	cfg       Config
	extractor *tags.Extractor
	log       zerolog.Logger

	mu         sync.Mutex
	cache      map[string]cacheEntry
	trees      map[treeKey]string
	unreadable map[string]bool
	stats      ExtractStats
}

// New validates cfg and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	log := cfg.Logger.With().Str("component", "repomap").Logger()
	return &Engine{
		cfg:        cfg,
		extractor:  tags.NewExtractor(log),
		log:        log,
		cache:      make(map[string]cacheEntry),
		trees:      make(map[treeKey]string),
		unreadable: make(map[string]bool),
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.Workers < 0 {
		return fmt.Errorf("Workers must not be negative, got %d", cfg.Workers)
	}
	return nil
}

func applyDefaults(cfg *Config) error {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return fmt.Errorf("resolving root %q: %w", cfg.Root, err)
	}
	cfg.Root = root
	return nil
}

// Build renders a map of files that fits within budget tokens. It returns
// nil without error when there is nothing to map: an empty file list, a
// non-positive budget, or a budget too small for any prefix.
func (e *Engine) Build(ctx context.Context, files []string, budget int) (*types.RenderedMap, error) {
	if budget <= 0 || len(files) == 0 {
		return nil, nil
	}

	e.mu.Lock()
	e.stats = ExtractStats{}
	e.trees = make(map[treeKey]string)
	e.mu.Unlock()

	sources := e.statFiles(files)
	if len(sources) == 0 {
		return nil, nil
	}

	fileTags, readable, err := e.extractAll(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("extracting tags: %w", err)
	}

	var relFiles []string
	for i, src := range sources {
		if readable[i] {
			relFiles = append(relFiles, src.rel)
		}
	}

	idx := indexTags(fileTags)
	g := BuildGraph(idx, e.cfg.Focus.SymbolWeights())
	ranks := e.rankNodes(g, RankConfig{Weights: e.personalization(g)})

	entries := rankedEntries(g, ranks, idx, relFiles)
	entries = prependSpecial(entries, relFiles)

	e.log.Debug().
		Int("files", len(relFiles)).
		Int("nodes", len(g.Nodes)).
		Int("edges", len(g.Edges)).
		Int("entries", len(entries)).
		Msg("ranked repository")

	content, n, err := e.fitBudget(ctx, entries, budget)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}

	return &types.RenderedMap{
		Content:     content,
		TotalTokens: types.EstimateTokens(content),
		Files:       entryFiles(entries[:n]),
	}, nil
}

// personalization returns the focus path weight of every node that has
// one other than the default.
func (e *Engine) personalization(g *Graph) map[string]float64 {
	if e.cfg.Focus == nil {
		return nil
	}
	weights := make(map[string]float64)
	for _, node := range g.Nodes {
		if w := e.cfg.Focus.PathWeight(node); w != 1 {
			weights[node] = w
		}
	}
	return weights
}

// Stats returns extraction statistics for the most recent Build.
func (e *Engine) Stats() ExtractStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Unreadable returns the absolute paths skipped because they could not be
// read, over the lifetime of the engine.
func (e *Engine) Unreadable() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sortedKeys(e.unreadable)
}

func (e *Engine) absPath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(e.cfg.Root, path)
}

func (e *Engine) relPath(abs string) string {
	rel, err := filepath.Rel(e.cfg.Root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// entryFiles returns the distinct files of entries in path order.
func entryFiles(entries []types.RankedEntry) []string {
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		files = append(files, e.File)
	}
	return sortedUnique(files)
}
