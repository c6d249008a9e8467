// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package mapper is the public entry point for building repository maps.
// A request with a flight plan is rendered at multiple resolutions; any
// other request gets a ranked map fitted to a token budget.
package mapper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petar-djukic/repo-map/internal/flightplan"
	"github.com/petar-djukic/repo-map/internal/render"
	"github.com/petar-djukic/repo-map/internal/repomap"
	"github.com/petar-djukic/repo-map/pkg/types"
)

// Error types for the mapper API.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrBuildFailed    = errors.New("map build failed")
	ErrBudgetExceeded = render.ErrBudgetExceeded
)

var tracer = otel.Tracer("github.com/petar-djukic/repo-map/pkg/mapper")

// Request describes one map build.
type Request struct {
	Root      string                 // Directory relative paths are resolved against (default: working directory)
	Files     []string               // Files to map, absolute or relative to Root
	Budget    int                    // Token budget of the ranked map
	Plan      *flightplan.FlightPlan // Selects the multi-resolution pipeline when set
	Ranked    bool                   // Use the ranked pipeline even when Plan is set
	ShowCosts bool                   // Annotate every block with its cost table
	Strict    bool                   // Fail instead of warning when the plan budget is exceeded
	Workers   int                    // Parallel extraction workers (default runtime.NumCPU())
	Focus     *flightplan.Focus      // Ranked boosts (default: the plan's focus)
	Logger    zerolog.Logger         // Structured logger (default: disabled)

	// Progress is called after each file is extracted by the ranked
	// pipeline.
	Progress func(done, total int, file string)
}

// Result holds a built map and what the pipeline learned about its inputs.
type Result struct {
	Map        *types.RenderedMap   // nil when there was nothing to map
	Manifest   *render.CostManifest // Cost ledger (multi-resolution only)
	Unreadable []string             // Absolute paths skipped because they could not be read
	Stats      repomap.ExtractStats // Extraction statistics (ranked only)
}

// Option configures BuildRankedMap.
type Option func(*repomap.Config)

// WithRoot sets the directory relative paths are resolved against.
func WithRoot(root string) Option {
	return func(c *repomap.Config) { c.Root = root }
}

// WithWorkers sets the number of parallel extraction workers.
func WithWorkers(n int) Option {
	return func(c *repomap.Config) { c.Workers = n }
}

// WithFocus boosts files and symbols named by focus.
func WithFocus(focus *flightplan.Focus) Option {
	return func(c *repomap.Config) { c.Focus = focus }
}

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *repomap.Config) { c.Logger = log }
}

// WithProgress sets a callback invoked after each file is extracted.
func WithProgress(fn func(done, total int, file string)) Option {
	return func(c *repomap.Config) { c.Progress = fn }
}

// BuildRankedMap builds a map of the most referenced code in files that
// fits within budget tokens. It returns nil without error when budget is
// not positive or there are no files. Files that cannot be read are
// skipped.
func BuildRankedMap(ctx context.Context, files []string, budget int, opts ...Option) (*types.RenderedMap, error) {
	var cfg repomap.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	res, err := buildRanked(ctx, cfg, files, budget)
	if err != nil {
		return nil, err
	}
	return res.Map, nil
}

// BuildMultiResolutionMap renders files at the levels plan assigns. With
// strict set, a build whose total would pass the plan budget fails with
// an error matching ErrBudgetExceeded.
func BuildMultiResolutionMap(ctx context.Context, files []render.File, plan *flightplan.FlightPlan, showCosts, strict bool) (*types.RenderedMap, error) {
	res, err := buildMultiResolution(ctx, render.Config{Plan: plan}, files, showCosts, strict)
	if err != nil {
		return nil, err
	}
	return res.Map, nil
}

// Build runs the pipeline req selects.
func Build(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := applyDefaults(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if req.Plan == nil || req.Ranked {
		return buildRanked(ctx, repomap.Config{
			Root:     req.Root,
			Workers:  req.Workers,
			Focus:    req.Focus,
			Logger:   req.Logger,
			Progress: req.Progress,
		}, req.Files, req.Budget)
	}

	files, unreadable := readFiles(req.Root, req.Files, req.Logger)
	res, err := buildMultiResolution(ctx, render.Config{Plan: req.Plan, Logger: req.Logger}, files, req.ShowCosts, req.Strict)
	if err != nil {
		return nil, err
	}
	res.Unreadable = unreadable
	return res, nil
}

func validateRequest(req Request) error {
	if req.Workers < 0 {
		return fmt.Errorf("Workers must not be negative, got %d", req.Workers)
	}
	return nil
}

func applyDefaults(req *Request) error {
	if req.Root == "" {
		req.Root = "."
	}
	root, err := filepath.Abs(req.Root)
	if err != nil {
		return fmt.Errorf("resolving root %q: %w", req.Root, err)
	}
	req.Root = root
	if req.Focus == nil && req.Plan != nil {
		req.Focus = req.Plan.Focus()
	}
	return nil
}

func buildRanked(ctx context.Context, cfg repomap.Config, files []string, budget int) (*Result, error) {
	ctx, span := tracer.Start(ctx, "repomap.build", trace.WithAttributes(
		attribute.Int("files", len(files)),
		attribute.Int("budget", budget),
	))
	defer span.End()

	engine, err := repomap.New(cfg)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}

	m, err := engine.Build(ctx, files, budget)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("%w: %w", ErrBuildFailed, err))
	}

	res := &Result{Map: m, Unreadable: engine.Unreadable(), Stats: engine.Stats()}
	span.SetAttributes(
		attribute.Int("tokens", res.tokens()),
		attribute.Int("unreadable", len(res.Unreadable)),
		attribute.Int("cache_hits", res.Stats.CacheHits),
	)
	return res, nil
}

func buildMultiResolution(ctx context.Context, cfg render.Config, files []render.File, showCosts, strict bool) (*Result, error) {
	ctx, span := tracer.Start(ctx, "render.build", trace.WithAttributes(
		attribute.Int("files", len(files)),
		attribute.Bool("strict", strict),
	))
	defer span.End()

	out, err := render.New(cfg).Build(ctx, files, showCosts, strict)
	if err != nil {
		if errors.Is(err, render.ErrBudgetExceeded) {
			return nil, spanError(span, err)
		}
		return nil, spanError(span, fmt.Errorf("%w: %w", ErrBuildFailed, err))
	}

	res := &Result{Map: out.Map, Manifest: out.Manifest}
	span.SetAttributes(
		attribute.Int("tokens", res.tokens()),
		attribute.Bool("over_budget", out.Manifest.IsOverBudget()),
	)
	return res, nil
}

// readFiles loads the content of paths for the multi-resolution pipeline.
// Paths that cannot be read are returned separately.
func readFiles(root string, paths []string, log zerolog.Logger) ([]render.File, []string) {
	var files []render.File
	var unreadable []string
	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, p)
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			log.Warn().Err(err).Str("file", abs).Msg("skipping unreadable file")
			unreadable = append(unreadable, abs)
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			rel = abs
		}
		files = append(files, render.File{Path: filepath.ToSlash(rel), Content: string(data)})
	}
	return files, unreadable
}

func (r *Result) tokens() int {
	if r.Map == nil {
		return 0
	}
	return r.Map.TotalTokens
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
