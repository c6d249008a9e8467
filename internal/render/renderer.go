// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package render produces multi-resolution context maps. Each file is
// rendered at the verbosity level its flight plan assigns, costed at every
// level, and assembled into fenced blocks with a running token total.
package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/petar-djukic/repo-map/internal/flightplan"
	"github.com/petar-djukic/repo-map/internal/tags"
	"github.com/petar-djukic/repo-map/pkg/types"
)

const maxFocusAreas = 10

// File is one input to Build.
type File struct {
	Path    string // Relative path used for rule matching and headers
	Content string
}

// Config configures a Renderer.
type Config struct {
	Plan   *flightplan.FlightPlan // Verbosity rules and budget (default flightplan.Default())
	Logger zerolog.Logger         // Structured logger (default: disabled)
}

// Result is the output of Build.
type Result struct {
	Map      *types.RenderedMap
	Manifest *CostManifest
}

// Renderer renders files according to a flight plan.
type Renderer struct {
	plan      *flightplan.FlightPlan
	extractor *tags.Extractor
	log       zerolog.Logger
}

// New returns a Renderer for cfg.
func New(cfg Config) *Renderer {
	if cfg.Plan == nil {
		cfg.Plan = flightplan.Default()
	}
	log := cfg.Logger.With().Str("component", "render").Logger()
	return &Renderer{
		plan:      cfg.Plan,
		extractor: tags.NewExtractor(log),
		log:       log,
	}
}

// Plan returns the flight plan in use.
func (r *Renderer) Plan() *flightplan.FlightPlan { return r.plan }

// RenderFile renders content at level. Exclude and Existence render
// nothing; Implementation is the content itself. Structure and Interface
// keep the source line of every definition the level's query finds. Files
// in languages without a parser are returned unchanged.
func (r *Renderer) RenderFile(ctx context.Context, path, content string, level types.VerbosityLevel) string {
	switch level {
	case types.LevelExclude, types.LevelExistence:
		return ""
	case types.LevelStructure, types.LevelInterface:
		return r.renderDefinitions(ctx, path, content, level)
	default:
		return content
	}
}

func (r *Renderer) renderDefinitions(ctx context.Context, path, content string, level types.VerbosityLevel) string {
	if !tags.Supported(path) {
		return content
	}
	query, _ := r.plan.CustomQueryFor(path)
	found := r.extractor.Extract(ctx, tags.Request{
		AbsPath: path,
		RelPath: path,
		Content: []byte(content),
		Hint:    level,
		Query:   query,
	})
	if len(found) == 0 {
		return ""
	}

	lines := strings.Split(content, "\n")
	seen := make(map[int]bool)
	var out []string
	for _, t := range found {
		if t.Kind != types.Definition || seen[t.Line] || t.Line < 0 || t.Line >= len(lines) {
			continue
		}
		seen[t.Line] = true
		out = append(out, lines[t.Line])
	}
	return strings.Join(out, "\n")
}

// renderResolved renders content at the resolved level, carving it into
// sections when the deciding rule supplies them.
func (r *Renderer) renderResolved(ctx context.Context, path, content string, res flightplan.Resolution) string {
	if res.HasSections() {
		return r.carve(ctx, path, content, res)
	}
	return r.RenderFile(ctx, path, content, res.Level)
}

// FileCosts returns the exact cost table of content, rendering the
// structure and interface levels to measure them.
func (r *Renderer) FileCosts(ctx context.Context, path, content string) FileCosts {
	return EstimateCosts(content).
		WithStructure(r.RenderFile(ctx, path, content, types.LevelStructure)).
		WithInterface(r.RenderFile(ctx, path, content, types.LevelInterface))
}

// Build renders files in order. Excluded files are skipped. Each included
// file adds its cost at the rendered level to a running total; with strict
// set, a file that would take the total past the budget stops the build
// with a *BudgetExceededError. With showCosts every block lists the file's
// cost at all levels.
func (r *Renderer) Build(ctx context.Context, files []File, showCosts, strict bool) (*Result, error) {
	budget := r.plan.Budget()
	manifest := NewCostManifest(budget)
	var parts, included, focus []string

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := r.plan.Resolve(f.Path)
		if res.Level == types.LevelExclude && !res.HasSections() {
			r.log.Debug().Str("file", f.Path).Msg("excluded by flight plan")
			continue
		}

		rendered := r.renderResolved(ctx, f.Path, f.Content, res)

		var costs FileCosts
		if showCosts {
			costs = r.FileCosts(ctx, f.Path, f.Content)
		} else {
			costs = EstimateCosts(f.Content)
			switch res.Level {
			case types.LevelStructure:
				costs = costs.WithStructure(rendered)
			case types.LevelInterface:
				costs = costs.WithInterface(rendered)
			}
		}

		tokens := costs.At(res.Level)
		if res.HasSections() {
			tokens = types.EstimateTokens(rendered)
		}

		if strict && manifest.Actual()+tokens > budget {
			return nil, &BudgetExceededError{File: f.Path, Total: manifest.Actual() + tokens, Budget: budget}
		}
		manifest.AddRendered(f.Path, costs, res.Level, tokens)

		parts = append(parts, fileBlock(f.Path, rendered, res.Level, tokens, costs, showCosts))
		included = append(included, f.Path)
		if res.Level >= types.LevelInterface && len(focus) < maxFocusAreas {
			focus = append(focus, f.Path)
		}

		r.log.Debug().
			Str("file", f.Path).
			Str("level", res.Level.String()).
			Int("tokens", tokens).
			Int("total", manifest.Actual()).
			Msg("rendered file")
	}

	summary := fmt.Sprintf("\n# Total: %d/%d tokens", manifest.Actual(), budget)
	if manifest.IsOverBudget() {
		summary += " ⚠️ OVER BUDGET"
		r.log.Warn().Int("total", manifest.Actual()).Int("budget", budget).Msg("map exceeds budget")
	}
	parts = append(parts, summary)

	return &Result{
		Map: &types.RenderedMap{
			Content:     strings.Join(parts, "\n"),
			TotalTokens: manifest.Actual(),
			Files:       included,
			FocusAreas:  focus,
		},
		Manifest: manifest,
	}, nil
}

func fileBlock(path, rendered string, level types.VerbosityLevel, tokens int, costs FileCosts, showCosts bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", path)
	if showCosts {
		fmt.Fprintf(&b, "# Costs: L0=%d, L1=%d, L2=%d, L3=%d, L4=%d tokens\n",
			costs[types.LevelExclude],
			costs[types.LevelExistence],
			costs[types.LevelStructure],
			costs[types.LevelInterface],
			costs[types.LevelImplementation])
	}
	switch {
	case level == types.LevelExistence:
		fmt.Fprintf(&b, "# [path only - %d tokens]\n", tokens)
	case rendered != "":
		fmt.Fprintf(&b, "```\n%s\n```\n", rendered)
	}
	return b.String()
}
