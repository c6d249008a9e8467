// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"sort"

	"github.com/petar-djukic/repo-map/pkg/types"
)

const (
	existenceCost     = 5
	structureFraction = 0.15
	interfaceFraction = 0.40
)

// ErrBudgetExceeded is matched by BudgetExceededError.
var ErrBudgetExceeded = errors.New("token budget exceeded")

// BudgetExceededError reports the file whose cost pushed the running total
// past the budget in strict mode.
type BudgetExceededError struct {
	File   string
	Total  int
	Budget int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("token budget exceeded: %d tokens (budget %d), stopped at %s", e.Total, e.Budget, e.File)
}

// Is reports whether target is ErrBudgetExceeded.
func (e *BudgetExceededError) Is(target error) bool {
	return target == ErrBudgetExceeded
}

// FileCosts is the estimated token cost of one file at every level.
type FileCosts [types.LevelImplementation + 1]int

// EstimateCosts returns the cost table for content. Structure and
// interface costs are fractions of the full cost until replaced with
// exact values by WithStructure and WithInterface.
func EstimateCosts(content string) FileCosts {
	full := types.EstimateTokens(content)
	var c FileCosts
	c[types.LevelExclude] = 0
	c[types.LevelExistence] = existenceCost
	c[types.LevelStructure] = int(float64(full) * structureFraction)
	c[types.LevelInterface] = int(float64(full) * interfaceFraction)
	c[types.LevelImplementation] = full
	return c
}

// WithStructure returns c with the exact cost of a structure rendering.
func (c FileCosts) WithStructure(rendered string) FileCosts {
	c[types.LevelStructure] = types.EstimateTokens(rendered)
	return c
}

// WithInterface returns c with the exact cost of an interface rendering.
func (c FileCosts) WithInterface(rendered string) FileCosts {
	c[types.LevelInterface] = types.EstimateTokens(rendered)
	return c
}

// At returns the cost at level, or 0 for an invalid level.
func (c FileCosts) At(level types.VerbosityLevel) int {
	if !level.Valid() {
		return 0
	}
	return c[level]
}

// Contributor is one file's share of the running total.
type Contributor struct {
	Path   string
	Level  types.VerbosityLevel
	Tokens int
}

type manifestEntry struct {
	costs  FileCosts
	level  types.VerbosityLevel
	tokens int
}

// CostManifest is an append-only ledger of per-file costs against a
// budget.
type CostManifest struct {
	budget int
	order  []string
	files  map[string]manifestEntry
	actual int
}

// NewCostManifest returns an empty manifest for budget.
func NewCostManifest(budget int) *CostManifest {
	return &CostManifest{budget: budget, files: make(map[string]manifestEntry)}
}

// AddFile records costs for path and adds the cost at level to the
// running total.
func (m *CostManifest) AddFile(path string, costs FileCosts, level types.VerbosityLevel) {
	m.AddRendered(path, costs, level, costs.At(level))
}

// AddRendered records costs for path and adds tokens, the measured cost of
// what was actually rendered, to the running total.
func (m *CostManifest) AddRendered(path string, costs FileCosts, level types.VerbosityLevel, tokens int) {
	if _, ok := m.files[path]; !ok {
		m.order = append(m.order, path)
	}
	m.files[path] = manifestEntry{costs: costs, level: level, tokens: tokens}
	m.actual += tokens
}

// Budget returns the configured budget.
func (m *CostManifest) Budget() int { return m.budget }

// Actual returns the running total.
func (m *CostManifest) Actual() int { return m.actual }

// Overrun returns how far the total exceeds the budget, or 0.
func (m *CostManifest) Overrun() int {
	return max(0, m.actual-m.budget)
}

// IsOverBudget reports whether the total exceeds the budget.
func (m *CostManifest) IsOverBudget() bool {
	return m.actual > m.budget
}

// Files returns the recorded paths in the order they were added.
func (m *CostManifest) Files() []string {
	return append([]string(nil), m.order...)
}

// Costs returns the cost table recorded for path.
func (m *CostManifest) Costs(path string) (FileCosts, bool) {
	e, ok := m.files[path]
	return e.costs, ok
}

// TotalAtLevel returns the total if every recorded file were rendered at
// level.
func (m *CostManifest) TotalAtLevel(level types.VerbosityLevel) int {
	total := 0
	for _, e := range m.files {
		total += e.costs.At(level)
	}
	return total
}

// TopContributors returns the n files with the largest cost at the level
// they were rendered at, largest first. Ties keep insertion order.
func (m *CostManifest) TopContributors(n int) []Contributor {
	out := make([]Contributor, 0, len(m.order))
	for _, p := range m.order {
		e := m.files[p]
		out = append(out, Contributor{Path: p, Level: e.level, Tokens: e.tokens})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tokens > out[j].Tokens })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
