// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package flightplan defines the FlightPlan value object that drives
// multi-resolution rendering: a token budget, optional focus boosts, an
// ordered list of verbosity rules and per-path custom queries. A FlightPlan
// is validated at construction and never changes afterwards; callers that
// need a different plan build a new one from Spec.
package flightplan

import (
	"errors"
	"fmt"

	"github.com/petar-djukic/repo-map/pkg/types"
)

const (
	DefaultBudget      = 20000
	DefaultBoostWeight = 10.0
)

var (
	ErrInvalidPlan  = errors.New("invalid flight plan")
	ErrPlanNotFound = errors.New("flight plan not found")
)

// PathBoost raises the importance of files matching Pattern.
type PathBoost struct {
	Pattern string  `yaml:"pattern"`
	Weight  float64 `yaml:"weight,omitempty"` // Must be > 0 (default 10)
}

// SymbolBoost raises the importance of the identifier Name.
type SymbolBoost struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight,omitempty"` // Must be > 0 (default 10)
}

// Focus groups path and symbol boosts.
type Focus struct {
	Paths   []PathBoost   `yaml:"paths,omitempty"`
	Symbols []SymbolBoost `yaml:"symbols,omitempty"`
}

// SectionRule sets the verbosity of sections whose name matches Pattern.
type SectionRule struct {
	Pattern string `yaml:"pattern"`
	Level   int    `yaml:"level"`
}

// VerbosityRule maps a path glob to either a file level or a list of
// section rules. Exactly one of Level and Sections must be set.
type VerbosityRule struct {
	Pattern  string        `yaml:"pattern"`
	Level    *int          `yaml:"level,omitempty"`
	Sections []SectionRule `yaml:"sections,omitempty"`
}

// AtLevel returns a rule that renders files matching pattern at level.
func AtLevel(pattern string, level types.VerbosityLevel) VerbosityRule {
	l := int(level)
	return VerbosityRule{Pattern: pattern, Level: &l}
}

// WithSections returns a rule that carves matching files into sections.
func WithSections(pattern string, sections ...SectionRule) VerbosityRule {
	if sections == nil {
		sections = []SectionRule{}
	}
	return VerbosityRule{Pattern: pattern, Sections: sections}
}

// CustomQuery replaces the structural query for files matching Pattern.
type CustomQuery struct {
	Pattern string `yaml:"pattern"`
	Query   string `yaml:"query"`
}

// Spec is the mutable description from which a FlightPlan is built. Zero
// Budget and zero boost weights take their defaults.
type Spec struct {
	// Budget is the token budget. Zero means unset and takes DefaultBudget;
	// New rejects a negative budget. Parse rejects an explicit budget: 0.
	Budget        int             `yaml:"budget,omitempty"`
	Focus         *Focus          `yaml:"focus,omitempty"`
	Verbosity     []VerbosityRule `yaml:"verbosity,omitempty"`
	CustomQueries []CustomQuery   `yaml:"custom_queries,omitempty"`
}

// FlightPlan is a validated, immutable rendering plan.
type FlightPlan struct {
	spec Spec
}

// New applies defaults to spec, validates it and returns the plan. The
// returned plan holds its own copy of spec.
func New(spec Spec) (*FlightPlan, error) {
	s := cloneSpec(spec)
	applyDefaults(&s)
	if err := validateSpec(s); err != nil {
		return nil, err
	}
	return &FlightPlan{spec: s}, nil
}

// Default returns the plan used when none is supplied: the default budget
// and no rules, so every file renders in full.
func Default() *FlightPlan {
	return &FlightPlan{spec: Spec{Budget: DefaultBudget}}
}

// Budget returns the token budget.
func (p *FlightPlan) Budget() int { return p.spec.Budget }

// Focus returns a copy of the focus boosts, or nil.
func (p *FlightPlan) Focus() *Focus {
	if p.spec.Focus == nil {
		return nil
	}
	f := cloneFocus(*p.spec.Focus)
	return &f
}

// Rules returns a copy of the ordered verbosity rules.
func (p *FlightPlan) Rules() []VerbosityRule {
	return cloneRules(p.spec.Verbosity)
}

// CustomQueries returns a copy of the custom queries.
func (p *FlightPlan) CustomQueries() []CustomQuery {
	return append([]CustomQuery(nil), p.spec.CustomQueries...)
}

// Spec returns a deep copy of the plan's description.
func (p *FlightPlan) Spec() Spec {
	return cloneSpec(p.spec)
}

func applyDefaults(s *Spec) {
	if s.Budget == 0 {
		s.Budget = DefaultBudget
	}
	if s.Focus != nil {
		for i := range s.Focus.Paths {
			if s.Focus.Paths[i].Weight == 0 {
				s.Focus.Paths[i].Weight = DefaultBoostWeight
			}
		}
		for i := range s.Focus.Symbols {
			if s.Focus.Symbols[i].Weight == 0 {
				s.Focus.Symbols[i].Weight = DefaultBoostWeight
			}
		}
	}
}

// validateSpec reports every invariant violation in s, joined.
func validateSpec(s Spec) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidPlan}, args...)...))
	}

	if s.Budget <= 0 {
		fail("budget: must be greater than 0, got %d", s.Budget)
	}

	if s.Focus != nil {
		for i, b := range s.Focus.Paths {
			if b.Pattern == "" {
				fail("focus.paths[%d].pattern: must not be empty", i)
			}
			if b.Weight <= 0 {
				fail("focus.paths[%d].weight: must be greater than 0, got %g", i, b.Weight)
			}
		}
		for i, b := range s.Focus.Symbols {
			if b.Name == "" {
				fail("focus.symbols[%d].name: must not be empty", i)
			}
			if b.Weight <= 0 {
				fail("focus.symbols[%d].weight: must be greater than 0, got %g", i, b.Weight)
			}
		}
	}

	for i, r := range s.Verbosity {
		if r.Pattern == "" {
			fail("verbosity[%d].pattern: must not be empty", i)
		}
		switch {
		case r.Level == nil && r.Sections == nil:
			fail("verbosity[%d]: either level or sections must be specified", i)
		case r.Level != nil && r.Sections != nil:
			fail("verbosity[%d]: cannot specify both level and sections", i)
		case r.Level != nil:
			if !types.VerbosityLevel(*r.Level).Valid() {
				fail("verbosity[%d].level: must be 0-4, got %d", i, *r.Level)
			}
		}
		for j, sec := range r.Sections {
			if sec.Pattern == "" {
				fail("verbosity[%d].sections[%d].pattern: must not be empty", i, j)
			}
			if !types.VerbosityLevel(sec.Level).Valid() {
				fail("verbosity[%d].sections[%d].level: must be 0-4, got %d", i, j, sec.Level)
			}
		}
	}

	for i, q := range s.CustomQueries {
		if q.Pattern == "" {
			fail("custom_queries[%d].pattern: must not be empty", i)
		}
		if q.Query == "" {
			fail("custom_queries[%d].query: must not be empty", i)
		}
	}

	return errors.Join(errs...)
}

func cloneSpec(s Spec) Spec {
	out := Spec{
		Budget:        s.Budget,
		Verbosity:     cloneRules(s.Verbosity),
		CustomQueries: append([]CustomQuery(nil), s.CustomQueries...),
	}
	if s.Focus != nil {
		f := cloneFocus(*s.Focus)
		out.Focus = &f
	}
	return out
}

func cloneFocus(f Focus) Focus {
	return Focus{
		Paths:   append([]PathBoost(nil), f.Paths...),
		Symbols: append([]SymbolBoost(nil), f.Symbols...),
	}
}

func cloneRules(rules []VerbosityRule) []VerbosityRule {
	if rules == nil {
		return nil
	}
	out := make([]VerbosityRule, len(rules))
	for i, r := range rules {
		out[i] = VerbosityRule{Pattern: r.Pattern}
		if r.Level != nil {
			l := *r.Level
			out[i].Level = &l
		}
		if r.Sections != nil {
			out[i].Sections = append([]SectionRule{}, r.Sections...)
		}
	}
	return out
}
