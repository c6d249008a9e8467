// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package flightplan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// document mirrors Spec with pointer fields so an explicit zero in YAML is
// rejected instead of silently replaced by a default.
type document struct {
	Budget        *int            `yaml:"budget"`
	Focus         *focusDocument  `yaml:"focus"`
	Verbosity     []VerbosityRule `yaml:"verbosity"`
	CustomQueries []CustomQuery   `yaml:"custom_queries"`
}

type focusDocument struct {
	Paths []struct {
		Pattern string   `yaml:"pattern"`
		Weight  *float64 `yaml:"weight"`
	} `yaml:"paths"`
	Symbols []struct {
		Name   string   `yaml:"name"`
		Weight *float64 `yaml:"weight"`
	} `yaml:"symbols"`
}

// Parse decodes and validates a flight plan from YAML. Unknown fields are
// rejected. An empty document yields the default plan.
func Parse(data []byte) (*FlightPlan, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: invalid YAML: %v", ErrInvalidPlan, err)
	}

	spec := Spec{
		Verbosity:     doc.Verbosity,
		CustomQueries: doc.CustomQueries,
	}

	var errs []error
	if doc.Budget != nil {
		if *doc.Budget <= 0 {
			errs = append(errs, fmt.Errorf("%w: budget: must be greater than 0, got %d", ErrInvalidPlan, *doc.Budget))
		}
		spec.Budget = *doc.Budget
	}

	if doc.Focus != nil {
		spec.Focus = &Focus{}
		for i, p := range doc.Focus.Paths {
			b := PathBoost{Pattern: p.Pattern, Weight: DefaultBoostWeight}
			if p.Weight != nil {
				if *p.Weight <= 0 {
					errs = append(errs, fmt.Errorf("%w: focus.paths[%d].weight: must be greater than 0, got %g", ErrInvalidPlan, i, *p.Weight))
				}
				b.Weight = *p.Weight
			}
			spec.Focus.Paths = append(spec.Focus.Paths, b)
		}
		for i, s := range doc.Focus.Symbols {
			b := SymbolBoost{Name: s.Name, Weight: DefaultBoostWeight}
			if s.Weight != nil {
				if *s.Weight <= 0 {
					errs = append(errs, fmt.Errorf("%w: focus.symbols[%d].weight: must be greater than 0, got %g", ErrInvalidPlan, i, *s.Weight))
				}
				b.Weight = *s.Weight
			}
			spec.Focus.Symbols = append(spec.Focus.Symbols, b)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return New(spec)
}

// Load reads and parses the flight plan at path.
func Load(path string) (*FlightPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, path)
		}
		return nil, fmt.Errorf("reading flight plan: %w", err)
	}
	return Parse(data)
}

// YAML serializes the plan. Defaults are written out explicitly.
func (p *FlightPlan) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p.spec); err != nil {
		return nil, fmt.Errorf("encoding flight plan: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding flight plan: %w", err)
	}
	return buf.Bytes(), nil
}
