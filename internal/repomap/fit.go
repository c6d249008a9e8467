// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/petar-djukic/repo-map/pkg/types"
)

const (
	maxLineLength   = 100
	charsPerTagHint = 25
	fitTolerance    = 0.15
)

// toTree renders a prefix of ranked entries. Entries are grouped by file
// in path order; a file with tags renders as an excerpt under a "file:"
// header and a placeholder renders as its bare path.
func (e *Engine) toTree(ctx context.Context, entries []types.RankedEntry) string {
	if len(entries) == 0 {
		return ""
	}
	sorted := append([]types.RankedEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}
		return sorted[i].IsFileOnly() && !sorted[j].IsFileOnly()
	})

	var b strings.Builder
	for i := 0; i < len(sorted); {
		file := sorted[i].File
		var abs string
		var lois []int
		placeholder := false
		j := i
		for ; j < len(sorted) && sorted[j].File == file; j++ {
			entry := sorted[j]
			if entry.IsFileOnly() {
				placeholder = true
				continue
			}
			abs = entry.AbsFile
			lois = append(lois, entry.Lines...)
		}
		i = j

		if len(lois) == 0 {
			if placeholder {
				b.WriteString("\n" + file + "\n")
			}
			continue
		}
		b.WriteString("\n" + file + ":\n")
		b.WriteString(e.renderExcerpt(ctx, abs, lois))
	}

	return truncateLines(b.String())
}

// truncateLines caps every line at maxLineLength runes.
func truncateLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if r := []rune(l); len(r) > maxLineLength {
			lines[i] = string(r[:maxLineLength])
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// fitBudget binary-searches the prefix length of entries whose rendering
// best fills budget tokens. A prefix within fitTolerance of the budget ends
// the search. It returns the rendering and the prefix length, or "" when
// no prefix fits.
func (e *Engine) fitBudget(ctx context.Context, entries []types.RankedEntry, budget int) (string, int, error) {
	n := len(entries)
	if n == 0 || budget <= 0 {
		return "", 0, nil
	}

	lower, upper := 0, n
	middle := budget / charsPerTagHint
	if middle > n {
		middle = n
	}

	best, bestTokens, bestLen := "", 0, 0
	for lower <= upper {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		tree := e.toTree(ctx, entries[:middle])
		tokens := types.EstimateTokens(tree)
		pctErr := math.Abs(float64(tokens-budget)) / float64(budget)

		if (tokens <= budget && tokens > bestTokens) || pctErr < fitTolerance {
			best, bestTokens, bestLen = tree, tokens, middle
			if pctErr < fitTolerance {
				break
			}
		}

		if tokens < budget {
			lower = middle + 1
		} else {
			upper = middle - 1
		}
		middle = (lower + upper) / 2
	}

	e.log.Debug().Int("budget", budget).Int("tokens", bestTokens).Msg("fitted map to budget")
	return best, bestLen, nil
}
