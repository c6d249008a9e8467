// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "unicode/utf8"

// CharsPerToken is the fixed characters-per-token ratio used for every
// estimate in repo-map.
const CharsPerToken = 4

// EstimateTokens returns the estimated token count of text: its length in
// characters divided by CharsPerToken, rounded down.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / CharsPerToken
}
