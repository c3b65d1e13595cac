/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package similarity provides the scoring primitives used by the trace
// differ, snapshot comparison, and trace comparison evaluator.
//
// Two distinct sequence metrics co-exist on purpose: Levenshtein is a true
// edit-distance similarity used for tool sequences in the comparison
// evaluator, while Sequence is a weaker index-wise equality ratio used for
// snapshot comparison. They are not interchangeable.
package similarity

import "strings"

// Levenshtein computes the edit distance between two token sequences.
// Substitution, insertion, and deletion all cost 1.
func Levenshtein(a, b []string) int {
	m, n := len(a), len(b)

	// Single-row dynamic programming, O(len(b)) space.
	dp := make([]int, n+1)
	for j := range dp {
		dp[j] = j
	}

	for i := 1; i <= m; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= n; j++ {
			tmp := dp[j]
			if a[i-1] == b[j-1] {
				dp[j] = prev
			} else {
				dp[j] = 1 + min(prev, dp[j], dp[j-1])
			}
			prev = tmp
		}
	}

	return dp[n]
}

// LevenshteinSimilarity normalizes the edit distance into [0, 1].
// Two empty sequences are identical, so the similarity is 1.
func LevenshteinSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	maxLen := max(len(a), len(b))
	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}

// Jaccard computes |A∩B| / |A∪B| over two string sets.
// It is 1 when both sets are empty and 0 when exactly one is.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// KeywordOverlap case-folds both texts, splits them on whitespace, and
// returns the Jaccard similarity of the resulting word sets.
func KeywordOverlap(a, b string) float64 {
	return Jaccard(wordSet(a), wordSet(b))
}

// Sequence computes the fraction of index-wise equal elements over the
// longer sequence's length. Unlike Levenshtein it is not alignment-aware:
// a single inserted element misaligns everything after it.
func Sequence(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	matches := 0
	for i := 0; i < min(len(a), len(b)); i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(max(len(a), len(b)))
}

// Ratio computes min(a,b)/max(a,b) for non-negative quantities such as
// token counts or latencies. Both zero compares as identical.
func Ratio(a, b int64) float64 {
	if a == 0 && b == 0 {
		return 1.0
	}
	if a == 0 || b == 0 {
		return 0.0
	}
	return float64(min(a, b)) / float64(max(a, b))
}

// wordSet lowercases the text and splits it into a set of words
func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
