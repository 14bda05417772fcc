// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package quality

// PrecisionAtK is |recommended[:k] ∩ purchased| / k. A k of zero scores
// 0.0 by definition rather than dividing by zero.
func PrecisionAtK(recommended, purchased []string, k int) float64 {
	if k <= 0 {
		return 0.0
	}
	if k > len(recommended) {
		k = len(recommended)
	}
	if k == 0 {
		return 0.0
	}
	return float64(intersectionSize(recommended[:k], purchased)) / float64(k)
}

// RecallAtK is |recommended[:k] ∩ purchased| / |purchased|, or 0.0 when
// nothing was purchased.
func RecallAtK(recommended, purchased []string, k int) float64 {
	if len(purchased) == 0 {
		return 0.0
	}
	if k > len(recommended) {
		k = len(recommended)
	}
	if k <= 0 {
		return 0.0
	}
	return float64(intersectionSize(recommended[:k], purchased)) / float64(len(purchased))
}

// intersectionSize counts distinct items present in both lists. Exact-name
// set semantics, matching how the logs were scored historically.
func intersectionSize(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}

	n := 0
	seen := make(map[string]struct{}, len(b))
	for _, item := range b {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		if _, ok := set[item]; ok {
			n++
		}
	}
	return n
}
