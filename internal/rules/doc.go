// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package rules derives association rules from mined frequent itemsets.
//
// Every itemset of size two or more is split into every non-trivial
// (antecedent, consequent) bipartition. Support, confidence, lift, and
// leverage are computed from subset supports already present in the mined
// result (downward closure guarantees they exist). Rules whose lift does
// not strictly exceed the metric floor are discarded at generation time:
// a consequent no more likely than its base rate is not a recommendation.
//
// Ordering is lift-descending with a stable tie-break on generation order,
// so identical input always yields an identically ordered rule list.
package rules
