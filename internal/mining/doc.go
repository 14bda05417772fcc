// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package mining implements frequent itemset mining over retail transactions
// using the FP-Growth algorithm.
//
// FP-Growth avoids the candidate-generation explosion of naive
// generate-and-test approaches by compressing the corpus into a prefix tree
// (FP-tree) ordered by descending global item frequency, then recursively
// mining conditional trees per item. Cost is driven by item cardinality and
// the support threshold rather than transaction count alone.
//
// # Determinism
//
// Conditional trees for independent header-table branches are mined
// concurrently by a bounded worker pool. Results are merged and sorted
// (support descending, then canonical item order) so output never depends
// on traversal or scheduling order.
//
// # Guarantees
//
//   - Every reported itemset has support >= the requested minimum.
//   - Every subset of a reported itemset is also reported, at its own
//     support (downward closure).
//   - The empty itemset is never reported.
package mining
