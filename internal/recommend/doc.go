// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package recommend serves "customers who bought X also bought Y"
// suggestions for a live checkout basket.
//
// # Snapshot model
//
// The engine holds a read-only snapshot of the active rule set behind an
// atomic pointer. Serving reads whichever snapshot is current; Reload swaps
// in a complete new set after a finished retrain. Readers therefore see
// either the old complete rule set or the new complete one, never a partial
// one. The staleness window between retrain completion and reload is
// deliberate.
//
// # Matching
//
// A rule is selected when its antecedent set merely intersects the basket;
// full antecedent containment is not required. This favors recall: a
// partial basket overlap is enough to surface a suggestion. Matching is
// case-insensitive, output preserves the rule's original item casing.
//
// # Degradation
//
// Recommendations are an enhancement, never a checkout blocker. A failed
// reload keeps the previous snapshot, and reloads run through a circuit
// breaker so a flapping store cannot stall serving.
package recommend
