// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package quality computes ranked-retrieval and system-health metrics from
// the recommendation log history, detecting model drift.
//
// Snapshots are recomputed on demand over the full history; there is no
// incremental state and no windowing. Entries with missing or unparseable
// recommendation/purchase fields score (0, 0) rather than being excluded,
// deliberately biasing aggregates toward zero on bad data so historical
// thresholds stay comparable.
//
// Threshold breaches produce advisory warnings only; they never block
// serving. A storage failure while computing one sub-metric degrades that
// aggregate to zero with a logged cause instead of failing the snapshot.
package quality
