// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package training drives the mining lifecycle end to end.
//
// A run loads the transaction corpus, mines frequent itemsets, generates
// and filters association rules, and replaces the persisted rule set in a
// single storage transaction before asking the serving engine to reload.
// Exactly one run may be active at a time; a second call is rejected
// rather than queued. A failed or cancelled run leaves the previously
// active rule set untouched.
package training
