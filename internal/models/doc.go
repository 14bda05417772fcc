// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package models defines the domain records shared across Basketlift:
// retail transactions, mined association rules, recommendation logs, and
// anonymization logs. The persisted wire forms (comma-and-space-joined item
// lists, the literal "None" for an empty list) live here so storage, serving,
// and quality monitoring all agree on one encoding.
package models
