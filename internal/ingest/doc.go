// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package ingest turns raw retail rows into canonical transactions.
//
// Raw exports arrive as one row per line item, keyed by a transaction
// identifier and carrying a product name plus an optional customer
// identifier. The pipeline anonymizes rows by dropping the customer
// identifier, discards blank product cells, groups surviving rows into
// per-transaction item sets, and writes them to storage in paced chunks
// with one anonymization audit entry per transaction.
package ingest
