// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package models

import "time"

// Anonymization log statuses.
const (
	AnonymizationSuccess = "Success"
	AnonymizationFailed  = "Failed"
)

// Transaction is one completed retail purchase: an identifier, the purchased
// product names, and when it happened. Products are deduplicated before
// mining; order is irrelevant. Transactions are immutable once persisted.
type Transaction struct {
	ID       int64     `json:"transaction_id"`
	Products []string  `json:"products"`
	DateTime time.Time `json:"datetime"`
}

// AssociationRule is a mined co-purchase rule: if a basket contains the
// antecedents, the consequents are likely to be purchased too.
//
// Support is the fraction of transactions containing both sides, confidence
// the conditional probability of the consequents given the antecedents, lift
// the ratio of observed to expected co-occurrence (1.0 = independence), and
// leverage the absolute difference between observed and expected co-occurrence.
type AssociationRule struct {
	Antecedents []string `json:"antecedents"`
	Consequents []string `json:"consequents"`
	Support     float64  `json:"support"`
	Confidence  float64  `json:"confidence"`
	Lift        float64  `json:"lift"`
	Leverage    float64  `json:"leverage"`
}

// RecommendationLog records what was recommended versus what was actually
// purchased at one checkout. Append-only; read back by the quality monitor.
type RecommendationLog struct {
	TransactionID    string    `json:"transaction_id"`
	RecommendedItems []string  `json:"recommended_items"`
	PurchasedItems   []string  `json:"purchased_items"`
	Timestamp        time.Time `json:"timestamp"`
}

// AnonymizationLog records the outcome of stripping customer identifiers
// from one ingested transaction. Status is Success or Failed.
type AnonymizationLog struct {
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"anonymization_timestamp"`
	Status        string    `json:"status"`
}
