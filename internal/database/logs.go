// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/basketlift/basketlift/internal/models"
)

// SaveCheckout records a completed checkout in one SQL transaction: the
// purchased basket as a new transaction row, a Success anonymization log
// for it, and a recommendation log pairing what was suggested with what
// was actually bought. All three commit or none do.
func (db *DB) SaveCheckout(ctx context.Context, recommended, purchased []string, at time.Time) (id int64, err error) {
	done := track("checkout", "recommendation_logs")
	defer func() { done(err) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`INSERT INTO transactions (products, datetime) VALUES (?, ?) RETURNING transaction_id`,
			models.JoinItems(purchased), at)
		if err := row.Scan(&id); err != nil {
			return fmt.Errorf("insert checkout transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO anonymization_logs (transaction_id, anonymization_timestamp, status) VALUES (?, ?, ?)`,
			id, at, models.AnonymizationSuccess); err != nil {
			return fmt.Errorf("insert anonymization log: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommendation_logs (transaction_id, recommended_items, purchased_items, timestamp) VALUES (?, ?, ?, ?)`,
			strconv.FormatInt(id, 10), models.JoinItems(recommended), models.JoinItems(purchased), at); err != nil {
			return fmt.Errorf("insert recommendation log: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// RecommendationLogs returns all recommendation log entries in stored order.
func (db *DB) RecommendationLogs(ctx context.Context) (logs []models.RecommendationLog, err error) {
	done := track("select", "recommendation_logs")
	defer func() { done(err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT transaction_id,
		recommended_items, purchased_items, timestamp FROM recommendation_logs`)
	if err != nil {
		return nil, fmt.Errorf("query recommendation logs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-side close

	for rows.Next() {
		var (
			entry              models.RecommendationLog
			recItems, purItems sql.NullString
		)
		if err = rows.Scan(&entry.TransactionID, &recItems, &purItems, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan recommendation log: %w", err)
		}
		entry.RecommendedItems = models.SplitItems(recItems.String)
		entry.PurchasedItems = models.SplitItems(purItems.String)
		logs = append(logs, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendation logs: %w", err)
	}
	return logs, nil
}

// AnonymizationStatuses returns the status column of every anonymization
// log entry, for success-rate scoring.
func (db *DB) AnonymizationStatuses(ctx context.Context) (statuses []string, err error) {
	done := track("select", "anonymization_logs")
	defer func() { done(err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT status FROM anonymization_logs`)
	if err != nil {
		return nil, fmt.Errorf("query anonymization logs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-side close

	for rows.Next() {
		var status string
		if err = rows.Scan(&status); err != nil {
			return nil, fmt.Errorf("scan anonymization log: %w", err)
		}
		statuses = append(statuses, status)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anonymization logs: %w", err)
	}
	return statuses, nil
}
