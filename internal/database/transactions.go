// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/basketlift/basketlift/internal/models"
)

// IngestedTransaction is one anonymized transaction ready for bulk insert,
// together with the anonymization outcome to audit.
type IngestedTransaction struct {
	Products  []string
	Timestamp time.Time
	Status    string
}

// InsertTransaction persists one transaction and returns its generated id.
func (db *DB) InsertTransaction(ctx context.Context, products []string, at time.Time) (id int64, err error) {
	done := track("insert", "transactions")
	defer func() { done(err) }()

	row := db.conn.QueryRowContext(ctx,
		`INSERT INTO transactions (products, datetime) VALUES (?, ?) RETURNING transaction_id`,
		models.JoinItems(products), at)
	if err = row.Scan(&id); err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

// InsertTransactionBatch bulk-inserts anonymized transactions with their
// anonymization log entries in one SQL transaction. A failure rolls the
// whole chunk back; nothing partially commits.
func (db *DB) InsertTransactionBatch(ctx context.Context, batch []IngestedTransaction) (err error) {
	if len(batch) == 0 {
		return nil
	}

	done := track("batch_insert", "transactions")
	defer func() { done(err) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		insertTxn, err := tx.PrepareContext(ctx,
			`INSERT INTO transactions (products, datetime) VALUES (?, ?) RETURNING transaction_id`)
		if err != nil {
			return fmt.Errorf("prepare transaction insert: %w", err)
		}
		defer insertTxn.Close() //nolint:errcheck // read-side close

		insertAudit, err := tx.PrepareContext(ctx,
			`INSERT INTO anonymization_logs (transaction_id, anonymization_timestamp, status) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare anonymization insert: %w", err)
		}
		defer insertAudit.Close() //nolint:errcheck // read-side close

		for _, entry := range batch {
			var id int64
			if err := insertTxn.QueryRowContext(ctx, models.JoinItems(entry.Products), entry.Timestamp).Scan(&id); err != nil {
				return fmt.Errorf("insert transaction: %w", err)
			}
			if _, err := insertAudit.ExecContext(ctx, id, entry.Timestamp, entry.Status); err != nil {
				return fmt.Errorf("insert anonymization log: %w", err)
			}
		}
		return nil
	})
	return err
}

// Transactions returns the full transaction history. Product lists come
// back decoded; blank rows decode to empty sets.
func (db *DB) Transactions(ctx context.Context) (txns []models.Transaction, err error) {
	done := track("select", "transactions")
	defer func() { done(err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT transaction_id, products, datetime FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-side close

	for rows.Next() {
		var (
			txn      models.Transaction
			products sql.NullString
		)
		if err = rows.Scan(&txn.ID, &products, &txn.DateTime); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txn.Products = models.SplitItems(products.String)
		txns = append(txns, txn)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}

// TransactionCount returns how many transactions are stored.
func (db *DB) TransactionCount(ctx context.Context) (n int, err error) {
	done := track("count", "transactions")
	defer func() { done(err) }()

	if err = db.conn.QueryRowContext(ctx, `SELECT count(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// ClearTransactions removes all transactions and their anonymization logs,
// atomically. Used before a full historical re-ingest.
func (db *DB) ClearTransactions(ctx context.Context) (err error) {
	done := track("delete", "transactions")
	defer func() { done(err) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM anonymization_logs`); err != nil {
			return fmt.Errorf("clear anonymization logs: %w", err)
		}
		return nil
	})
	return err
}
