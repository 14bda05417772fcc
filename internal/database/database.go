// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package database is the DuckDB-backed storage adapter for Basketlift's
// four record types: transactions, anonymization logs, association rules,
// and recommendation logs.
//
// Writes that span multiple records (checkout logging, bulk ingestion,
// rule replacement) run inside one SQL transaction: a failed batch never
// partially commits. The active rule set is replaced wholesale on retrain;
// rules are never merged incrementally.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/basketlift/basketlift/internal/config"
	"github.com/basketlift/basketlift/internal/logging"
	"github.com/basketlift/basketlift/internal/metrics"
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	if cfg.Path != ":memory:" {
		// The driver does not create parent directories itself.
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
	}

	// preserve_insertion_order keeps scans in insert order, which is how
	// the persisted rule set retains its lift-descending ranking.
	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s&preserve_insertion_order=true",
		cfg.Path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initSchema(context.Background()); err != nil {
		_ = conn.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", threads).Msg("database ready")
	return db, nil
}

// Close releases the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// initSchema creates the four tables and their id sequences if absent.
func (db *DB) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_transaction_id START 1`,
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id BIGINT PRIMARY KEY DEFAULT nextval('seq_transaction_id'),
			products       TEXT NOT NULL,
			datetime       TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS anonymization_logs (
			transaction_id          BIGINT,
			anonymization_timestamp TIMESTAMP NOT NULL,
			status                  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS association_rules (
			antecedents TEXT NOT NULL,
			consequents TEXT NOT NULL,
			support     DOUBLE,
			confidence  DOUBLE,
			lift        DOUBLE,
			leverage    DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS recommendation_logs (
			transaction_id    TEXT,
			recommended_items TEXT,
			purchased_items   TEXT,
			timestamp         TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// withTx runs fn inside one SQL transaction, rolling back on any error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// track instruments one storage operation. Call the returned func with the
// operation's error.
func track(operation, table string) func(error) {
	start := time.Now()
	return func(err error) {
		metrics.ObserveDBQuery(operation, table, start)
		if err != nil {
			metrics.DBQueryErrors.WithLabelValues(operation, table).Inc()
		}
	}
}
