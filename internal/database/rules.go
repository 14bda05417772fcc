// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/basketlift/basketlift/internal/models"
	"github.com/basketlift/basketlift/internal/quality"
)

// ReplaceRules swaps the entire rule set in one SQL transaction. Rules are
// inserted in the order given so that later scans preserve the ranking
// (the store is opened with preserve_insertion_order enabled).
func (db *DB) ReplaceRules(ctx context.Context, rules []models.AssociationRule) (err error) {
	done := track("replace", "association_rules")
	defer func() { done(err) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM association_rules`); err != nil {
			return fmt.Errorf("clear rules: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO association_rules
			(antecedents, consequents, support, confidence, lift, leverage)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare rule insert: %w", err)
		}
		defer stmt.Close() //nolint:errcheck // read-side close

		for _, r := range rules {
			if _, err := stmt.ExecContext(ctx,
				models.JoinItems(r.Antecedents), models.JoinItems(r.Consequents),
				r.Support, r.Confidence, r.Lift, r.Leverage); err != nil {
				return fmt.Errorf("insert rule: %w", err)
			}
		}
		return nil
	})
	return err
}

// LoadRules returns the persisted rule set in stored order. Satisfies the
// recommendation engine's rule source contract.
func (db *DB) LoadRules(ctx context.Context) (rules []models.AssociationRule, err error) {
	done := track("select", "association_rules")
	defer func() { done(err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT antecedents, consequents,
		support, confidence, lift, leverage FROM association_rules`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-side close

	for rows.Next() {
		var (
			r            models.AssociationRule
			ants, conseq sql.NullString
		)
		if err = rows.Scan(&ants, &conseq, &r.Support, &r.Confidence, &r.Lift, &r.Leverage); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.Antecedents = models.SplitItems(ants.String)
		r.Consequents = models.SplitItems(conseq.String)
		rules = append(rules, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

// RuleCount returns how many rules are stored.
func (db *DB) RuleCount(ctx context.Context) (n int, err error) {
	done := track("count", "association_rules")
	defer func() { done(err) }()

	if err = db.conn.QueryRowContext(ctx, `SELECT count(*) FROM association_rules`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rules: %w", err)
	}
	return n, nil
}

// RuleMetricRows returns the stored rule metric columns with NULLs kept
// distinct from zero values, for transparency scoring.
func (db *DB) RuleMetricRows(ctx context.Context) (metricRows []quality.RuleMetricsRow, err error) {
	done := track("select_metrics", "association_rules")
	defer func() { done(err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT support, confidence, lift FROM association_rules`)
	if err != nil {
		return nil, fmt.Errorf("query rule metrics: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-side close

	for rows.Next() {
		var r quality.RuleMetricsRow
		if err = rows.Scan(&r.Support, &r.Confidence, &r.Lift); err != nil {
			return nil, fmt.Errorf("scan rule metrics: %w", err)
		}
		metricRows = append(metricRows, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule metrics: %w", err)
	}
	return metricRows, nil
}
