// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/basketlift/basketlift/internal/config"
	"github.com/basketlift/basketlift/internal/database"
	"github.com/basketlift/basketlift/internal/metrics"
	"github.com/basketlift/basketlift/internal/models"
)

// RawRow is one line item from a retail export. CustomerID is accepted so
// callers can hand over unredacted rows; it is dropped before anything is
// persisted.
type RawRow struct {
	TransactionID string
	ProductName   string
	CustomerID    string
	Timestamp     time.Time
}

// TransactionWriter is the storage contract the pipeline writes through.
type TransactionWriter interface {
	InsertTransactionBatch(ctx context.Context, batch []database.IngestedTransaction) error
}

// Result summarizes one ingestion run.
type Result struct {
	// Transactions is how many grouped transactions were written.
	Transactions int `json:"transactions"`

	// Failed counts transactions whose rows carried no usable product
	// names. These are still written, with a Failed anonymization status.
	Failed int `json:"failed"`

	// Chunks is how many storage transactions the run used.
	Chunks int `json:"chunks"`
}

// Pipeline groups, anonymizes, and batch-writes raw rows.
type Pipeline struct {
	config  config.IngestConfig
	store   TransactionWriter
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewPipeline builds a pipeline. A positive ChunksPerSecond installs a rate
// limiter so bulk loads do not starve concurrent checkout writes.
//
//nolint:gocritic // logger passed by value
func NewPipeline(cfg config.IngestConfig, store TransactionWriter, logger zerolog.Logger) *Pipeline {
	p := &Pipeline{
		config: cfg,
		store:  store,
		logger: logger.With().Str("component", "ingest").Logger(),
	}
	if cfg.ChunksPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.ChunksPerSecond), 1)
	}
	return p
}

// Ingest anonymizes and persists a slice of raw rows. Rows sharing a
// transaction identifier collapse into one transaction whose products keep
// first-seen order and casing. Each chunk commits or rolls back whole; a
// chunk failure aborts the run and reports what was written so far.
func (p *Pipeline) Ingest(ctx context.Context, rows []RawRow) (Result, error) {
	var res Result
	if len(rows) == 0 {
		return res, nil
	}

	start := time.Now()
	groups := p.group(rows)

	chunkSize := p.config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(groups)
	}

	for offset := 0; offset < len(groups); offset += chunkSize {
		end := offset + chunkSize
		if end > len(groups) {
			end = len(groups)
		}
		chunk := groups[offset:end]

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				metrics.IngestChunks.WithLabelValues("failed").Inc()
				return res, fmt.Errorf("ingest pacing: %w", err)
			}
		}

		if err := p.store.InsertTransactionBatch(ctx, chunk); err != nil {
			metrics.IngestChunks.WithLabelValues("failed").Inc()
			return res, fmt.Errorf("write ingest chunk: %w", err)
		}

		metrics.IngestChunks.WithLabelValues("success").Inc()
		metrics.IngestedTransactions.Add(float64(len(chunk)))
		res.Chunks++
		res.Transactions += len(chunk)
		for _, entry := range chunk {
			if entry.Status == models.AnonymizationFailed {
				res.Failed++
			}
		}
	}

	p.logger.Info().
		Int("rows", len(rows)).
		Int("transactions", res.Transactions).
		Int("failed", res.Failed).
		Int("chunks", res.Chunks).
		Dur("elapsed", time.Since(start)).
		Msg("Ingestion complete")
	return res, nil
}

// group collapses rows into per-transaction records, preserving the order
// transactions first appear in the input. Dropping CustomerID here is the
// anonymization step; it never reaches a record.
func (p *Pipeline) group(rows []RawRow) []database.IngestedTransaction {
	type bucket struct {
		products []string
		seen     map[string]struct{}
		at       time.Time
	}

	index := make(map[string]*bucket)
	var order []string

	for _, row := range rows {
		id := strings.TrimSpace(row.TransactionID)
		if id == "" {
			continue
		}
		b, ok := index[id]
		if !ok {
			b = &bucket{seen: make(map[string]struct{})}
			index[id] = b
			order = append(order, id)
		}
		if b.at.IsZero() && !row.Timestamp.IsZero() {
			b.at = row.Timestamp
		}
		name := strings.TrimSpace(row.ProductName)
		if name == "" {
			continue
		}
		key := models.NormalizeItem(name)
		if _, dup := b.seen[key]; dup {
			continue
		}
		b.seen[key] = struct{}{}
		b.products = append(b.products, name)
	}

	now := time.Now().UTC()
	out := make([]database.IngestedTransaction, 0, len(order))
	for _, id := range order {
		b := index[id]
		at := b.at
		if at.IsZero() {
			at = now
		}
		status := models.AnonymizationSuccess
		if len(b.products) == 0 {
			status = models.AnonymizationFailed
		}
		out = append(out, database.IngestedTransaction{
			Products:  b.products,
			Timestamp: at,
			Status:    status,
		})
	}
	return out
}
