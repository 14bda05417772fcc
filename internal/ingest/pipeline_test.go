// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlift/basketlift/internal/config"
	"github.com/basketlift/basketlift/internal/database"
	"github.com/basketlift/basketlift/internal/models"
)

type mockWriter struct {
	batches [][]database.IngestedTransaction
	failOn  int // 1-based batch index to fail on, 0 disables
}

func (m *mockWriter) InsertTransactionBatch(_ context.Context, batch []database.IngestedTransaction) error {
	if m.failOn > 0 && len(m.batches)+1 == m.failOn {
		return errors.New("disk full")
	}
	copied := make([]database.IngestedTransaction, len(batch))
	copy(copied, batch)
	m.batches = append(m.batches, copied)
	return nil
}

func (m *mockWriter) all() []database.IngestedTransaction {
	var out []database.IngestedTransaction
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func newTestPipeline(cfg config.IngestConfig, store TransactionWriter) *Pipeline {
	return NewPipeline(cfg, store, zerolog.Nop())
}

func TestIngestGroupsByTransactionID(t *testing.T) {
	store := &mockWriter{}
	p := newTestPipeline(config.IngestConfig{ChunkSize: 100}, store)

	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	rows := []RawRow{
		{TransactionID: "1001", ProductName: "Milk", CustomerID: "c-77", Timestamp: at},
		{TransactionID: "1001", ProductName: "Bread", CustomerID: "c-77", Timestamp: at},
		{TransactionID: "1002", ProductName: "Eggs", CustomerID: "c-12", Timestamp: at},
		{TransactionID: "1001", ProductName: "Butter", CustomerID: "c-77", Timestamp: at},
	}

	res, err := p.Ingest(context.Background(), rows)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.Transactions != 2 {
		t.Errorf("Transactions = %d, want 2", res.Transactions)
	}

	got := store.all()
	if len(got) != 2 {
		t.Fatalf("written transactions = %d, want 2", len(got))
	}
	first := got[0]
	if len(first.Products) != 3 || first.Products[0] != "Milk" || first.Products[1] != "Bread" || first.Products[2] != "Butter" {
		t.Errorf("first products = %v, want [Milk Bread Butter]", first.Products)
	}
	if first.Status != models.AnonymizationSuccess {
		t.Errorf("first status = %q, want %q", first.Status, models.AnonymizationSuccess)
	}
	if !first.Timestamp.Equal(at) {
		t.Errorf("first timestamp = %v, want %v", first.Timestamp, at)
	}
}

func TestIngestDropsDuplicateAndBlankProducts(t *testing.T) {
	store := &mockWriter{}
	p := newTestPipeline(config.IngestConfig{ChunkSize: 100}, store)

	rows := []RawRow{
		{TransactionID: "1", ProductName: "Milk"},
		{TransactionID: "1", ProductName: "  milk  "},
		{TransactionID: "1", ProductName: "   "},
		{TransactionID: "1", ProductName: "Bread"},
	}
	if _, err := p.Ingest(context.Background(), rows); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	got := store.all()
	if len(got) != 1 {
		t.Fatalf("written transactions = %d, want 1", len(got))
	}
	if len(got[0].Products) != 2 || got[0].Products[0] != "Milk" || got[0].Products[1] != "Bread" {
		t.Errorf("products = %v, want [Milk Bread]", got[0].Products)
	}
}

func TestIngestEmptyTransactionMarkedFailed(t *testing.T) {
	store := &mockWriter{}
	p := newTestPipeline(config.IngestConfig{ChunkSize: 100}, store)

	rows := []RawRow{
		{TransactionID: "1", ProductName: ""},
		{TransactionID: "2", ProductName: "Eggs"},
	}
	res, err := p.Ingest(context.Background(), rows)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}

	got := store.all()
	if len(got) != 2 {
		t.Fatalf("written transactions = %d, want 2", len(got))
	}
	if got[0].Status != models.AnonymizationFailed {
		t.Errorf("empty transaction status = %q, want %q", got[0].Status, models.AnonymizationFailed)
	}
	if got[1].Status != models.AnonymizationSuccess {
		t.Errorf("second status = %q, want %q", got[1].Status, models.AnonymizationSuccess)
	}
}

func TestIngestChunking(t *testing.T) {
	store := &mockWriter{}
	p := newTestPipeline(config.IngestConfig{ChunkSize: 2}, store)

	rows := []RawRow{
		{TransactionID: "1", ProductName: "a"},
		{TransactionID: "2", ProductName: "b"},
		{TransactionID: "3", ProductName: "c"},
		{TransactionID: "4", ProductName: "d"},
		{TransactionID: "5", ProductName: "e"},
	}
	res, err := p.Ingest(context.Background(), rows)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.Chunks != 3 {
		t.Errorf("Chunks = %d, want 3", res.Chunks)
	}
	if len(store.batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(store.batches))
	}
	if len(store.batches[2]) != 1 {
		t.Errorf("final batch size = %d, want 1", len(store.batches[2]))
	}
}

func TestIngestChunkFailureAbortsRun(t *testing.T) {
	store := &mockWriter{failOn: 2}
	p := newTestPipeline(config.IngestConfig{ChunkSize: 1}, store)

	rows := []RawRow{
		{TransactionID: "1", ProductName: "a"},
		{TransactionID: "2", ProductName: "b"},
		{TransactionID: "3", ProductName: "c"},
	}
	res, err := p.Ingest(context.Background(), rows)
	if err == nil {
		t.Fatal("Ingest() error = nil, want chunk write failure")
	}
	if res.Transactions != 1 {
		t.Errorf("Transactions = %d, want 1 (written before failure)", res.Transactions)
	}
	if len(store.batches) != 1 {
		t.Errorf("batches = %d, want 1", len(store.batches))
	}
}

func TestIngestSkipsBlankTransactionIDs(t *testing.T) {
	store := &mockWriter{}
	p := newTestPipeline(config.IngestConfig{ChunkSize: 100}, store)

	rows := []RawRow{
		{TransactionID: "", ProductName: "Milk"},
		{TransactionID: "  ", ProductName: "Bread"},
	}
	res, err := p.Ingest(context.Background(), rows)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.Transactions != 0 {
		t.Errorf("Transactions = %d, want 0", res.Transactions)
	}
}

func TestIngestNoRows(t *testing.T) {
	store := &mockWriter{}
	p := newTestPipeline(config.IngestConfig{ChunkSize: 100}, store)

	res, err := p.Ingest(context.Background(), nil)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.Transactions != 0 || res.Chunks != 0 {
		t.Errorf("Result = %+v, want zero", res)
	}
}

func TestIngestMissingTimestampDefaults(t *testing.T) {
	store := &mockWriter{}
	p := newTestPipeline(config.IngestConfig{ChunkSize: 100}, store)

	before := time.Now().UTC()
	if _, err := p.Ingest(context.Background(), []RawRow{{TransactionID: "1", ProductName: "Milk"}}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	got := store.all()
	if len(got) != 1 {
		t.Fatalf("written transactions = %d, want 1", len(got))
	}
	if got[0].Timestamp.Before(before) {
		t.Errorf("timestamp = %v, want >= %v", got[0].Timestamp, before)
	}
}
