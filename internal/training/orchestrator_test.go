// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package training

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlift/basketlift/internal/config"
	"github.com/basketlift/basketlift/internal/mining"
	"github.com/basketlift/basketlift/internal/models"
	"github.com/basketlift/basketlift/internal/rules"
)

type mockSource struct {
	txns    []models.Transaction
	err     error
	block   chan struct{} // when set, Transactions blocks until closed
	calls   int
	callsMu sync.Mutex
}

func (m *mockSource) Transactions(ctx context.Context) ([]models.Transaction, error) {
	m.callsMu.Lock()
	m.calls++
	m.callsMu.Unlock()
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.txns, nil
}

type mockSink struct {
	mu       sync.Mutex
	replaced [][]models.AssociationRule
	err      error
}

func (m *mockSink) ReplaceRules(_ context.Context, rs []models.AssociationRule) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaced = append(m.replaced, rs)
	return nil
}

func (m *mockSink) replaceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.replaced)
}

type mockReloader struct {
	calls int
	err   error
}

func (m *mockReloader) Reload(context.Context) error {
	m.calls++
	return m.err
}

func groceryCorpus() []models.Transaction {
	return []models.Transaction{
		{ID: 1, Products: []string{"milk", "bread"}},
		{ID: 2, Products: []string{"milk", "bread", "butter"}},
		{ID: 3, Products: []string{"bread", "butter"}},
		{ID: 4, Products: []string{"milk"}},
	}
}

func newTestOrchestrator(cfg config.TrainingConfig, source CorpusSource, sink RuleSink, reloader Reloader) *Orchestrator {
	miner := mining.NewMiner(mining.Config{Workers: 1}, zerolog.Nop())
	gen := rules.NewGenerator(zerolog.Nop())
	return NewOrchestrator(cfg, miner, gen, source, sink, reloader, zerolog.Nop())
}

func TestTrainPersistsRulesAndReloads(t *testing.T) {
	source := &mockSource{txns: groceryCorpus()}
	sink := &mockSink{}
	reloader := &mockReloader{}
	o := newTestOrchestrator(config.TrainingConfig{}, source, sink, reloader)

	count, err := o.Train(context.Background(), Params{
		MinSupport:          0.5,
		LiftThreshold:       1.0,
		ConfidenceThreshold: 0.2,
	})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if count == 0 {
		t.Fatal("Train() count = 0, want rules persisted")
	}
	if sink.replaceCount() != 1 {
		t.Fatalf("ReplaceRules calls = %d, want 1", sink.replaceCount())
	}
	if got := len(sink.replaced[0]); got != count {
		t.Errorf("persisted %d rules, Train reported %d", got, count)
	}
	if reloader.calls != 1 {
		t.Errorf("Reload calls = %d, want 1", reloader.calls)
	}

	status := o.Status()
	if status.State != StateIdle {
		t.Errorf("State = %q, want %q", status.State, StateIdle)
	}
	if status.RulesPersisted != count {
		t.Errorf("RulesPersisted = %d, want %d", status.RulesPersisted, count)
	}
	if status.LastError != "" {
		t.Errorf("LastError = %q, want empty", status.LastError)
	}
}

func TestTrainSingleFlight(t *testing.T) {
	release := make(chan struct{})
	source := &mockSource{txns: groceryCorpus(), block: release}
	sink := &mockSink{}
	o := newTestOrchestrator(config.TrainingConfig{}, source, sink, nil)

	params := Params{MinSupport: 0.5, LiftThreshold: 1.0, ConfidenceThreshold: 0.2}

	firstDone := make(chan error, 1)
	go func() {
		_, err := o.Train(context.Background(), params)
		firstDone <- err
	}()

	// Wait for the first run to reach the blocking corpus load.
	deadline := time.After(2 * time.Second)
	for {
		source.callsMu.Lock()
		started := source.calls > 0
		source.callsMu.Unlock()
		if started {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first run never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := o.Train(context.Background(), params); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("second Train() error = %v, want ErrTrainingInProgress", err)
	}
	if sink.replaceCount() != 0 {
		t.Errorf("rule set changed by rejected run")
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first Train() error = %v", err)
	}

	// Once Idle again, a new run is accepted.
	if _, err := o.Train(context.Background(), params); err != nil {
		t.Errorf("Train() after completion error = %v", err)
	}
}

func TestTrainInvalidParams(t *testing.T) {
	source := &mockSource{txns: groceryCorpus()}
	sink := &mockSink{}
	o := newTestOrchestrator(config.TrainingConfig{}, source, sink, nil)

	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{"negative confidence", Params{MinSupport: 0.5, ConfidenceThreshold: -0.1}, ErrInvalidThreshold},
		{"confidence above one", Params{MinSupport: 0.5, ConfidenceThreshold: 1.5}, ErrInvalidThreshold},
		{"negative lift", Params{MinSupport: 0.5, LiftThreshold: -1}, ErrInvalidThreshold},
		{"zero support", Params{MinSupport: 0, ConfidenceThreshold: 0.2}, mining.ErrInvalidSupport},
		{"support above one", Params{MinSupport: 1.5, ConfidenceThreshold: 0.2}, mining.ErrInvalidSupport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := o.Train(context.Background(), tt.params); !errors.Is(err, tt.wantErr) {
				t.Errorf("Train() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if sink.replaceCount() != 0 {
		t.Errorf("rule set changed by rejected parameters")
	}
}

func TestTrainCorpusLoadFailureLeavesRulesUntouched(t *testing.T) {
	source := &mockSource{err: errors.New("storage offline")}
	sink := &mockSink{}
	o := newTestOrchestrator(config.TrainingConfig{}, source, sink, nil)

	_, err := o.Train(context.Background(), Params{MinSupport: 0.5, ConfidenceThreshold: 0.2})
	if err == nil {
		t.Fatal("Train() error = nil, want load failure")
	}
	if sink.replaceCount() != 0 {
		t.Errorf("ReplaceRules called after load failure")
	}

	status := o.Status()
	if status.State != StateIdle {
		t.Errorf("State = %q, want %q (failed run settles back)", status.State, StateIdle)
	}
	if status.LastError == "" {
		t.Error("LastError empty, want recorded failure")
	}

	// Retraining is not locked out by the failure.
	source.err = nil
	source.txns = groceryCorpus()
	if _, err := o.Train(context.Background(), Params{MinSupport: 0.5, ConfidenceThreshold: 0.2}); err != nil {
		t.Errorf("Train() after failure error = %v", err)
	}
}

func TestTrainPersistFailure(t *testing.T) {
	source := &mockSource{txns: groceryCorpus()}
	sink := &mockSink{err: errors.New("write failed")}
	reloader := &mockReloader{}
	o := newTestOrchestrator(config.TrainingConfig{}, source, sink, reloader)

	_, err := o.Train(context.Background(), Params{MinSupport: 0.5, ConfidenceThreshold: 0.2})
	if err == nil {
		t.Fatal("Train() error = nil, want persist failure")
	}
	if reloader.calls != 0 {
		t.Errorf("Reload called after persist failure")
	}
}

func TestTrainCancelledBeforePersist(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &mockSource{txns: groceryCorpus()}
	sink := &mockSink{}
	o := newTestOrchestrator(config.TrainingConfig{}, source, sink, nil)

	_, err := o.Train(ctx, Params{MinSupport: 0.5, ConfidenceThreshold: 0.2})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Train() error = %v, want context.Canceled", err)
	}
	if sink.replaceCount() != 0 {
		t.Errorf("rule set changed by cancelled run")
	}
}

func TestTrainReloadFailureStillSucceeds(t *testing.T) {
	source := &mockSource{txns: groceryCorpus()}
	sink := &mockSink{}
	reloader := &mockReloader{err: errors.New("engine offline")}
	o := newTestOrchestrator(config.TrainingConfig{}, source, sink, reloader)

	count, err := o.Train(context.Background(), Params{MinSupport: 0.5, ConfidenceThreshold: 0.2})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if count == 0 {
		t.Error("Train() count = 0, want persisted rules")
	}
	if sink.replaceCount() != 1 {
		t.Errorf("ReplaceRules calls = %d, want 1", sink.replaceCount())
	}
}

func TestStartTrainsInBackground(t *testing.T) {
	source := &mockSource{txns: groceryCorpus()}
	sink := &mockSink{}
	o := newTestOrchestrator(config.TrainingConfig{}, source, sink, nil)

	if err := o.Start(context.Background(), Params{MinSupport: 0.5, ConfidenceThreshold: 0.2}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for sink.replaceCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("background run never persisted rules")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestStartRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	source := &mockSource{txns: groceryCorpus(), block: release}
	sink := &mockSink{}
	o := newTestOrchestrator(config.TrainingConfig{}, source, sink, nil)

	params := Params{MinSupport: 0.5, ConfidenceThreshold: 0.2}
	if err := o.Start(context.Background(), params); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := o.Start(context.Background(), params); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("second Start() error = %v, want ErrTrainingInProgress", err)
	}
	close(release)

	deadline := time.After(2 * time.Second)
	for sink.replaceCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("background run never finished")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestTrainEmptyCorpus(t *testing.T) {
	source := &mockSource{}
	sink := &mockSink{}
	o := newTestOrchestrator(config.TrainingConfig{}, source, sink, nil)

	count, err := o.Train(context.Background(), Params{MinSupport: 0.5, ConfidenceThreshold: 0.2})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Train() count = %d, want 0", count)
	}
	// An empty result still replaces the stored set, keeping store and
	// corpus consistent.
	if sink.replaceCount() != 1 {
		t.Errorf("ReplaceRules calls = %d, want 1", sink.replaceCount())
	}
}
