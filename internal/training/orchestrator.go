// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlift/basketlift/internal/config"
	"github.com/basketlift/basketlift/internal/metrics"
	"github.com/basketlift/basketlift/internal/mining"
	"github.com/basketlift/basketlift/internal/models"
	"github.com/basketlift/basketlift/internal/rules"
)

// State names the phase a training run is in.
type State string

const (
	StateIdle            State = "Idle"
	StateLoading         State = "Loading"
	StateMining          State = "Mining"
	StateGeneratingRules State = "GeneratingRules"
	StatePersisting      State = "Persisting"
	StateFailed          State = "Failed"
)

// ErrTrainingInProgress rejects a second run while one is active.
var ErrTrainingInProgress = errors.New("training already in progress")

// ErrInvalidThreshold rejects out-of-range rule thresholds before any work.
var ErrInvalidThreshold = errors.New("confidence threshold must be in [0, 1] and lift threshold non-negative")

// Params are the tunables for one training run.
type Params struct {
	MinSupport          float64
	LiftThreshold       float64
	ConfidenceThreshold float64
}

// Status is a point-in-time view of the orchestrator. A failed run settles
// back to Idle with LastError recording the cause, so retraining is never
// locked out.
type Status struct {
	State          State     `json:"state"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	RulesPersisted int       `json:"rules_persisted"`
	LastError      string    `json:"last_error,omitempty"`
}

// CorpusSource supplies the historical transactions to mine.
type CorpusSource interface {
	Transactions(ctx context.Context) ([]models.Transaction, error)
}

// RuleSink persists a complete rule set, replacing whatever was there.
type RuleSink interface {
	ReplaceRules(ctx context.Context, rules []models.AssociationRule) error
}

// Reloader is told to pick up the new rule set after a successful persist.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Orchestrator owns the train lifecycle. Single writer to the rule store.
type Orchestrator struct {
	config    config.TrainingConfig
	miner     *mining.Miner
	generator *rules.Generator
	source    CorpusSource
	sink      RuleSink
	reloader  Reloader
	logger    zerolog.Logger

	running atomic.Bool

	mu     sync.Mutex
	status Status
}

// NewOrchestrator wires a trainer. reloader may be nil when no serving
// engine is attached, as in batch tooling.
//
//nolint:gocritic // logger passed by value
func NewOrchestrator(cfg config.TrainingConfig, miner *mining.Miner, generator *rules.Generator,
	source CorpusSource, sink RuleSink, reloader Reloader, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		config:    cfg,
		miner:     miner,
		generator: generator,
		source:    source,
		sink:      sink,
		reloader:  reloader,
		logger:    logger.With().Str("component", "training").Logger(),
		status:    Status{State: StateIdle},
	}
}

// Train runs one full mining cycle and returns how many rules it persisted.
// A second call while a run is active fails with ErrTrainingInProgress.
// Cancellation between mining and persistence leaves the previously active
// rule set untouched.
func (o *Orchestrator) Train(ctx context.Context, params Params) (int, error) {
	if params.ConfidenceThreshold < 0 || params.ConfidenceThreshold > 1 || params.LiftThreshold < 0 {
		return 0, ErrInvalidThreshold
	}

	if !o.running.CompareAndSwap(false, true) {
		metrics.TrainingRuns.WithLabelValues("rejected").Inc()
		return 0, ErrTrainingInProgress
	}
	defer o.running.Store(false)

	return o.execute(ctx, params)
}

// Start claims the single-flight slot synchronously, then runs the training
// cycle in the background. The caller learns about rejection immediately;
// run outcome lands in Status. The run outlives the caller's request
// context but keeps its values for log correlation.
func (o *Orchestrator) Start(ctx context.Context, params Params) error {
	if params.ConfidenceThreshold < 0 || params.ConfidenceThreshold > 1 || params.LiftThreshold < 0 {
		return ErrInvalidThreshold
	}

	if !o.running.CompareAndSwap(false, true) {
		metrics.TrainingRuns.WithLabelValues("rejected").Inc()
		return ErrTrainingInProgress
	}

	go func() {
		defer o.running.Store(false)
		// Run outcome is recorded in Status and logged.
		_, _ = o.execute(context.WithoutCancel(ctx), params)
	}()
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, params Params) (int, error) {
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	o.begin(start)

	count, err := o.run(ctx, params)
	metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		o.fail(err)
		metrics.TrainingRuns.WithLabelValues("failed").Inc()
		return 0, err
	}

	o.succeed(count)
	metrics.TrainingRuns.WithLabelValues("success").Inc()
	metrics.ActiveRules.Set(float64(count))
	o.logger.Info().
		Int("rules", count).
		Dur("elapsed", time.Since(start)).
		Msg("Training complete")
	return count, nil
}

func (o *Orchestrator) run(ctx context.Context, params Params) (int, error) {
	o.setState(StateLoading)
	txns, err := o.source.Transactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("load corpus: %w", err)
	}
	corpus := make([][]string, len(txns))
	for i, t := range txns {
		corpus[i] = t.Products
	}

	o.setState(StateMining)
	itemsets, err := o.miner.Mine(ctx, corpus, params.MinSupport)
	if err != nil {
		return 0, fmt.Errorf("mine itemsets: %w", err)
	}

	o.setState(StateGeneratingRules)
	generated := o.generator.Generate(itemsets, params.LiftThreshold)
	kept := rules.Filter(generated, params.LiftThreshold, params.ConfidenceThreshold)

	// The swap is all-or-nothing. A cancellation that lands here must not
	// reach the store with a rule set the caller gave up on.
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("training cancelled before persist: %w", err)
	}

	o.setState(StatePersisting)
	if err := o.sink.ReplaceRules(ctx, kept); err != nil {
		return 0, fmt.Errorf("persist rules: %w", err)
	}

	if o.reloader != nil {
		if err := o.reloader.Reload(ctx); err != nil {
			// Rules are persisted; serving keeps its previous snapshot
			// until the next reload succeeds.
			o.logger.Warn().Err(err).Msg("Rule reload failed after training")
		}
	}
	return len(kept), nil
}

// Status returns a copy of the current run state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Orchestrator) begin(at time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = Status{State: StateLoading, StartedAt: at}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.status.State = s
	o.mu.Unlock()
	o.logger.Debug().Str("state", string(s)).Msg("Training state change")
}

func (o *Orchestrator) succeed(count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.State = StateIdle
	o.status.FinishedAt = time.Now()
	o.status.RulesPersisted = count
	o.status.LastError = ""
}

// fail records the error, passes through Failed, and settles on Idle so the
// next Train call is accepted.
func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	o.status.State = StateFailed
	o.status.FinishedAt = time.Now()
	o.status.LastError = err.Error()
	o.mu.Unlock()

	o.logger.Error().Err(err).Msg("Training failed")

	o.mu.Lock()
	o.status.State = StateIdle
	o.mu.Unlock()
}
