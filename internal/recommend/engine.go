// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/basketlift/basketlift/internal/models"
)

// Engine serves basket recommendations from an atomically swapped rule-set
// snapshot. It is safe for concurrent use: Recommend never blocks on a
// retrain or reload in progress.
type Engine struct {
	config Config
	logger zerolog.Logger
	source RuleSource

	active  atomic.Pointer[snapshot]
	breaker *gobreaker.CircuitBreaker[[]models.AssociationRule]

	requestCount   atomic.Int64
	reloadFailures atomic.Int64
}

// NewEngine creates a serving engine reading rules from source. The engine
// starts with an empty snapshot; call Reload to pick up persisted rules.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg Config, source RuleSource, logger zerolog.Logger) *Engine {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	e := &Engine{
		config: cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
		source: source,
	}
	e.active.Store(&snapshot{})

	e.breaker = gobreaker.NewCircuitBreaker[[]models.AssociationRule](gobreaker.Settings{
		Name: "rule-reload",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		Timeout: cfg.BreakerTimeout,
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("reload circuit state changed")
		},
	})

	return e
}

// Reload replaces the active snapshot with the rule set currently persisted.
// The swap is all-or-nothing: on any failure the previous snapshot stays
// active and the error is returned for logging by the caller.
func (e *Engine) Reload(ctx context.Context) error {
	rules, err := e.breaker.Execute(func() ([]models.AssociationRule, error) {
		return e.source.LoadRules(ctx)
	})
	if err != nil {
		e.reloadFailures.Add(1)
		return fmt.Errorf("load rules: %w", err)
	}

	e.active.Store(&snapshot{rules: rules, loadedAt: time.Now()})
	e.logger.Info().Int("rules", len(rules)).Msg("rule set reloaded")
	return nil
}

// Recommend returns ranked suggestions for the basket, at most limit items
// (DefaultLimit when limit <= 0). An empty basket or an empty rule set
// yields an empty list. The call is read-only and deterministic: identical
// (basket, snapshot) inputs return the identical ordered list.
func (e *Engine) Recommend(basket []string, limit int) []Suggestion {
	e.requestCount.Add(1)
	if limit <= 0 {
		limit = e.config.DefaultLimit
	}

	basketSet := make(map[string]struct{}, len(basket))
	for _, item := range basket {
		if key := models.NormalizeItem(item); key != "" {
			basketSet[key] = struct{}{}
		}
	}
	if len(basketSet) == 0 {
		return []Suggestion{}
	}

	snap := e.active.Load()
	if snap == nil || len(snap.rules) == 0 {
		return []Suggestion{}
	}

	// Pool consequents of every rule whose antecedents overlap the basket,
	// deduplicated case-insensitively keeping the highest confidence.
	index := make(map[string]int)
	candidates := make([]Suggestion, 0)

	for _, rule := range snap.rules {
		if !intersectsBasket(rule.Antecedents, basketSet) {
			continue
		}
		for _, item := range rule.Consequents {
			key := models.NormalizeItem(item)
			if key == "" {
				continue
			}
			_, inBasket := basketSet[key]

			if i, ok := index[key]; ok {
				if rule.Confidence > candidates[i].Confidence {
					candidates[i].Confidence = rule.Confidence
					candidates[i].Item = item
				}
				continue
			}
			index[key] = len(candidates)
			candidates = append(candidates, Suggestion{
				Item:       item,
				Confidence: rule.Confidence,
				InBasket:   inBasket,
			})
		}
	}

	// In-basket items first, then descending confidence; stable so equal
	// candidates keep pool order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].InBasket != candidates[j].InBasket {
			return candidates[i].InBasket
		}
		return candidates[i].Confidence > candidates[j].Confidence
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// intersectsBasket reports whether any antecedent item is in the basket.
func intersectsBasket(antecedents []string, basketSet map[string]struct{}) bool {
	for _, item := range antecedents {
		if _, ok := basketSet[models.NormalizeItem(item)]; ok {
			return true
		}
	}
	return false
}

// ActiveRules returns a copy of the current snapshot's rules, ordered as
// persisted (lift descending). Used by the shelf view.
func (e *Engine) ActiveRules(limit int) []models.AssociationRule {
	snap := e.active.Load()
	if snap == nil {
		return nil
	}
	rules := snap.rules
	if limit > 0 && len(rules) > limit {
		rules = rules[:limit]
	}
	out := make([]models.AssociationRule, len(rules))
	copy(out, rules)
	return out
}

// Stats reports serving counters.
func (e *Engine) Stats() Stats {
	snap := e.active.Load()
	s := Stats{
		Requests:       e.requestCount.Load(),
		ReloadFailures: e.reloadFailures.Load(),
	}
	if snap != nil {
		s.ActiveRules = len(snap.rules)
		s.LastReloadAt = snap.loadedAt
	}
	return s
}
