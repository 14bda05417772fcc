// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/basketlift/basketlift/internal/models"
)

// DefaultLimit is the suggestion count when the caller passes limit <= 0.
const DefaultLimit = 5

// Suggestion is one ranked recommendation for the current basket.
type Suggestion struct {
	// Item is the suggested product name, in the casing the rule was
	// mined with.
	Item string `json:"item"`

	// Confidence is the highest confidence among the rules that proposed
	// this item.
	Confidence float64 `json:"confidence"`

	// InBasket marks items the shopper already has. They are annotated
	// for display rather than suppressed.
	InBasket bool `json:"in_basket"`
}

// Display renders the suggestion the way the checkout screen shows it.
func (s Suggestion) Display() string {
	if s.InBasket {
		return fmt.Sprintf("%s (Already in cart)", s.Item)
	}
	return s.Item
}

// RuleSource supplies the persisted active rule set. Implemented by the
// database layer; kept as an interface here so the engine has no storage
// dependency.
type RuleSource interface {
	LoadRules(ctx context.Context) ([]models.AssociationRule, error)
}

// Config contains serving parameters.
type Config struct {
	// DefaultLimit caps suggestion lists when a request does not specify
	// a limit. Default: DefaultLimit.
	DefaultLimit int `koanf:"default_limit"`

	// BreakerFailureThreshold is the consecutive reload failures that
	// open the circuit. Default: 5.
	BreakerFailureThreshold uint32 `koanf:"breaker_failure_threshold"`

	// BreakerTimeout is how long the circuit stays open before a probe
	// reload is allowed. Default: 30s.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:            DefaultLimit,
		BreakerFailureThreshold: 5,
		BreakerTimeout:          30 * time.Second,
	}
}

// Stats reports serving counters for observability endpoints.
type Stats struct {
	ActiveRules    int       `json:"active_rules"`
	Requests       int64     `json:"requests"`
	ReloadFailures int64     `json:"reload_failures"`
	LastReloadAt   time.Time `json:"last_reload_at"`
}

// snapshot is one immutable generation of the rule set.
type snapshot struct {
	rules    []models.AssociationRule
	loadedAt time.Time
}
