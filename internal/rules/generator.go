// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package rules

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlift/basketlift/internal/mining"
	"github.com/basketlift/basketlift/internal/models"
)

// DefaultMetricFloor is the minimum lift a rule must strictly exceed to be
// generated. At 1.0 the consequent is exactly as likely as its base rate.
const DefaultMetricFloor = 1.0

// Generator derives association rules from frequent itemsets.
type Generator struct {
	logger zerolog.Logger
}

// NewGenerator creates a rule generator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGenerator(logger zerolog.Logger) *Generator {
	return &Generator{
		logger: logger.With().Str("component", "rules").Logger(),
	}
}

// Generate enumerates every non-trivial bipartition of every itemset of
// size >= 2 and keeps the rules whose lift strictly exceeds metricFloor.
// Floors below 1 are raised to DefaultMetricFloor.
//
// An empty itemset slice yields an empty rule slice: zero rules is a valid,
// if uninteresting, outcome.
func (g *Generator) Generate(itemsets []mining.Itemset, metricFloor float64) []models.AssociationRule {
	if metricFloor < DefaultMetricFloor {
		metricFloor = DefaultMetricFloor
	}
	if len(itemsets) == 0 {
		return []models.AssociationRule{}
	}

	start := time.Now()

	supports := make(map[string]float64, len(itemsets))
	for _, s := range itemsets {
		supports[s.Key()] = s.Support
	}

	rules := make([]models.AssociationRule, 0)
	for _, s := range itemsets {
		if len(s.Items) < 2 {
			continue
		}
		g.partition(s, supports, metricFloor, &rules)
	}

	// Primary ranking metric descending; SliceStable preserves generation
	// order on ties so reruns never silently reorder equal-lift rules.
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Lift > rules[j].Lift
	})

	g.logger.Debug().
		Int("itemsets", len(itemsets)).
		Int("rules", len(rules)).
		Float64("metric_floor", metricFloor).
		Dur("elapsed", time.Since(start)).
		Msg("rule generation complete")

	return rules
}

// partition appends every qualifying rule derived from one itemset. Bitmask
// enumeration over the canonical item order keeps generation order stable
// across runs.
func (g *Generator) partition(s mining.Itemset, supports map[string]float64, metricFloor float64, out *[]models.AssociationRule) {
	n := len(s.Items)
	for mask := 1; mask < (1<<n)-1; mask++ {
		antecedent := make([]string, 0, n-1)
		consequent := make([]string, 0, n-1)
		for i, item := range s.Items {
			if mask&(1<<i) != 0 {
				antecedent = append(antecedent, item)
			} else {
				consequent = append(consequent, item)
			}
		}

		supA, okA := supports[mining.KeyFor(antecedent)]
		supC, okC := supports[mining.KeyFor(consequent)]
		// Confidence and lift are undefined on a zero-support side; such
		// rules are excluded rather than reported with bogus metrics.
		if !okA || !okC || supA == 0 || supC == 0 {
			continue
		}

		confidence := s.Support / supA
		lift := confidence / supC
		if lift <= metricFloor {
			continue
		}

		*out = append(*out, models.AssociationRule{
			Antecedents: antecedent,
			Consequents: consequent,
			Support:     s.Support,
			Confidence:  confidence,
			Lift:        lift,
			Leverage:    s.Support - supA*supC,
		})
	}
}

// Filter returns exactly the rules whose lift and confidence both strictly
// exceed the given thresholds. Relative order is preserved. The comparison
// is deliberately strict: a rule with lift equal to the threshold is
// excluded.
func Filter(rules []models.AssociationRule, liftThreshold, confidenceThreshold float64) []models.AssociationRule {
	out := make([]models.AssociationRule, 0, len(rules))
	for _, r := range rules {
		if r.Lift > liftThreshold && r.Confidence > confidenceThreshold {
			out = append(out, r)
		}
	}
	return out
}
