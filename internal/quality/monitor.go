// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package quality

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlift/basketlift/internal/models"
)

// RuleMetricsRow carries the nullable metric columns of one persisted rule.
// A zero-valued metric is a legitimate value and counts as present for the
// transparency rate; only a NULL column counts as missing.
type RuleMetricsRow struct {
	Support    sql.NullFloat64
	Confidence sql.NullFloat64
	Lift       sql.NullFloat64
}

// LogSource supplies the histories the monitor aggregates over. Implemented
// by the database layer.
type LogSource interface {
	// RecommendationLogs returns the full recommendation log history.
	RecommendationLogs(ctx context.Context) ([]models.RecommendationLog, error)

	// AnonymizationStatuses returns the status column of every
	// anonymization log entry.
	AnonymizationStatuses(ctx context.Context) ([]string, error)

	// RuleMetricRows returns the metric columns of every persisted rule.
	RuleMetricRows(ctx context.Context) ([]RuleMetricsRow, error)
}

// Config holds the evaluation cutoff and the advisory floors. Rate floors
// are percentages in [0, 100]; precision and recall floors are in [0, 1].
type Config struct {
	MaxK               int     `koanf:"max_k"`
	PrecisionFloor     float64 `koanf:"precision_floor"`
	RecallFloor        float64 `koanf:"recall_floor"`
	AnonymizationFloor float64 `koanf:"anonymization_floor"`
	TransparencyFloor  float64 `koanf:"transparency_floor"`
	CoverageFloor      float64 `koanf:"coverage_floor"`
}

// DefaultConfig returns the floors the system has been monitored against
// historically.
func DefaultConfig() Config {
	return Config{
		MaxK:               5,
		PrecisionFloor:     0.5,
		RecallFloor:        0.5,
		AnonymizationFloor: 90.0,
		TransparencyFloor:  85.0,
		CoverageFloor:      80.0,
	}
}

// EntryScore is the ranked-retrieval score of one log entry.
type EntryScore struct {
	TransactionID string  `json:"transaction_id"`
	Precision     float64 `json:"precision_at_k"`
	Recall        float64 `json:"recall_at_k"`
}

// Snapshot is one on-demand aggregate over the full log history. It is
// computed, never stored.
type Snapshot struct {
	Entries             int       `json:"entries"`
	AvgPrecisionAtK     float64   `json:"avg_precision_at_k"`
	AvgRecallAtK        float64   `json:"avg_recall_at_k"`
	PctMeetingPrecision float64   `json:"pct_meeting_precision_floor"`
	AnonymizationRate   float64   `json:"anonymization_rate"`
	TransparencyRate    float64   `json:"transparency_rate"`
	CoverageRate        float64   `json:"coverage_rate"`
	Warnings            []string  `json:"warnings"`
	ComputedAt          time.Time `json:"computed_at"`
}

// Monitor computes quality snapshots from the log store.
type Monitor struct {
	config Config
	source LogSource
	logger zerolog.Logger
}

// NewMonitor creates a quality monitor.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMonitor(cfg Config, source LogSource, logger zerolog.Logger) *Monitor {
	if cfg.MaxK <= 0 {
		cfg.MaxK = 5
	}

	return &Monitor{
		config: cfg,
		source: source,
		logger: logger.With().Str("component", "quality").Logger(),
	}
}

// Score computes the per-entry ranked-retrieval scores. An entry whose
// recommended or purchased field failed to parse contributes (0, 0).
func (m *Monitor) Score(logs []models.RecommendationLog) []EntryScore {
	scores := make([]EntryScore, len(logs))
	for i, entry := range logs {
		k := m.config.MaxK
		if len(entry.RecommendedItems) < k {
			k = len(entry.RecommendedItems)
		}
		scores[i] = EntryScore{
			TransactionID: entry.TransactionID,
			Precision:     PrecisionAtK(entry.RecommendedItems, entry.PurchasedItems, k),
			Recall:        RecallAtK(entry.RecommendedItems, entry.PurchasedItems, k),
		}
	}
	return scores
}

// Compute builds a snapshot over the full history. Sub-metric failures
// degrade to zero-valued aggregates with a logged cause; the snapshot
// itself always succeeds.
func (m *Monitor) Compute(ctx context.Context) Snapshot {
	snap := Snapshot{ComputedAt: time.Now()}

	logs, err := m.source.RecommendationLogs(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("loading recommendation logs failed, ranked metrics degrade to zero")
	} else {
		scores := m.Score(logs)
		snap.Entries = len(scores)
		snap.AvgPrecisionAtK, snap.AvgRecallAtK, snap.PctMeetingPrecision = m.aggregate(scores)
		snap.CoverageRate = coverage(logs)
	}

	snap.AnonymizationRate = m.anonymizationRate(ctx)
	snap.TransparencyRate = m.transparencyRate(ctx)
	snap.Warnings = m.warnings(snap)
	return snap
}

// aggregate returns mean precision, mean recall, and the percentage of
// entries meeting the precision floor.
func (m *Monitor) aggregate(scores []EntryScore) (avgPrecision, avgRecall, pctMeeting float64) {
	if len(scores) == 0 {
		return 0, 0, 0
	}

	var sumP, sumR float64
	meeting := 0
	for _, s := range scores {
		sumP += s.Precision
		sumR += s.Recall
		if s.Precision >= m.config.PrecisionFloor {
			meeting++
		}
	}
	n := float64(len(scores))
	return sumP / n, sumR / n, float64(meeting) / n * 100
}

// coverage is the percentage of purchase-bearing log entries that carried a
// non-empty recommendation list. A log whose recommended field decoded from
// the literal "None" counts as empty.
func coverage(logs []models.RecommendationLog) float64 {
	purchaseBearing := 0
	covered := 0
	for _, entry := range logs {
		if len(entry.PurchasedItems) == 0 {
			continue
		}
		purchaseBearing++
		if len(entry.RecommendedItems) > 0 {
			covered++
		}
	}
	if purchaseBearing == 0 {
		return 0.0
	}
	return float64(covered) / float64(purchaseBearing) * 100
}

// anonymizationRate is the percentage of anonymization log entries with
// status Success.
func (m *Monitor) anonymizationRate(ctx context.Context) float64 {
	statuses, err := m.source.AnonymizationStatuses(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("loading anonymization logs failed, rate degrades to zero")
		return 0.0
	}
	if len(statuses) == 0 {
		return 0.0
	}

	success := 0
	for _, s := range statuses {
		if s == models.AnonymizationSuccess {
			success++
		}
	}
	return float64(success) / float64(len(statuses)) * 100
}

// transparencyRate is the percentage of persisted rules whose support,
// confidence, and lift columns are all non-NULL. Zero values count as
// present.
func (m *Monitor) transparencyRate(ctx context.Context) float64 {
	rows, err := m.source.RuleMetricRows(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("loading rule metrics failed, transparency degrades to zero")
		return 0.0
	}
	if len(rows) == 0 {
		return 0.0
	}

	explained := 0
	for _, r := range rows {
		if r.Support.Valid && r.Confidence.Valid && r.Lift.Valid {
			explained++
		}
	}
	return float64(explained) / float64(len(rows)) * 100
}

// warnings checks the five aggregates against their floors. Each breach
// produces a distinct message naming the metric, its value, and its floor.
func (m *Monitor) warnings(s Snapshot) []string {
	warnings := make([]string, 0, 5)
	if s.AvgPrecisionAtK < m.config.PrecisionFloor {
		warnings = append(warnings, fmt.Sprintf(
			"average precision@k (%.2f) fell below floor %.2f", s.AvgPrecisionAtK, m.config.PrecisionFloor))
	}
	if s.AvgRecallAtK < m.config.RecallFloor {
		warnings = append(warnings, fmt.Sprintf(
			"average recall@k (%.2f) fell below floor %.2f", s.AvgRecallAtK, m.config.RecallFloor))
	}
	if s.AnonymizationRate < m.config.AnonymizationFloor {
		warnings = append(warnings, fmt.Sprintf(
			"anonymization success rate (%.2f%%) fell below floor %.2f%%", s.AnonymizationRate, m.config.AnonymizationFloor))
	}
	if s.TransparencyRate < m.config.TransparencyFloor {
		warnings = append(warnings, fmt.Sprintf(
			"rule transparency rate (%.2f%%) fell below floor %.2f%%", s.TransparencyRate, m.config.TransparencyFloor))
	}
	if s.CoverageRate < m.config.CoverageFloor {
		warnings = append(warnings, fmt.Sprintf(
			"purchase-recommendation coverage (%.2f%%) fell below floor %.2f%%", s.CoverageRate, m.config.CoverageFloor))
	}
	return warnings
}
