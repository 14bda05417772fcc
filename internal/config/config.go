// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

// Package config loads and validates Basketlift configuration.
//
// Configuration is layered: struct defaults, then an optional YAML file,
// then BASKETLIFT_-prefixed environment variables (highest priority).
// BASKETLIFT_DATABASE__PATH overrides database.path, and so on; a double
// underscore separates path segments.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Mining    MiningConfig    `koanf:"mining"`
	Training  TrainingConfig  `koanf:"training"`
	Recommend RecommendConfig `koanf:"recommend"`
	Quality   QualityConfig   `koanf:"quality"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file location. ":memory:" opens an ephemeral
	// in-memory database, useful for tests.
	Path string `koanf:"path"`

	// Threads caps DuckDB's worker threads. Zero means NumCPU.
	Threads int `koanf:"threads"`

	// MaxMemory is DuckDB's memory limit, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the per-client request budget per minute on API
	// endpoints. Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit"`

	// CORSAllowedOrigins lists origins allowed to call the API from a
	// browser-based POS front-end.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MiningConfig holds itemset-mining settings.
type MiningConfig struct {
	// Workers bounds concurrent FP-tree branch mining. Zero means NumCPU.
	Workers int `koanf:"workers"`
}

// TrainingConfig holds the default retraining thresholds.
type TrainingConfig struct {
	MinSupport          float64 `koanf:"min_support"`
	LiftThreshold       float64 `koanf:"lift_threshold"`
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	// Timeout bounds one training run end to end.
	Timeout time.Duration `koanf:"timeout"`
}

// RecommendConfig holds serving settings.
type RecommendConfig struct {
	DefaultLimit            int           `koanf:"default_limit"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// QualityConfig holds the advisory monitoring floors. Precision and recall
// floors are fractions in [0, 1]; the rates are percentages in [0, 100].
type QualityConfig struct {
	MaxK               int     `koanf:"max_k"`
	PrecisionFloor     float64 `koanf:"precision_floor"`
	RecallFloor        float64 `koanf:"recall_floor"`
	AnonymizationFloor float64 `koanf:"anonymization_floor"`
	TransparencyFloor  float64 `koanf:"transparency_floor"`
	CoverageFloor      float64 `koanf:"coverage_floor"`
}

// IngestConfig holds bulk-ingestion settings.
type IngestConfig struct {
	// ChunkSize is the number of raw rows written per storage transaction.
	ChunkSize int `koanf:"chunk_size"`

	// ChunksPerSecond paces bulk loads so they do not starve concurrent
	// checkout writes. Zero disables pacing.
	ChunksPerSecond float64 `koanf:"chunks_per_second"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with production defaults. These are
// applied first, then overridden by config file and environment.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "data/basketlift.db",
			Threads:   0,
			MaxMemory: "1GB",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       600,
		},
		Mining: MiningConfig{
			Workers: 0,
		},
		Training: TrainingConfig{
			MinSupport:          0.001,
			LiftThreshold:       1.0,
			ConfidenceThreshold: 0.2,
			Timeout:             10 * time.Minute,
		},
		Recommend: RecommendConfig{
			DefaultLimit:            5,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
		},
		Quality: QualityConfig{
			MaxK:               5,
			PrecisionFloor:     0.5,
			RecallFloor:        0.5,
			AnonymizationFloor: 90.0,
			TransparencyFloor:  85.0,
			CoverageFloor:      80.0,
		},
		Ingest: IngestConfig{
			ChunkSize:       10000,
			ChunksPerSecond: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate rejects out-of-range thresholds before any component starts.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Training.MinSupport <= 0 || c.Training.MinSupport > 1 {
		return fmt.Errorf("training.min_support %v must be in (0, 1]", c.Training.MinSupport)
	}
	if c.Training.LiftThreshold < 0 {
		return fmt.Errorf("training.lift_threshold must not be negative")
	}
	if c.Training.ConfidenceThreshold < 0 || c.Training.ConfidenceThreshold > 1 {
		return fmt.Errorf("training.confidence_threshold %v must be in [0, 1]", c.Training.ConfidenceThreshold)
	}
	if c.Recommend.DefaultLimit < 1 {
		return fmt.Errorf("recommend.default_limit must be at least 1")
	}
	if c.Quality.MaxK < 1 {
		return fmt.Errorf("quality.max_k must be at least 1")
	}
	if c.Quality.PrecisionFloor < 0 || c.Quality.PrecisionFloor > 1 {
		return fmt.Errorf("quality.precision_floor %v must be in [0, 1]", c.Quality.PrecisionFloor)
	}
	if c.Quality.RecallFloor < 0 || c.Quality.RecallFloor > 1 {
		return fmt.Errorf("quality.recall_floor %v must be in [0, 1]", c.Quality.RecallFloor)
	}
	for name, rate := range map[string]float64{
		"quality.anonymization_floor": c.Quality.AnonymizationFloor,
		"quality.transparency_floor":  c.Quality.TransparencyFloor,
		"quality.coverage_floor":      c.Quality.CoverageFloor,
	} {
		if rate < 0 || rate > 100 {
			return fmt.Errorf("%s %v must be in [0, 100]", name, rate)
		}
	}
	if c.Ingest.ChunkSize < 1 {
		return fmt.Errorf("ingest.chunk_size must be at least 1")
	}
	return nil
}
