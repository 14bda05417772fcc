// Basketlift - Retail Co-Purchase Recommendation Service
// Copyright 2026 Basketlift Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlift/basketlift

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Training.MinSupport != 0.001 {
		t.Errorf("default min_support = %v, want 0.001", cfg.Training.MinSupport)
	}
	if cfg.Recommend.DefaultLimit != 5 {
		t.Errorf("default recommend limit = %d, want 5", cfg.Recommend.DefaultLimit)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"min support zero", func(c *Config) { c.Training.MinSupport = 0 }},
		{"min support above one", func(c *Config) { c.Training.MinSupport = 1.5 }},
		{"negative lift threshold", func(c *Config) { c.Training.LiftThreshold = -1 }},
		{"confidence above one", func(c *Config) { c.Training.ConfidenceThreshold = 1.1 }},
		{"zero recommend limit", func(c *Config) { c.Recommend.DefaultLimit = 0 }},
		{"zero max k", func(c *Config) { c.Quality.MaxK = 0 }},
		{"precision floor above one", func(c *Config) { c.Quality.PrecisionFloor = 1.5 }},
		{"coverage floor above hundred", func(c *Config) { c.Quality.CoverageFloor = 150 }},
		{"zero chunk size", func(c *Config) { c.Ingest.ChunkSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("BASKETLIFT_DATABASE__PATH", ":memory:")
	t.Setenv("BASKETLIFT_TRAINING__MIN_SUPPORT", "0.05")
	t.Setenv("BASKETLIFT_SERVER__PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("database path = %q, want :memory:", cfg.Database.Path)
	}
	if cfg.Training.MinSupport != 0.05 {
		t.Errorf("min support = %v, want 0.05", cfg.Training.MinSupport)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("server:\n  port: 9100\nquality:\n  precision_floor: 0.7\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100 from file", cfg.Server.Port)
	}
	if cfg.Quality.PrecisionFloor != 0.7 {
		t.Errorf("precision floor = %v, want 0.7 from file", cfg.Quality.PrecisionFloor)
	}
	// Untouched keys keep defaults.
	if cfg.Ingest.ChunkSize != 10000 {
		t.Errorf("chunk size = %d, want default 10000", cfg.Ingest.ChunkSize)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BASKETLIFT_DATABASE__PATH", "database.path"},
		{"BASKETLIFT_SERVER__RATE_LIMIT", "server.rate_limit"},
		{"BASKETLIFT_LOGGING__LEVEL", "logging.level"},
	}

	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadValidatesMergedConfig(t *testing.T) {
	t.Setenv("BASKETLIFT_TRAINING__MIN_SUPPORT", "5")
	if _, err := Load(); err == nil {
		t.Error("expected validation failure for min_support=5")
	}
}
