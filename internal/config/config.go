// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file and environment on top.
// - External errors are wrapped via this package's sentinel kinds.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. "127.0.0.1:8480".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file path.
	DBPath string `koanf:"db_path"`

	// AnthropicAPIKey authenticates the LLM analyzer.
	AnthropicAPIKey string `koanf:"anthropic_api_key"`

	// LLMModel overrides the default analysis model.
	LLMModel string `koanf:"llm_model"`

	// LLMBatchSize bounds how many evidence items go into one analysis call.
	LLMBatchSize int `koanf:"llm_batch_size"`

	// LLMEnabled turns on the analysis stage. Off by default since it
	// needs an API key; imports run either way.
	LLMEnabled bool `koanf:"llm_enabled"`

	// QueueSize bounds the in-memory analysis queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the source-ref dedupe cache.
	DedupeSize int `koanf:"dedupe_size"`

	// SyncSchedule is a cron spec for periodic source imports.
	SyncSchedule string `koanf:"sync_schedule"`

	// ImportPath points at a JSON export file synced as the "file" source.
	// Empty disables file import.
	ImportPath string `koanf:"import_path"`

	// OverdueThreshold is the overdue-ratio cutoff.
	OverdueThreshold float64 `koanf:"overdue_threshold"`

	// MinEvidence is how many evidence items a person needs to be scored.
	MinEvidence int `koanf:"min_evidence"`

	// MinCadenceDays is the cadence floor in days.
	MinCadenceDays float64 `koanf:"min_cadence_days"`

	// LeadStuckDays and ApplicantStuckDays are the stagnation thresholds.
	LeadStuckDays      int `koanf:"lead_stuck_days"`
	ApplicantStuckDays int `koanf:"applicant_stuck_days"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               "127.0.0.1:8480",
		DBPath:             "./rapport.db",
		LLMModel:           "claude-sonnet-4-5-20250929",
		LLMBatchSize:       10,
		LLMEnabled:         false,
		QueueSize:          10_000,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         50_000,
		SyncSchedule:       "@every 15m",
		OverdueThreshold:   1.5,
		MinEvidence:        3,
		MinCadenceDays:     1,
		LeadStuckDays:      30,
		ApplicantStuckDays: 14,
	}
}
