package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RAPPORT_CONFIG is set
//  3. env (prefix RAPPORT_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("RAPPORT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: RAPPORT_ADDR, RAPPORT_QUEUE_SIZE, ...
	// Keys map to the flat koanf tags on the struct, underscores preserved.
	envProvider := env.Provider("RAPPORT_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "rapport_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.OverdueThreshold <= 1:
		return fmt.Errorf("%w: overdue_threshold must be greater than 1", ErrInvalidConfig)
	case c.MinEvidence < 2:
		return fmt.Errorf("%w: min_evidence must be at least 2", ErrInvalidConfig)
	case c.MinCadenceDays <= 0:
		return fmt.Errorf("%w: min_cadence_days must be positive", ErrInvalidConfig)
	case c.LLMBatchSize < 1:
		return fmt.Errorf("%w: llm_batch_size must be at least 1", ErrInvalidConfig)
	case c.LLMEnabled && c.AnthropicAPIKey == "":
		return fmt.Errorf("%w: anthropic_api_key is required when llm_enabled", ErrInvalidConfig)
	}
	return nil
}
