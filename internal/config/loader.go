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

	"github.com/openscout/gridiron/internal/domain/types"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if GRIDIRON_CONFIG is set
//  3. env (prefix GRIDIRON_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("GRIDIRON_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: GRIDIRON_ADDR, GRIDIRON_WORKER_COUNT, ...
	// Map env keys like GRIDIRON_QUEUE_CAPACITY -> queue_capacity (flat
	// keys). Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("GRIDIRON_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "gridiron_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the service cannot start with.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.WhatIfThreshold <= 0 || c.WhatIfThreshold > 1 {
		return fmt.Errorf("%w: whatif_threshold %v outside (0, 1]", ErrInvalidConfig, c.WhatIfThreshold)
	}
	for pos, set := range c.Candidates {
		if !types.Position(strings.ToLower(strings.TrimSpace(pos))).Valid() {
			return fmt.Errorf("%w: candidates key %q is not a position", ErrInvalidConfig, pos)
		}
		for _, cand := range set {
			if err := cand.Validate(); err != nil {
				return fmt.Errorf("%w: candidates[%s]: %v", ErrInvalidConfig, pos, err)
			}
		}
	}
	if len(c.Benchmarks) > 0 {
		if err := c.Benchmarks.Validate(); err != nil {
			return fmt.Errorf("%w: benchmarks: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
