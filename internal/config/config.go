// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults, Load(ctx) to layer
//   file and environment overrides on top.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"context"
	"fmt"
	"net/url"
	"runtime"

	"github.com/openscout/gridiron/internal/domain/impute"
	"github.com/openscout/gridiron/internal/domain/whatif"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelEndpoint is the base URL of the tier model service. Empty
	// selects the in-process rule-based classifier.
	ModelEndpoint string `koanf:"model_endpoint"`

	// ModelTimeoutMS bounds one model query.
	ModelTimeoutMS int `koanf:"model_timeout_ms"`

	// SchemaTTLSec controls how long a fetched model schema is reused.
	SchemaTTLSec int `koanf:"schema_ttl_sec"`

	// ClassifierTries is the attempt budget per classification.
	ClassifierTries int `koanf:"classifier_tries"`

	// ClassifierPauseMS is the base delay between retries.
	ClassifierPauseMS int `koanf:"classifier_pause_ms"`

	// QueueCapacity bounds the in-memory submission queue.
	QueueCapacity int `koanf:"queue_capacity"`

	// WorkerCount sets the number of evaluation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission dedupe index.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxBoardLimit caps GET /board?limit.
	MaxBoardLimit int `koanf:"max_board_limit"`

	// WhatIfThreshold is the default success probability a candidate
	// must reach at the target tier.
	WhatIfThreshold float64 `koanf:"whatif_threshold"`

	// WhatIfIterations caps bisection probes per candidate.
	WhatIfIterations int `koanf:"whatif_iterations"`

	// WhatIfConcurrency bounds simultaneous candidate searches.
	WhatIfConcurrency int `koanf:"whatif_concurrency"`

	// WhatIfBudgetMS is the wall-clock ceiling for one what-if solve.
	WhatIfBudgetMS int `koanf:"whatif_budget_ms"`

	// ImputeSeed pins the imputation RNG; zero keeps the time seed.
	ImputeSeed uint64 `koanf:"impute_seed"`

	// Candidates overrides the per-position what-if search sets, keyed
	// by position ("qb", "rb", "wr"). Empty keeps the built-ins.
	Candidates map[string][]whatif.Candidate `koanf:"candidates"`

	// Benchmarks replaces the built-in combine benchmark table. The
	// override must be a complete table: every position, division, and
	// metric cell. Empty keeps the built-ins.
	Benchmarks impute.Table `koanf:"benchmarks"`
}

// New creates a Config using defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use and
// currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8080",
		ModelEndpoint:     "",
		ModelTimeoutMS:    10_000,
		SchemaTTLSec:      300,
		ClassifierTries:   3,
		ClassifierPauseMS: 200,
		QueueCapacity:     10_000,
		WorkerCount:       runtime.NumCPU() * 4,
		DedupeSize:        50_000,
		MaxBoardLimit:     100,
		WhatIfThreshold:   0.5,
		WhatIfIterations:  9,
		WhatIfConcurrency: 3,
		WhatIfBudgetMS:    20_000,
	}
	return c
}

// String returns a log-safe dump of the configuration. Credentials
// embedded in the model endpoint URL are masked; override tables are
// reported by size, not content.
func (c *Config) String() string {
	return fmt.Sprintf(
		"log_level=%s log_format=%s addr=%s model_endpoint=%s model_timeout_ms=%d "+
			"schema_ttl_sec=%d classifier_tries=%d classifier_pause_ms=%d "+
			"queue_capacity=%d worker_count=%d dedupe_size=%d max_board_limit=%d "+
			"whatif_threshold=%g whatif_iterations=%d whatif_concurrency=%d whatif_budget_ms=%d "+
			"impute_seed=%d candidate_overrides=%d benchmark_override=%t",
		c.LogLevel, c.LogFormat, c.Addr, redactEndpoint(c.ModelEndpoint), c.ModelTimeoutMS,
		c.SchemaTTLSec, c.ClassifierTries, c.ClassifierPauseMS,
		c.QueueCapacity, c.WorkerCount, c.DedupeSize, c.MaxBoardLimit,
		c.WhatIfThreshold, c.WhatIfIterations, c.WhatIfConcurrency, c.WhatIfBudgetMS,
		c.ImputeSeed, len(c.Candidates), len(c.Benchmarks) > 0,
	)
}

// redactEndpoint masks the password of a URL carrying userinfo.
func redactEndpoint(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}
