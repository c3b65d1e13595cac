/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config loads agentprobe.yaml, interpolating ${ENV_VAR}
// references and overlaying environment variables on the result.
package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "agentprobe.yaml"

// RunnerConfig configures test execution. The timeout is expressed in
// seconds to keep the YAML surface plain numbers.
type RunnerConfig struct {
	Parallel       bool    `yaml:"parallel" env:"AGENTPROBE_RUNNER_PARALLEL, overwrite"`
	MaxWorkers     int     `yaml:"max_workers" env:"AGENTPROBE_RUNNER_MAX_WORKERS, overwrite"`
	TimeoutSeconds float64 `yaml:"default_timeout" env:"AGENTPROBE_RUNNER_TIMEOUT, overwrite"`
}

// Timeout returns the per-test timeout as a duration.
func (r RunnerConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds * float64(time.Second))
}

// JudgeConfig configures the LLM judge.
type JudgeConfig struct {
	Provider string `yaml:"provider" env:"AGENTPROBE_JUDGE_PROVIDER, overwrite"`
	Model    string `yaml:"model" env:"AGENTPROBE_JUDGE_MODEL, overwrite"`
}

// SnapshotConfig configures golden-file comparison.
type SnapshotConfig struct {
	Enabled   bool    `yaml:"enabled" env:"AGENTPROBE_SNAPSHOT_ENABLED, overwrite"`
	Dir       string  `yaml:"snapshot_dir" env:"AGENTPROBE_SNAPSHOT_DIR, overwrite"`
	Threshold float64 `yaml:"threshold" env:"AGENTPROBE_SNAPSHOT_THRESHOLD, overwrite"`
}

// RegressionConfig configures baseline comparison.
type RegressionConfig struct {
	Enabled   bool    `yaml:"enabled" env:"AGENTPROBE_REGRESSION_ENABLED, overwrite"`
	Dir       string  `yaml:"baseline_dir" env:"AGENTPROBE_BASELINE_DIR, overwrite"`
	Threshold float64 `yaml:"threshold" env:"AGENTPROBE_REGRESSION_THRESHOLD, overwrite"`
}

// ChaosConfig configures fault injection.
type ChaosConfig struct {
	Enabled bool  `yaml:"enabled" env:"AGENTPROBE_CHAOS_ENABLED, overwrite"`
	Seed    int64 `yaml:"seed" env:"AGENTPROBE_CHAOS_SEED, overwrite"`
}

// Config is the top-level agentprobe configuration.
type Config struct {
	ProjectName string           `yaml:"project_name" env:"AGENTPROBE_PROJECT_NAME, overwrite"`
	Runner      RunnerConfig     `yaml:"runner"`
	Judge       JudgeConfig      `yaml:"judge"`
	Snapshot    SnapshotConfig   `yaml:"snapshot"`
	Regression  RegressionConfig `yaml:"regression"`
	Chaos       ChaosConfig      `yaml:"chaos"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Runner: RunnerConfig{
			MaxWorkers:     4,
			TimeoutSeconds: 60,
		},
		Judge: JudgeConfig{
			Provider: "anthropic",
		},
		Snapshot: SnapshotConfig{
			Dir:       ".agentprobe/snapshots",
			Threshold: 0.8,
		},
		Regression: RegressionConfig{
			Dir:       ".agentprobe/baselines",
			Threshold: 0.05,
		},
		Chaos: ChaosConfig{
			Seed: 42,
		},
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolate replaces ${VAR} references with environment values.
// Unset variables are left as-is and logged.
func interpolate(ctx context.Context, raw []byte) []byte {
	return envVarPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := string(envVarPattern.FindSubmatch(match)[1])
		value, ok := os.LookupEnv(name)
		if !ok {
			clog.FromContext(ctx).Warnf("Environment variable %q not set", name)
			return match
		}
		return []byte(value)
	})
}

// Load reads the config file at path, falls back to defaults when the
// file is absent, and applies environment overrides on top.
func Load(ctx context.Context, path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		clog.FromContext(ctx).With("path", path).Debug("No config file, using defaults")
	case err != nil:
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(interpolate(ctx, raw), cfg); err != nil {
			return nil, fmt.Errorf("parsing config %q: %w", path, err)
		}
	}

	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("processing environment overrides: %w", err)
	}
	return cfg, nil
}
