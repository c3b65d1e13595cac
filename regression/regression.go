/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package regression stores named baselines of test results and compares
// current runs against them to flag score regressions and improvements.
package regression

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/agentprobe/runner"
)

// ErrNotFound is returned when a named baseline does not exist.
var ErrNotFound = errors.New("baseline not found")

// DefaultThreshold is the minimum absolute score delta flagged as a
// regression or improvement. Deltas at exactly the threshold count as
// unchanged.
const DefaultThreshold = 0.05

// TestComparison is one test's score change between baseline and current.
type TestComparison struct {
	TestName      string  `json:"test_name"`
	BaselineScore float64 `json:"baseline_score"`
	CurrentScore  float64 `json:"current_score"`
	Delta         float64 `json:"delta"`
	IsRegression  bool    `json:"is_regression"`
	IsImprovement bool    `json:"is_improvement"`
}

// Report summarizes a baseline-vs-current comparison.
type Report struct {
	BaselineName string           `json:"baseline_name"`
	Comparisons  []TestComparison `json:"comparisons"`
	TotalTests   int              `json:"total_tests"`
	Regressions  int              `json:"regressions"`
	Improvements int              `json:"improvements"`
	Unchanged    int              `json:"unchanged"`
	Threshold    float64          `json:"threshold"`
}

// HasRegressions reports whether any test regressed.
func (r *Report) HasRegressions() bool {
	return r.Regressions > 0
}

// BaselineManager stores named sets of test results as JSON files. One
// file per baseline name; saves overwrite silently.
type BaselineManager struct {
	dir string
}

// NewBaselineManager creates a manager rooted at dir.
func NewBaselineManager(dir string) *BaselineManager {
	return &BaselineManager{dir: dir}
}

func (m *BaselineManager) path(name string) string {
	return filepath.Join(m.dir, name+".json")
}

// Save writes the results as a named baseline, creating the directory if
// needed.
func (m *BaselineManager) Save(ctx context.Context, name string, results []*runner.TestResult) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("creating baseline dir: %w", err)
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding baseline %q: %w", name, err)
	}
	if err := os.WriteFile(m.path(name), data, 0o644); err != nil {
		return fmt.Errorf("writing baseline %q: %w", name, err)
	}

	clog.FromContext(ctx).With("baseline", name, "results", len(results)).Info("Baseline saved")
	return nil
}

// Load reads a named baseline from disk.
func (m *BaselineManager) Load(_ context.Context, name string) ([]*runner.TestResult, error) {
	data, err := os.ReadFile(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("reading baseline %q: %w", name, err)
	}

	var results []*runner.TestResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decoding baseline %q: %w", name, err)
	}
	return results, nil
}

// Exists reports whether the named baseline is on disk.
func (m *BaselineManager) Exists(name string) bool {
	_, err := os.Stat(m.path(name))
	return err == nil
}

// List returns all baseline names, sorted.
func (m *BaselineManager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing baselines: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a named baseline, reporting whether it existed.
func (m *BaselineManager) Delete(ctx context.Context, name string) (bool, error) {
	err := os.Remove(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("deleting baseline %q: %w", name, err)
	}
	clog.FromContext(ctx).With("baseline", name).Info("Baseline deleted")
	return true, nil
}

// Detector compares current test results against a baseline.
type Detector struct {
	threshold float64
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithThreshold overrides the delta threshold.
func WithThreshold(threshold float64) DetectorOption {
	return func(d *Detector) {
		d.threshold = threshold
	}
}

// NewDetector creates a regression detector.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Compare matches tests by name and flags per-test score changes. Tests
// present in only one of the two sets are excluded. Comparisons follow
// the baseline result order.
func (d *Detector) Compare(ctx context.Context, baselineName string, baseline, current []*runner.TestResult) *Report {
	log := clog.FromContext(ctx)

	currentByName := make(map[string]*runner.TestResult, len(current))
	for _, r := range current {
		if _, ok := currentByName[r.TestName]; !ok {
			currentByName[r.TestName] = r
		}
	}

	report := &Report{
		BaselineName: baselineName,
		Threshold:    d.threshold,
	}
	seen := make(map[string]bool, len(baseline))
	for _, bl := range baseline {
		cr, ok := currentByName[bl.TestName]
		if !ok || seen[bl.TestName] {
			continue
		}
		seen[bl.TestName] = true

		delta := round6(cr.Score - bl.Score)
		comparison := TestComparison{
			TestName:      bl.TestName,
			BaselineScore: bl.Score,
			CurrentScore:  cr.Score,
			Delta:         delta,
			IsRegression:  delta < -d.threshold,
			IsImprovement: delta > d.threshold,
		}

		switch {
		case comparison.IsRegression:
			report.Regressions++
			log.With("test", bl.TestName).
				Warnf("Regression detected: %.3f -> %.3f (delta=%.3f)", bl.Score, cr.Score, delta)
		case comparison.IsImprovement:
			report.Improvements++
			log.With("test", bl.TestName).
				Infof("Improvement detected: %.3f -> %.3f (delta=%.3f)", bl.Score, cr.Score, delta)
		default:
			report.Unchanged++
		}
		report.Comparisons = append(report.Comparisons, comparison)
	}

	report.TotalTests = len(report.Comparisons)
	observeReport(report)
	return report
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
