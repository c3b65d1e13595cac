/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package snapshot stores traces as named golden files and compares
// current traces against them across weighted dimensions.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/agentprobe/similarity"
	"chainguard.dev/agentprobe/trace"
)

// ErrNotFound is returned when a named snapshot does not exist. It is
// always recoverable: treat it as "no golden file yet" and save one.
var ErrNotFound = errors.New("snapshot not found")

// DefaultThreshold is the overall-similarity floor for a match.
const DefaultThreshold = 0.8

// Comparison dimension weights. Tool calls and output dominate; token
// usage and latency are secondary signals.
var dimensionWeights = map[string]float64{
	"tool_calls":  0.35,
	"output":      0.35,
	"token_usage": 0.15,
	"latency":     0.15,
}

// Diff is the result of comparing a current trace against a saved
// snapshot.
type Diff struct {
	SnapshotName      string           `json:"snapshot_name"`
	OverallSimilarity float64          `json:"overall_similarity"`
	Diffs             []trace.DiffItem `json:"diffs"`
	IsMatch           bool             `json:"is_match"`
	Threshold         float64          `json:"threshold"`
}

// Manager saves, loads, and compares snapshot files. One JSON file per
// snapshot name; writes overwrite silently, last writer wins, and no file
// locking is taken. The directory is assumed single-writer.
type Manager struct {
	dir       string
	threshold float64
}

// Option configures a Manager.
type Option func(*Manager)

// WithThreshold overrides the match threshold.
func WithThreshold(threshold float64) Option {
	return func(m *Manager) {
		m.threshold = threshold
	}
}

// NewManager creates a snapshot manager rooted at dir.
func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{
		dir:       dir,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+".json")
}

// Save serializes the trace under the given name, creating parent
// directories as needed. An existing snapshot is overwritten silently.
func (m *Manager) Save(ctx context.Context, name string, tr *trace.Trace) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot %q: %w", name, err)
	}
	path := m.path(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %q: %w", name, err)
	}

	clog.FromContext(ctx).With("snapshot", name, "path", path).Info("Snapshot saved")
	return nil
}

// Load reads the named snapshot from disk.
func (m *Manager) Load(_ context.Context, name string) (*trace.Trace, error) {
	data, err := os.ReadFile(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("reading snapshot %q: %w", name, err)
	}

	var tr trace.Trace
	if err := json.Unmarshal(data, &tr); err != nil {
		// Corrupt files are a plain decode failure, not ErrNotFound.
		return nil, fmt.Errorf("decoding snapshot %q: %w", name, err)
	}
	return &tr, nil
}

// Exists reports whether the named snapshot is on disk.
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.path(name))
	return err == nil
}

// List returns all snapshot names, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing snapshots: %w", err)
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

// Delete removes the named snapshot, reporting whether it existed.
func (m *Manager) Delete(ctx context.Context, name string) (bool, error) {
	err := os.Remove(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("deleting snapshot %q: %w", name, err)
	}
	clog.FromContext(ctx).With("snapshot", name).Info("Snapshot deleted")
	return true, nil
}

// UpdateAll saves every entry in the map, returning the number written.
func (m *Manager) UpdateAll(ctx context.Context, snapshots map[string]*trace.Trace) (int, error) {
	count := 0
	for name, tr := range snapshots {
		if err := m.Save(ctx, name, tr); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Compare loads the named snapshot and scores the current trace against
// it across four weighted dimensions: tool-call sequence (index-wise
// equality, not edit distance), output keyword overlap, token-usage
// ratio, and latency ratio.
func (m *Manager) Compare(ctx context.Context, name string, current *trace.Trace) (*Diff, error) {
	baseline, err := m.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	baselineTools := baseline.ToolNames()
	currentTools := current.ToolNames()

	diffs := []trace.DiffItem{{
		Dimension:  "tool_calls",
		Expected:   baselineTools,
		Actual:     currentTools,
		Similarity: trace.Round4(similarity.Sequence(baselineTools, currentTools)),
	}, {
		Dimension:  "output",
		Expected:   truncate(baseline.OutputText, 200),
		Actual:     truncate(current.OutputText, 200),
		Similarity: trace.Round4(similarity.KeywordOverlap(baseline.OutputText, current.OutputText)),
	}, {
		Dimension:  "token_usage",
		Expected:   baseline.TotalTokens(),
		Actual:     current.TotalTokens(),
		Similarity: trace.Round4(similarity.Ratio(baseline.TotalTokens(), current.TotalTokens())),
	}, {
		Dimension:  "latency",
		Expected:   baseline.TotalLatencyMS,
		Actual:     current.TotalLatencyMS,
		Similarity: trace.Round4(similarity.Ratio(baseline.TotalLatencyMS, current.TotalLatencyMS)),
	}}

	overall := 0.0
	for _, d := range diffs {
		overall += d.Similarity * dimensionWeights[d.Dimension]
	}
	overall = trace.Round4(overall)

	diff := &Diff{
		SnapshotName:      name,
		OverallSimilarity: overall,
		Diffs:             diffs,
		IsMatch:           overall >= m.threshold,
		Threshold:         m.threshold,
	}
	observeDiff(diff)
	return diff, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
