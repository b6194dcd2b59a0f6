// Package conformance provides a golden-fixture harness: run the
// orchestrator over a small Ruby fixture, serialize its diagnostics to
// JSON, and compare against (or, in update mode, overwrite) a committed
// snapshot file (spec §8, component N — end-to-end scenario coverage).
// Follows a Load/Save/CompareSnapshots trio and an UPDATE_SNAPSHOTS
// environment convention, narrowed from a reference-graph snapshot
// shape (ProjectSnapshot/ReferenceSnapshot) to a diagnostics-list
// shape: one snapshot file per named scenario, holding the sorted
// diagnostics the orchestrator produced for a fixture.
package conformance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/turbocop/internal/orchestrator"
)

// Mode determines how Run reconciles actual results against disk.
type Mode string

const (
	// ModeCompare fails the test on any mismatch against the committed
	// snapshot.
	ModeCompare Mode = "compare"
	// ModeUpdate overwrites the committed snapshot with the current
	// result instead of comparing.
	ModeUpdate Mode = "update"
)

// CurrentMode reads UPDATE_SNAPSHOTS from the environment, an
// update-in-CI-less-environments convention.
func CurrentMode() Mode {
	if os.Getenv("UPDATE_SNAPSHOTS") == "true" {
		return ModeUpdate
	}
	return ModeCompare
}

// Diagnostic is the JSON-stable projection of orchestrator.Diagnostic
// used in snapshots. Start/End byte offsets are omitted: they shift
// with unrelated whitespace edits to a fixture and aren't part of the
// user-visible contract a conformance test protects.
type Diagnostic struct {
	RuleID    string `json:"rule_id"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	Corrected bool   `json:"corrected"`
}

// Snapshot is the full recorded outcome of running one fixture.
type Snapshot struct {
	Fixture     string       `json:"fixture"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Redundant   []string     `json:"redundant_directives,omitempty"`
	Rewritten   bool         `json:"rewritten"`
	Corrected   string       `json:"corrected_content,omitempty"`
}

// FromResult projects an orchestrator.Result into its snapshot form.
func FromResult(fixture string, res *orchestrator.Result) *Snapshot {
	snap := &Snapshot{Fixture: fixture, Rewritten: res.Rewritten}
	for _, d := range res.Diagnostics {
		snap.Diagnostics = append(snap.Diagnostics, Diagnostic{
			RuleID:    d.RuleID,
			Severity:  string(d.Severity),
			Message:   d.Message,
			StartLine: d.StartLine,
			StartCol:  d.StartCol,
			EndLine:   d.EndLine,
			EndCol:    d.EndCol,
			Corrected: d.Corrected,
		})
	}
	for _, r := range res.Redundant {
		snap.Redundant = append(snap.Redundant, fmt.Sprintf("%s:%d", r.Rule, r.Line))
	}
	if res.Rewritten {
		snap.Corrected = string(res.Content)
	}
	return snap
}

// Dir is the root directory snapshots are stored under, relative to
// the test package's own directory (package-local testdata, per Go
// convention).
const Dir = "testdata/conformance"

// Path returns the on-disk path for a named scenario's snapshot.
func Path(name string) string {
	return filepath.Join(Dir, name+".json")
}

// Load reads a committed snapshot from disk.
func Load(name string) (*Snapshot, error) {
	data, err := os.ReadFile(Path(name))
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("conformance: invalid snapshot %s: %w", name, err)
	}
	return &snap, nil
}

// Save writes snap to disk under name, creating Dir as needed.
func Save(name string, snap *Snapshot) error {
	if err := os.MkdirAll(Dir, 0755); err != nil {
		return fmt.Errorf("conformance: creating snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("conformance: marshaling snapshot %s: %w", name, err)
	}
	return os.WriteFile(Path(name), data, 0644)
}

// Run processes fixturePath's content with orch and reconciles the
// resulting snapshot against the committed one named name: in
// ModeUpdate it overwrites the committed file; in ModeCompare it fails
// t on any mismatch via require-style t.Fatalf/t.Errorf calls.
func Run(t *testing.T, name string, orch *orchestrator.Orchestrator, opts orchestrator.Options, fixturePath string) *orchestrator.Result {
	t.Helper()

	content, err := os.ReadFile(fixturePath)
	if err != nil {
		t.Fatalf("conformance: reading fixture %s: %v", fixturePath, err)
	}

	res := orch.ProcessFile(fixturePath, content, opts)
	actual := FromResult(name, res)

	switch CurrentMode() {
	case ModeUpdate:
		if err := Save(name, actual); err != nil {
			t.Fatalf("conformance: saving snapshot %s: %v", name, err)
		}
	default:
		expected, err := Load(name)
		if err != nil {
			t.Fatalf("conformance: loading snapshot %s (run with UPDATE_SNAPSHOTS=true to create it): %v", name, err)
		}
		compare(t, name, expected, actual)
	}

	return res
}

func compare(t *testing.T, name string, expected, actual *Snapshot) {
	t.Helper()

	if expected.Rewritten != actual.Rewritten {
		t.Errorf("%s: Rewritten mismatch: expected %v, got %v", name, expected.Rewritten, actual.Rewritten)
	}
	if expected.Corrected != actual.Corrected {
		t.Errorf("%s: corrected content mismatch:\n--- expected ---\n%s\n--- actual ---\n%s", name, expected.Corrected, actual.Corrected)
	}

	if len(expected.Diagnostics) != len(actual.Diagnostics) {
		t.Errorf("%s: diagnostic count mismatch: expected %d, got %d\nexpected: %+v\nactual:   %+v",
			name, len(expected.Diagnostics), len(actual.Diagnostics), expected.Diagnostics, actual.Diagnostics)
		return
	}
	for i := range expected.Diagnostics {
		if expected.Diagnostics[i] != actual.Diagnostics[i] {
			t.Errorf("%s: diagnostic[%d] mismatch:\nexpected: %+v\nactual:   %+v", name, i, expected.Diagnostics[i], actual.Diagnostics[i])
		}
	}

	if len(expected.Redundant) != len(actual.Redundant) {
		t.Errorf("%s: redundant-directive count mismatch: expected %v, got %v", name, expected.Redundant, actual.Redundant)
		return
	}
	for i := range expected.Redundant {
		if expected.Redundant[i] != actual.Redundant[i] {
			t.Errorf("%s: redundant-directive[%d] mismatch: expected %s, got %s", name, i, expected.Redundant[i], actual.Redundant[i])
		}
	}
}
