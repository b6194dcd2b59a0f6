package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/turbocop/internal/config"
	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/filefilter"
	"github.com/standardbeagle/turbocop/internal/orchestrator"
)

// TestMain guards against goroutine leaks from the semaphore/errgroup
// fan-out.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}

// alwaysWarnStub reports one offense at its configured severity per
// file via check_lines, regardless of content.
type alwaysWarnStub struct{ severity cop.Severity }

func (a *alwaysWarnStub) Metadata() cop.Metadata {
	return cop.Metadata{Department: "Lint", Name: "Always"}
}

func (a *alwaysWarnStub) CheckLines(ctx *cop.Context) {
	ctx.Report(cop.Offense{Message: "always fires", Start: 0, End: 0, Severity: a.severity})
}

func buildTestOrchestrator(t *testing.T, severity cop.Severity) *orchestrator.Orchestrator {
	t.Helper()
	reg := cop.NewRegistry()
	reg.Register(&alwaysWarnStub{severity: severity})
	resolved := &config.ResolvedConfig{
		AllCops: config.AllCopsConfig{NewCops: "pending"},
		Cops:    map[string]config.CopConfig{"Lint/Always": {Enabled: config.EnabledTrue}},
	}
	filter := filefilter.New(nil, nil)
	return orchestrator.New(reg, resolved, filter)
}

func writeTempFiles(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, "f"+string(rune('a'+i))+".rb")
		require.NoError(t, os.WriteFile(p, []byte("x = 1\n"), 0644))
		paths[i] = p
	}
	return paths
}

func TestRunProcessesEveryFileAndPreservesInputOrder(t *testing.T) {
	paths := writeTempFiles(t, 5)
	o := buildTestOrchestrator(t, cop.SeverityWarning)
	d := New(o, Options{Concurrency: 2})

	res := d.Run(context.Background(), paths, orchestrator.Options{Autocorrect: orchestrator.ModeOff})
	require.Len(t, res.Results, 5)
	for i, r := range res.Results {
		require.NotNil(t, r)
		assert.Equal(t, paths[i], r.Path)
		require.Len(t, r.Diagnostics, 1)
	}
	assert.False(t, res.FailFastHit)
}

func TestRunDefaultsConcurrencyWhenUnset(t *testing.T) {
	paths := writeTempFiles(t, 3)
	o := buildTestOrchestrator(t, cop.SeverityWarning)
	d := New(o, Options{})

	res := d.Run(context.Background(), paths, orchestrator.Options{Autocorrect: orchestrator.ModeOff})
	require.Len(t, res.Results, 3)
	for _, r := range res.Results {
		require.NotNil(t, r)
	}
}

func TestRunReportsMissingFileAsParseError(t *testing.T) {
	paths := []string{"/nonexistent/path/does-not-exist.rb"}
	o := buildTestOrchestrator(t, cop.SeverityWarning)
	d := New(o, Options{Concurrency: 1})

	res := d.Run(context.Background(), paths, orchestrator.Options{Autocorrect: orchestrator.ModeOff})
	require.Len(t, res.Results, 1)
	require.NotNil(t, res.Results[0])
	assert.Error(t, res.Results[0].ParseError)
}

func TestRunFailFastSetsFlagWhenQualifyingDiagnosticSeen(t *testing.T) {
	paths := writeTempFiles(t, 8)
	o := buildTestOrchestrator(t, cop.SeverityError)
	d := New(o, Options{Concurrency: 2, FailFast: true, FailLevel: cop.SeverityWarning})

	res := d.Run(context.Background(), paths, orchestrator.Options{Autocorrect: orchestrator.ModeOff})
	assert.True(t, res.FailFastHit)
}

func TestRunFailFastNeverTriggersBelowFailLevel(t *testing.T) {
	paths := writeTempFiles(t, 4)
	o := buildTestOrchestrator(t, cop.SeverityConvention)
	d := New(o, Options{Concurrency: 2, FailFast: true, FailLevel: cop.SeverityError})

	res := d.Run(context.Background(), paths, orchestrator.Options{Autocorrect: orchestrator.ModeOff})
	assert.False(t, res.FailFastHit)
	require.Len(t, res.Results, 4)
	for _, r := range res.Results {
		require.NotNil(t, r)
	}
}

func TestMeetsFailLevelOrdersSeverities(t *testing.T) {
	assert.True(t, meetsFailLevel(cop.SeverityFatal, cop.SeverityWarning))
	assert.True(t, meetsFailLevel(cop.SeverityWarning, cop.SeverityWarning))
	assert.False(t, meetsFailLevel(cop.SeverityConvention, cop.SeverityWarning))
}

func TestDefaultConcurrencyIsWithinBounds(t *testing.T) {
	n := DefaultConcurrency()
	assert.GreaterOrEqual(t, n, DefaultMinConcurrentOps)
	assert.LessOrEqual(t, n, DefaultMaxConcurrentOps)
}
