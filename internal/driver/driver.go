// Package driver fans a file set out across worker goroutines bounded
// by a weighted semaphore, each running the per-file orchestrator
// independently, and collates results back into deterministic input
// order (spec §4.8, component K). Follows a concurrency-constant shape
// (DefaultMaxConcurrentOps/DefaultOpsPerCPU/DefaultMinConcurrentOps)
// and a worker-reads-bytes-then-processes split, using
// golang.org/x/sync's errgroup (launch and wait) and semaphore
// (concurrency bound) instead of a hand-rolled channel/WaitGroup
// fan-out; fail-fast is an atomic flag checked before each file starts.
package driver

import (
	"context"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/orchestrator"
)

// boolFlag is a tiny atomic bool wrapper, used for the fail-fast signal
// shared (read and written) across worker goroutines.
type boolFlag struct{ v atomic.Bool }

func (b *boolFlag) get() bool     { return b.v.Load() }
func (b *boolFlag) set(val bool) { b.v.Store(val) }

// Concurrency defaults, applied to file-level (rather than
// index-operation) fan-out.
const (
	DefaultMaxConcurrentOps = 16
	DefaultOpsPerCPU        = 2
	DefaultMinConcurrentOps = 2
)

// DefaultConcurrency picks a worker count from the host's CPU count,
// clamped to [DefaultMinConcurrentOps, DefaultMaxConcurrentOps].
func DefaultConcurrency() int {
	n := runtime.NumCPU() * DefaultOpsPerCPU
	if n > DefaultMaxConcurrentOps {
		n = DefaultMaxConcurrentOps
	}
	if n < DefaultMinConcurrentOps {
		n = DefaultMinConcurrentOps
	}
	return n
}

// Options governs one Driver.Run call.
type Options struct {
	// Concurrency bounds how many files are processed at once. <= 0
	// selects DefaultConcurrency().
	Concurrency int
	// FailFast stops dispatching new files once any completed file
	// holds a diagnostic at or above FailLevel; in-flight files still
	// complete (spec §4.8/§5 cancellation-by-short-circuit).
	FailFast bool
	// FailLevel is the severity floor fail-fast compares against.
	// Defaults to cop.SeverityConvention (RuboCop's own default) when
	// left zero.
	FailLevel cop.Severity
}

// RunResult is the outcome of one Run call: per-file results in the
// same order as the input paths, plus whether fail-fast actually
// triggered (so the caller can report a distinguishable exit status).
type RunResult struct {
	Results     []*orchestrator.Result
	FailFastHit bool
}

// Driver runs one Orchestrator across many files concurrently.
type Driver struct {
	orch *orchestrator.Orchestrator
	opts Options
}

// New builds a Driver. A zero-value Options.Concurrency is replaced
// with DefaultConcurrency(); a zero-value Options.FailLevel is replaced
// with cop.SeverityConvention.
func New(orch *orchestrator.Orchestrator, opts Options) *Driver {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency()
	}
	if opts.FailLevel == "" {
		opts.FailLevel = cop.SeverityConvention
	}
	return &Driver{orch: orch, opts: opts}
}

// severityRank orders severities from least to most severe, for
// fail-level comparison.
var severityRank = map[cop.Severity]int{
	cop.SeverityRefactor:   0,
	cop.SeverityConvention: 1,
	cop.SeverityWarning:    2,
	cop.SeverityError:      3,
	cop.SeverityFatal:      4,
}

func meetsFailLevel(sev, floor cop.Severity) bool {
	if floor == "none" {
		return false
	}
	return severityRank[sev] >= severityRank[floor]
}

// Run reads and processes every path in paths, fanning out up to
// Options.Concurrency files at a time. Parsing happens on the same
// goroutine that processes the file throughout, since ProcessFile owns
// both (spec §4.8's "parsing MUST happen on the worker thread that will
// consume it" constraint is satisfied by construction: nothing here
// hands a ParseResult across goroutines). Results are written into a
// pre-sized slice indexed by the caller's original ordering, so
// collation is deterministic regardless of completion order.
func (d *Driver) Run(ctx context.Context, paths []string, procOpts orchestrator.Options) *RunResult {
	results := make([]*orchestrator.Result, len(paths))
	sem := semaphore.NewWeighted(int64(d.opts.Concurrency))
	g, gctx := errgroup.WithContext(ctx)

	var failFastHit boolFlag

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if failFastHit.get() {
				return nil
			}
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil // context cancelled; not a file error
			}
			defer sem.Release(1)

			if failFastHit.get() {
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				results[i] = &orchestrator.Result{Path: path, ParseError: err}
				return nil
			}

			res := d.orch.ProcessFile(path, content, procOpts)
			results[i] = res

			if d.opts.FailFast && qualifies(res, d.opts.FailLevel) {
				failFastHit.set(true)
			}
			return nil
		})
	}

	_ = g.Wait()
	return &RunResult{Results: results, FailFastHit: failFastHit.get()}
}

func qualifies(res *orchestrator.Result, floor cop.Severity) bool {
	if res == nil {
		return false
	}
	if res.ParseError != nil && meetsFailLevel(cop.SeverityFatal, floor) {
		return true
	}
	for _, d := range res.Diagnostics {
		if meetsFailLevel(d.Severity, floor) {
			return true
		}
	}
	return false
}
