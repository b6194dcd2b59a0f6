// Package orchestrator runs the per-file pipeline (spec §4.7,
// component J): filter, parse, codemap, per-cop config resolution, the
// three check phases, directive filtering, and optional autocorrection.
// Modeled on a FileProcessor.processFile shape: a single-file,
// single-goroutine pipeline
// producing one result struct with a Stage/Duration/Error shape,
// reused here as Result's Skipped/ParseError fields; parallel fan-out
// across files is the driver's job (internal/driver), not this
// package's.
package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/standardbeagle/turbocop/internal/config"
	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/correction"
	"github.com/standardbeagle/turbocop/internal/directive"
	"github.com/standardbeagle/turbocop/internal/filefilter"
	"github.com/standardbeagle/turbocop/internal/rubyparse"
	"github.com/standardbeagle/turbocop/internal/source"
	"github.com/standardbeagle/turbocop/internal/tcerrors"
	"github.com/standardbeagle/turbocop/internal/walker"
)

// AutocorrectMode selects which corrections Apply will splice in.
type AutocorrectMode string

const (
	ModeOff  AutocorrectMode = "off"
	ModeSafe AutocorrectMode = "safe"
	ModeAll  AutocorrectMode = "all"
)

// Options governs one ProcessFile call.
type Options struct {
	Autocorrect           AutocorrectMode
	IgnoreDisableComments bool
}

// Diagnostic is one finalized, emission-ready finding: a cop's Offense
// resolved against per-file config and directive suppression, with byte
// offsets translated to 1-based line/column.
type Diagnostic struct {
	Path      string
	RuleID    string
	Severity  cop.Severity
	Message   string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	Start     int
	End       int
	Corrected bool
}

// Result is the outcome of processing one file.
type Result struct {
	Path        string
	Skipped     bool // filtered out by AllCops Include/Exclude
	ParseError  error
	Diagnostics []Diagnostic
	Rewritten   bool
	Content     []byte // the rewritten bytes, only set when Rewritten
	Redundant   []directive.RedundantDirective
}

// Orchestrator holds the shared, read-only state every file is
// processed against: the cop registry and the resolved configuration.
// Per the parallel-driver contract (spec §4.8) an Orchestrator value is
// safe to share read-only across worker goroutines; all of
// ProcessFile's mutable state is local to the call.
type Orchestrator struct {
	registry *cop.Registry
	resolved *config.ResolvedConfig
	filter   *filefilter.Filter
}

// New builds an Orchestrator from a cop registry, resolved config, and
// the AllCops-level file filter.
func New(registry *cop.Registry, resolved *config.ResolvedConfig, filter *filefilter.Filter) *Orchestrator {
	return &Orchestrator{registry: registry, resolved: resolved, filter: filter}
}

// appliedCop is one enabled, in-scope cop plus its merged per-file options.
type appliedCop struct {
	ruleID  string
	cop     cop.Cop
	options map[string]interface{}
}

// ProcessFile runs the full per-file pipeline against path's content.
func (o *Orchestrator) ProcessFile(path string, content []byte, opts Options) *Result {
	res := &Result{Path: path}

	// 1. file filter
	if !o.filter.InScope(path) {
		res.Skipped = true
		return res
	}

	file := source.New(path, content)
	applicable := o.applicableCops(path)

	var offenses []cop.Offense
	corrections := correction.NewSet()

	// 5. check_lines always runs, even on parse failure — line-phase
	// cops inspect raw source, not the AST.
	for _, e := range applicable {
		lc, ok := e.cop.(cop.LineChecker)
		if !ok {
			continue
		}
		report := reporter(&offenses, corrections, e.ruleID)
		runGuarded(e.ruleID, path, "check_lines", corrections, report, func() {
			lc.CheckLines(&cop.Context{File: file, Config: e.options, Report: report})
		})
	}

	// 2/3. parse + codemap
	parseResult, err := rubyparse.Parse(path, content)
	if err != nil {
		res.ParseError = err
		offenses = append(offenses, cop.Offense{
			RuleID:   "Lint/Syntax",
			Message:  fmt.Sprintf("%s: %v", path, err),
			Severity: cop.SeverityFatal,
		})
		res.Diagnostics = finalize(path, file, offenses, o.resolved, nil)
		return res
	}
	code := parseResult.CodeMap()

	// 6. check_source
	for _, e := range applicable {
		sc, ok := e.cop.(cop.SourceChecker)
		if !ok {
			continue
		}
		report := reporter(&offenses, corrections, e.ruleID)
		runGuarded(e.ruleID, path, "check_source", corrections, report, func() {
			sc.CheckSource(&cop.Context{File: file, Code: code, Config: e.options, Report: report}, parseResult.Comments)
		})
	}

	// 7. build dispatch table, walk once
	table := walker.NewTable()
	for _, e := range applicable {
		nc, ok := e.cop.(cop.NodeChecker)
		if !ok {
			continue
		}
		report := reporter(&offenses, corrections, e.ruleID)
		ctx := &cop.Context{File: file, Code: code, Config: e.options, Report: report}
		guarded := &recoveringNodeChecker{inner: nc, ruleID: e.ruleID, path: path, report: report, corrections: corrections}
		table.Add(walker.Entry{Cop: guarded, Ctx: ctx})
	}
	table.Walk(parseResult)

	// 8. directives
	comments := make([]directive.CommentText, 0, len(parseResult.Comments))
	for _, c := range parseResult.Comments {
		comments = append(comments, directive.CommentText{Text: c.Text, Start: c.Start})
	}
	dirSet := directive.Parse(file, comments)
	dirSet.SetIgnoreDisableComments(opts.IgnoreDisableComments)

	fired := make(map[string]bool, len(offenses))
	for _, off := range offenses {
		fired[off.RuleID] = true
	}
	res.Redundant = dirSet.RedundantDisables(fired)

	filtered := dirSet.Filter(file, offenses)

	// 9. autocorrect
	var correctedKeys map[string]bool
	if opts.Autocorrect != ModeOff {
		kept := corrections.Kept()
		newContent, applied, err := correction.Apply(content, kept, opts.Autocorrect == ModeAll)
		if err != nil {
			ruleID := ""
			var ce *tcerrors.CorrectionError
			if errors.As(err, &ce) {
				ruleID = ce.RuleID
			}
			filtered = append(filtered, cop.Offense{RuleID: ruleID, Message: err.Error(), Severity: cop.SeverityWarning})
		}
		if err == nil && len(applied) > 0 {
			res.Rewritten = true
			res.Content = newContent
			correctedKeys = make(map[string]bool, len(applied))
			for _, a := range applied {
				correctedKeys[correctionKey(a.RuleID, a.Start, a.End)] = true
			}
		}
	}

	res.Diagnostics = finalize(path, file, filtered, o.resolved, correctedKeys)
	return res
}

// WriteCorrected atomically rewrites path with content via
// rename-over-tmp in the same directory, so a crash mid-write never
// leaves a partially-written file (spec §4.4/§4.8).
func WriteCorrected(path string, content []byte) error {
	tmp := path + ".turbocop-tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (o *Orchestrator) applicableCops(path string) []appliedCop {
	var out []appliedCop
	for _, c := range o.registry.All() {
		meta := c.Metadata()
		full := meta.FullName()
		if !o.resolved.IsEnabled(full) {
			continue
		}
		cc := o.resolved.CopConfigFor(full)

		include := cc.Include
		if len(include) == 0 {
			include = meta.DefaultInclude
		}
		exclude := append(append([]string{}, meta.DefaultExclude...), cc.Exclude...)
		if !o.filter.CopApplies(path, include, exclude) {
			continue
		}
		out = append(out, appliedCop{ruleID: full, cop: c, options: cc.Options})
	}
	return out
}

// reporter returns a Report callback that appends the offense
// (stamping its RuleID if the cop left it blank) to offenses, and, when
// the offense carries a Correction, registers it into corrections.
func reporter(offenses *[]cop.Offense, corrections *correction.Set, ruleID string) func(cop.Offense) {
	return func(o cop.Offense) {
		if o.RuleID == "" {
			o.RuleID = ruleID
		}
		*offenses = append(*offenses, o)
		if o.Correction != nil {
			corrections.Add(correction.Correction{
				RuleID:      ruleID,
				Start:       o.Correction.Start,
				End:         o.Correction.End,
				Replacement: o.Correction.Replacement,
				Safe:        o.Correction.Safe,
			})
		}
	}
}

// runGuarded invokes fn, recovering a panic into a warning diagnostic
// and discarding ruleID's corrections for this file (spec §7: a cop
// that panics is caught at the file boundary; analysis continues).
func runGuarded(ruleID, path, phase string, corrections *correction.Set, report func(cop.Offense), fn func()) {
	defer func() {
		if r := recover(); r != nil {
			corrections.DropRule(ruleID)
			err := tcerrors.NewRuleError(ruleID, path, phase, fmt.Errorf("%v", r))
			report(cop.Offense{RuleID: ruleID, Message: err.Error(), Severity: cop.SeverityWarning})
		}
	}()
	fn()
}

// recoveringNodeChecker wraps a NodeChecker so a panic during one
// CheckNode call is caught, reported once as a warning, and the cop is
// silently skipped for the remainder of the walk rather than risking a
// repeat panic on every node.
type recoveringNodeChecker struct {
	inner       cop.NodeChecker
	ruleID      string
	path        string
	report      func(cop.Offense)
	corrections *correction.Set
	panicked    bool
}

func (r *recoveringNodeChecker) InterestedTypes() []rubyparse.Type { return r.inner.InterestedTypes() }

func (r *recoveringNodeChecker) CheckNode(ctx *cop.Context, n *rubyparse.Node) {
	if r.panicked {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.panicked = true
			r.corrections.DropRule(r.ruleID)
			err := tcerrors.NewRuleError(r.ruleID, r.path, "check_node", fmt.Errorf("%v", rec))
			r.report(cop.Offense{RuleID: r.ruleID, Message: err.Error(), Severity: cop.SeverityWarning})
		}
	}()
	r.inner.CheckNode(ctx, n)
}

func correctionKey(ruleID string, start, end int) string {
	return fmt.Sprintf("%s|%d|%d", ruleID, start, end)
}

func finalize(path string, file *source.File, offenses []cop.Offense, resolved *config.ResolvedConfig, correctedKeys map[string]bool) []Diagnostic {
	diags := make([]Diagnostic, 0, len(offenses))
	for _, o := range offenses {
		sev := o.Severity
		if cc, ok := resolved.Cops[o.RuleID]; ok && cc.Severity != "" {
			sev = cop.Severity(cc.Severity)
		}
		startPos := file.OffsetToPosition(o.Start)
		endPos := file.OffsetToPosition(o.End)

		corrected := false
		if o.Correction != nil && correctedKeys != nil {
			corrected = correctedKeys[correctionKey(o.RuleID, o.Correction.Start, o.Correction.End)]
		}

		diags = append(diags, Diagnostic{
			Path:      path,
			RuleID:    o.RuleID,
			Severity:  sev,
			Message:   o.Message,
			StartLine: startPos.Line,
			StartCol:  startPos.Column,
			EndLine:   endPos.Line,
			EndCol:    endPos.Column,
			Start:     o.Start,
			End:       o.End,
			Corrected: corrected,
		})
	}

	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Path != diags[j].Path {
			return diags[i].Path < diags[j].Path
		}
		if diags[i].StartLine != diags[j].StartLine {
			return diags[i].StartLine < diags[j].StartLine
		}
		if diags[i].StartCol != diags[j].StartCol {
			return diags[i].StartCol < diags[j].StartCol
		}
		return diags[i].RuleID < diags[j].RuleID
	})
	return dedupe(diags)
}

func dedupe(diags []Diagnostic) []Diagnostic {
	out := diags[:0:0]
	seen := make(map[string]bool, len(diags))
	for _, d := range diags {
		key := fmt.Sprintf("%s|%s|%d|%d|%s", d.Path, d.RuleID, d.Start, d.End, d.Message)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}
