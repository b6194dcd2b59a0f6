package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/turbocop/internal/config"
	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/filefilter"
	"github.com/standardbeagle/turbocop/internal/rubyparse"
)

// trailingCommentStub fires once per file via CheckSource, reporting no
// correction — used to exercise the check_source phase and RuleID
// stamping when a cop leaves Offense.RuleID blank.
type trailingCommentStub struct{ calls int }

func (t *trailingCommentStub) Metadata() cop.Metadata {
	return cop.Metadata{Department: "Style", Name: "FrozenStringLiteralComment"}
}

func (t *trailingCommentStub) CheckSource(ctx *cop.Context, comments []rubyparse.Token) {
	t.calls++
	ctx.Report(cop.Offense{Message: "missing frozen_string_literal comment", Start: 0, End: 0, Severity: cop.SeverityWarning})
}

// sendCounterStub fires on every Send node, reporting an offense with a
// safe correction that deletes the call's source range (a stand-in for
// a real autocorrecting node cop).
type sendCounterStub struct{}

func (s *sendCounterStub) Metadata() cop.Metadata {
	return cop.Metadata{Department: "Style", Name: "RedundantSelf"}
}

func (s *sendCounterStub) InterestedTypes() []rubyparse.Type { return []rubyparse.Type{rubyparse.Send} }

func (s *sendCounterStub) CheckNode(ctx *cop.Context, n *rubyparse.Node) {
	ctx.Report(cop.Offense{
		RuleID:   "Style/RedundantSelf",
		Message:  "redundant use of self",
		Start:    n.Start,
		End:      n.End,
		Severity: cop.SeverityConvention,
		Correction: &cop.Correction{
			Start: n.Start, End: n.End, Replacement: "", Safe: true,
		},
	})
}

func buildOrchestrator(t *testing.T, cops []cop.Cop, allowList map[string]bool) *Orchestrator {
	t.Helper()
	reg := cop.NewRegistry()
	for _, c := range cops {
		reg.Register(c)
	}
	resolved := &config.ResolvedConfig{
		AllCops: config.AllCopsConfig{NewCops: "pending"},
		Cops:    map[string]config.CopConfig{},
	}
	for name, enabled := range allowList {
		e := config.EnabledFalse
		if enabled {
			e = config.EnabledTrue
		}
		resolved.Cops[name] = config.CopConfig{Enabled: e}
	}
	filter := filefilter.New(nil, nil)
	return New(reg, resolved, filter)
}

func TestProcessFileSkipsOutOfScopeFiles(t *testing.T) {
	reg := cop.NewRegistry()
	resolved := &config.ResolvedConfig{Cops: map[string]config.CopConfig{}}
	filter := filefilter.New(nil, []string{"vendor/**"})
	o := New(reg, resolved, filter)

	res := o.ProcessFile("vendor/gem.rb", []byte("x = 1\n"), Options{Autocorrect: ModeOff})
	assert.True(t, res.Skipped)
	assert.Nil(t, res.Diagnostics)
}

func TestProcessFileReportsFatalDiagnosticOnParseFailure(t *testing.T) {
	stub := &trailingCommentStub{}
	o := buildOrchestrator(t, []cop.Cop{stub}, map[string]bool{"Style/FrozenStringLiteralComment": true})

	// An unterminated string literal is rejected by the hand-rolled lexer
	// (as are unterminated regexp, percent and heredoc literals);
	// CheckSource never runs for it.
	res := o.ProcessFile("bad.rb", []byte("x = \"abc\n"), Options{Autocorrect: ModeOff})
	require.Error(t, res.ParseError)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "Lint/Syntax", res.Diagnostics[0].RuleID)
	assert.Equal(t, cop.SeverityFatal, res.Diagnostics[0].Severity)
}

func TestProcessFileRunsSourcePhaseAndStampsBlankRuleID(t *testing.T) {
	stub := &trailingCommentStub{}
	o := buildOrchestrator(t, []cop.Cop{stub}, map[string]bool{"Style/FrozenStringLiteralComment": true})

	res := o.ProcessFile("ok.rb", []byte("x = 1\n"), Options{Autocorrect: ModeOff})
	require.NoError(t, res.ParseError)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "Style/FrozenStringLiteralComment", res.Diagnostics[0].RuleID)
	assert.Equal(t, 1, stub.calls)
}

func TestProcessFileDisabledCopNeverRuns(t *testing.T) {
	stub := &trailingCommentStub{}
	o := buildOrchestrator(t, []cop.Cop{stub}, map[string]bool{"Style/FrozenStringLiteralComment": false})

	res := o.ProcessFile("ok.rb", []byte("x = 1\n"), Options{Autocorrect: ModeOff})
	require.NoError(t, res.ParseError)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 0, stub.calls)
}

func TestProcessFileNodePhaseFiresOnMatchingType(t *testing.T) {
	stub := &sendCounterStub{}
	o := buildOrchestrator(t, []cop.Cop{stub}, map[string]bool{"Style/RedundantSelf": true})

	res := o.ProcessFile("ok.rb", []byte("self.foo\n"), Options{Autocorrect: ModeOff})
	require.NoError(t, res.ParseError)
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, "Style/RedundantSelf", res.Diagnostics[0].RuleID)
	assert.False(t, res.Diagnostics[0].Corrected)
}

func TestProcessFileAutocorrectModeSafeAppliesSafeCorrections(t *testing.T) {
	stub := &sendCounterStub{}
	o := buildOrchestrator(t, []cop.Cop{stub}, map[string]bool{"Style/RedundantSelf": true})

	res := o.ProcessFile("ok.rb", []byte("self.foo\n"), Options{Autocorrect: ModeSafe})
	require.NoError(t, res.ParseError)
	assert.True(t, res.Rewritten)
	require.NotEmpty(t, res.Diagnostics)
	assert.True(t, res.Diagnostics[0].Corrected)
}

func TestProcessFileAutocorrectOffNeverRewrites(t *testing.T) {
	stub := &sendCounterStub{}
	o := buildOrchestrator(t, []cop.Cop{stub}, map[string]bool{"Style/RedundantSelf": true})

	res := o.ProcessFile("ok.rb", []byte("self.foo\n"), Options{Autocorrect: ModeOff})
	assert.False(t, res.Rewritten)
	assert.Nil(t, res.Content)
	require.NotEmpty(t, res.Diagnostics)
	assert.False(t, res.Diagnostics[0].Corrected)
}

func TestProcessFileDirectiveSuppressesNodeOffense(t *testing.T) {
	stub := &sendCounterStub{}
	o := buildOrchestrator(t, []cop.Cop{stub}, map[string]bool{"Style/RedundantSelf": true})

	src := []byte("self.foo # rubocop:disable Style/RedundantSelf\n")
	res := o.ProcessFile("ok.rb", src, Options{Autocorrect: ModeOff})
	require.NoError(t, res.ParseError)
	assert.Empty(t, res.Diagnostics)
}

func TestProcessFileReportsRedundantDisableWhenRuleNeverFires(t *testing.T) {
	stub := &sendCounterStub{}
	o := buildOrchestrator(t, []cop.Cop{stub}, map[string]bool{"Style/RedundantSelf": true})

	src := []byte("x = 1 # rubocop:disable Style/RedundantSelf\n")
	res := o.ProcessFile("ok.rb", src, Options{Autocorrect: ModeOff})
	require.NoError(t, res.ParseError)
	require.Len(t, res.Redundant, 1)
	assert.Equal(t, "Style/RedundantSelf", res.Redundant[0].Rule)
}

// panickyStub panics on its first CheckNode call, to exercise the
// per-cop panic recovery path.
type panickyStub struct{}

func (p *panickyStub) Metadata() cop.Metadata {
	return cop.Metadata{Department: "Lint", Name: "Boom"}
}

func (p *panickyStub) InterestedTypes() []rubyparse.Type { return []rubyparse.Type{rubyparse.Send} }

func (p *panickyStub) CheckNode(ctx *cop.Context, n *rubyparse.Node) {
	panic("boom")
}

func TestProcessFileRecoversPanickingCopAsWarningDiagnostic(t *testing.T) {
	stub := &panickyStub{}
	o := buildOrchestrator(t, []cop.Cop{stub}, map[string]bool{"Lint/Boom": true})

	res := o.ProcessFile("ok.rb", []byte("self.foo\n"), Options{Autocorrect: ModeOff})
	require.NoError(t, res.ParseError)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "Lint/Boom", res.Diagnostics[0].RuleID)
	assert.Equal(t, cop.SeverityWarning, res.Diagnostics[0].Severity)
}

func TestProcessFilePanickingCopCorrectionsAreDropped(t *testing.T) {
	stubs := []cop.Cop{&panickyStub{}, &sendCounterStub{}}
	o := buildOrchestrator(t, stubs, map[string]bool{"Lint/Boom": true, "Style/RedundantSelf": true})

	res := o.ProcessFile("ok.rb", []byte("self.foo\n"), Options{Autocorrect: ModeAll})
	require.NoError(t, res.ParseError)
	assert.True(t, res.Rewritten)

	var sawRedundantSelf bool
	for _, d := range res.Diagnostics {
		if d.RuleID == "Style/RedundantSelf" {
			sawRedundantSelf = true
			assert.True(t, d.Corrected)
		}
	}
	assert.True(t, sawRedundantSelf)
}

func TestProcessFileSortsDiagnosticsByLineThenColumnThenRuleID(t *testing.T) {
	stub := &sendCounterStub{}
	o := buildOrchestrator(t, []cop.Cop{stub}, map[string]bool{"Style/RedundantSelf": true})

	src := []byte("self.a\nself.b\n")
	res := o.ProcessFile("ok.rb", src, Options{Autocorrect: ModeOff})
	require.NoError(t, res.ParseError)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, 1, res.Diagnostics[0].StartLine)
	assert.Equal(t, 2, res.Diagnostics[1].StartLine)
}
