// Package cop defines the rule (cop) contract and the registry that
// holds every built-in and loaded cop, following a capability-interface
// style: prefer small, focused interfaces that a concrete cop either
// implements in full or not at all, and dispatch on the concrete
// interface a value satisfies rather than a big switch.
package cop

import (
	"github.com/standardbeagle/turbocop/internal/codemap"
	"github.com/standardbeagle/turbocop/internal/rubyparse"
	"github.com/standardbeagle/turbocop/internal/source"
)

// Severity is the default severity a cop reports at, overridable per
// project via configuration.
type Severity string

const (
	SeverityRefactor   Severity = "refactor"
	SeverityConvention Severity = "convention"
	SeverityWarning    Severity = "warning"
	SeverityError      Severity = "error"
	SeverityFatal      Severity = "fatal"
)

// Offense is one diagnostic a cop phase method reports.
type Offense struct {
	RuleID     string
	Message    string
	Start      int
	End        int
	Severity   Severity
	Correction *Correction
}

// Correction is a single proposed byte-range replacement, consumed by
// internal/correction. Kept here (rather than imported from that
// package) to avoid a cop -> correction -> cop import cycle; the
// orchestrator converts Corrections from an Offense into the
// correction package's richer type.
type Correction struct {
	Start       int
	End         int
	Replacement string
	Safe        bool
}

// Context is the read-only state a cop's phase methods receive: the
// owning file, its CodeMap and the current per-file cop options (the
// CopConfig's Options map, passed as a plain map to keep this package
// import-free of internal/config).
type Context struct {
	File    *source.File
	Code    *codemap.CodeMap
	Config  map[string]interface{}
	Report  func(Offense)
}

// LineChecker is implemented by cops that inspect raw source lines
// (e.g. line length, trailing whitespace) without needing the AST.
type LineChecker interface {
	CheckLines(ctx *Context)
}

// SourceChecker is implemented by cops that need the whole-file text or
// comment list but not a node-by-node walk (e.g. frozen_string_literal).
type SourceChecker interface {
	CheckSource(ctx *Context, comments []rubyparse.Token)
}

// NodeChecker is implemented by cops that inspect specific AST node
// kinds during the shared walk. InterestedTypes declares which
// rubyparse.Type values the walker should dispatch to CheckNode for;
// returning nil/empty means "every node" (rare, used by structural
// cops).
type NodeChecker interface {
	InterestedTypes() []rubyparse.Type
	CheckNode(ctx *Context, n *rubyparse.Node)
}

// Metadata is the static, always-present description of a cop: its
// identity, department, default severity and autocorrect support. Every
// cop embeds or returns this regardless of which phase interfaces it
// also implements.
type Metadata struct {
	Department        string
	Name              string
	DefaultSeverity   Severity
	SupportsAutocorrect bool
	DefaultInclude    []string
	DefaultExclude    []string
	Description       string
}

// FullName returns "Department/Name", the cop id used in config files,
// inline directives and CLI --only/--except flags.
func (m Metadata) FullName() string {
	return m.Department + "/" + m.Name
}

// Cop is the full contract a rule implements. Every cop reports its own
// Metadata; it may additionally implement LineChecker, SourceChecker
// and/or NodeChecker for the phases it participates in.
type Cop interface {
	Metadata() Metadata
}
