package style

import (
	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/rubyparse"
)

// selfExemptMethods lists method calls on an explicit `self` receiver
// that are never redundant to qualify, mirroring RuboCop's own
// AllowedMethods default: `self.class` is idiomatic even though Ruby
// would resolve the bare `class` call identically.
var selfExemptMethods = map[string]bool{"class": true}

// RedundantSelf flags an explicit `self.` receiver on a method call
// where Ruby would resolve the same call without it, and autocorrects
// by deleting the receiver and its dot. Like every built-in cop it is
// enabled by default (cops.BuiltinDefaults); a project that sets it to
// Enabled: pending gets it only when AllCops.NewCops resolves to enable.
type RedundantSelf struct{}

func (RedundantSelf) Metadata() cop.Metadata {
	return cop.Metadata{
		Department:          "Style",
		Name:                "RedundantSelf",
		DefaultSeverity:     cop.SeverityConvention,
		SupportsAutocorrect: true,
		Description:         "Checks for redundant uses of `self` as an explicit method-call receiver.",
	}
}

func (RedundantSelf) InterestedTypes() []rubyparse.Type {
	return []rubyparse.Type{rubyparse.Send}
}

func (RedundantSelf) CheckNode(ctx *cop.Context, n *rubyparse.Node) {
	if n.Receiver == nil || n.Receiver.Type != rubyparse.Self {
		return
	}
	if n.Name == "" || selfExemptMethods[n.Name] {
		return
	}
	// self.foo= requires the explicit receiver to disambiguate from a
	// local-variable assignment; self.foo(...) = operators and
	// self[...] likewise keep their receiver.
	if isAssignmentMethodName(n.Name) {
		return
	}

	text := ctx.File.Text
	dot := indexOf(text, n.Receiver.End, n.End, '.')
	if dot < 0 {
		return
	}

	ctx.Report(cop.Offense{
		Message:  "Redundant `self` detected.",
		Start:    n.Receiver.Start,
		End:      n.End,
		Severity: cop.SeverityConvention,
		Correction: &cop.Correction{
			Start: n.Receiver.Start, End: dot + 1, Replacement: "", Safe: true,
		},
	})
}

func isAssignmentMethodName(name string) bool {
	if len(name) == 0 {
		return false
	}
	return name[len(name)-1] == '='
}

func indexOf(text []byte, start, end int, b byte) int {
	if end > len(text) {
		end = len(text)
	}
	for i := start; i < end; i++ {
		if text[i] == b {
			return i
		}
	}
	return -1
}
