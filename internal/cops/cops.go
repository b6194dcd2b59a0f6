// Package cops is the single place that wires every built-in cop into
// a registry, following a one-bootstrap-function-assembles-every-
// subsystem pattern rather than scattering init()-time registration
// across packages.
package cops

import (
	"github.com/standardbeagle/turbocop/internal/config"
	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/cops/layout"
	"github.com/standardbeagle/turbocop/internal/cops/style"
)

// RegisterAll registers every built-in cop shipped with the engine into
// reg. Called once at startup by cmd/turbocop, and by tests that want
// the full built-in set rather than a hand-picked subset.
func RegisterAll(reg *cop.Registry) {
	reg.Register(layout.LineLength{})
	reg.Register(layout.TrailingWhitespace{})
	reg.Register(layout.FinalNewline{})
	reg.Register(layout.TrailingCommaInLiteral{})

	reg.Register(style.FrozenStringLiteralComment{})
	reg.Register(style.NumericLiterals{})
	reg.Register(style.RedundantSelf{})
}

// BuiltinDefaults derives one config.CopConfig per cop registered in reg
// from that cop's own Metadata, the seed config.NewLoader layers a
// project's .rubocop.yml on top of (spec §4.5's builtin-defaults-first
// merge order). Every shipped cop is enabled by default (RuboCop's own
// convention: a cop ships enabled unless explicitly marked pending),
// using its DefaultSeverity/DefaultInclude/DefaultExclude/
// SupportsAutocorrect as the starting point.
func BuiltinDefaults(reg *cop.Registry) map[string]config.CopConfig {
	defaults := make(map[string]config.CopConfig, len(reg.All()))
	for _, c := range reg.All() {
		m := c.Metadata()
		defaults[m.FullName()] = config.CopConfig{
			Enabled:         config.EnabledTrue,
			Severity:        string(m.DefaultSeverity),
			Include:         m.DefaultInclude,
			Exclude:         m.DefaultExclude,
			AutoCorrect:     m.SupportsAutocorrect,
			SafeAutoCorrect: m.SupportsAutocorrect,
		}
	}
	return defaults
}
