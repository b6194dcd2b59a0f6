// Package layout holds cops that check physical source layout: line
// length, whitespace, blank lines, trailing commas — checks that read
// bytes and lines rather than AST shape. Built on the engine's own
// cop.LineChecker/cop.NodeChecker capability interfaces
// (internal/cop/cop.go).
package layout

import (
	"fmt"

	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/source"
)

const defaultMaxLineLength = 120

// LineLength flags lines longer than a configured maximum (default
// 120, RuboCop's own default). Not autocorrectable: there is no safe
// general way to shorten an overlong line.
type LineLength struct{}

func (LineLength) Metadata() cop.Metadata {
	return cop.Metadata{
		Department:      "Layout",
		Name:            "LineLength",
		DefaultSeverity: cop.SeverityConvention,
		Description:     "Checks that no line exceeds a configured maximum length.",
	}
}

func (l LineLength) CheckLines(ctx *cop.Context) {
	max := intOption(ctx.Config, "Max", defaultMaxLineLength)

	for i := 1; i <= ctx.File.LineCount(); i++ {
		line := ctx.File.Line(i)
		length := runeLen(line)
		if length <= max {
			continue
		}

		start := ctx.File.PositionToOffset(source.Position{Line: i, Column: max + 1})
		end := ctx.File.PositionToOffset(source.Position{Line: i, Column: length + 1})
		ctx.Report(cop.Offense{
			Message:  fmt.Sprintf("Line is too long. [%d/%d]", length, max),
			Start:    start,
			End:      end,
			Severity: cop.SeverityConvention,
		})
	}
}

func runeLen(b []byte) int {
	n := 0
	for range string(b) {
		n++
	}
	return n
}

// intOption reads an integer-valued option out of a cop's config bag.
// yaml.v3 decodes plain YAML integers into Go int when the target is
// interface{}; the float64/int64 cases guard against a config value
// that arrived via a different decode path (e.g. JSON-sourced override).
func intOption(opts map[string]interface{}, key string, fallback int) int {
	v, ok := opts[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}
