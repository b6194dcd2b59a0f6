package layout

import (
	"bytes"

	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/source"
)

// TrailingWhitespace flags trailing spaces/tabs at the end of a line
// and autocorrects by stripping them. Safe: deleting trailing
// whitespace never changes Ruby semantics.
type TrailingWhitespace struct{}

func (TrailingWhitespace) Metadata() cop.Metadata {
	return cop.Metadata{
		Department:          "Layout",
		Name:                "TrailingWhitespace",
		DefaultSeverity:     cop.SeverityConvention,
		SupportsAutocorrect: true,
		Description:         "Checks for trailing whitespace at the end of a line.",
	}
}

func (TrailingWhitespace) CheckLines(ctx *cop.Context) {
	for i := 1; i <= ctx.File.LineCount(); i++ {
		line := ctx.File.Line(i)
		trimmed := bytes.TrimRight(line, " \t")
		if len(trimmed) == len(line) {
			continue
		}

		start := ctx.File.PositionToOffset(source.Position{Line: i, Column: len(trimmed) + 1})
		end := ctx.File.PositionToOffset(source.Position{Line: i, Column: len(line) + 1})
		ctx.Report(cop.Offense{
			Message:  "Trailing whitespace detected.",
			Start:    start,
			End:      end,
			Severity: cop.SeverityConvention,
			Correction: &cop.Correction{
				Start: start, End: end, Replacement: "", Safe: true,
			},
		})
	}
}
