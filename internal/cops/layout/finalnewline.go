package layout

import "github.com/standardbeagle/turbocop/internal/cop"

// FinalNewline flags a file whose last line lacks a trailing newline
// and autocorrects by appending one. A completely empty file is
// exempt: RuboCop's own equivalent only considers a file that has
// content but no terminator, and an empty file has no "last line" to
// terminate.
type FinalNewline struct{}

func (FinalNewline) Metadata() cop.Metadata {
	return cop.Metadata{
		Department:          "Layout",
		Name:                "TrailingEmptyLines",
		DefaultSeverity:     cop.SeverityWarning,
		SupportsAutocorrect: true,
		Description:         "Checks that the source file ends with a single trailing newline.",
	}
}

func (FinalNewline) CheckLines(ctx *cop.Context) {
	if ctx.File.Len() == 0 {
		return
	}
	if ctx.File.HasTrailingNewline() {
		return
	}

	end := ctx.File.Len()
	ctx.Report(cop.Offense{
		Message:  "Final newline missing.",
		Start:    end,
		End:      end,
		Severity: cop.SeverityWarning,
		Correction: &cop.Correction{
			Start: end, End: end, Replacement: "\n", Safe: true,
		},
	})
}
