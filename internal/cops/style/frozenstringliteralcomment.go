// Package style holds cops that check Ruby idiom and literal style
// rather than physical layout: magic comments, numeric formatting,
// redundant qualifiers. Grounded on the same cop.SourceChecker/
// cop.NodeChecker capability interfaces as internal/cops/layout.
package style

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/rubyparse"
	"github.com/standardbeagle/turbocop/internal/source"
)

var frozenStringLiteralPattern = regexp.MustCompile(`^#\s*frozen_string_literal:\s*(true|false)\s*$`)

// FrozenStringLiteralComment requires a `# frozen_string_literal: true`
// magic comment on line 1 or 2 of the file (a leading shebang line is
// skipped) and autocorrects by inserting one. Ruby only honors the
// magic comment at the top of the file, so the correction is only
// offered when the comment is entirely absent — a misplaced one further
// down the file is a different, unsafe-to-guess problem this cop
// reports but does not attempt to fix.
type FrozenStringLiteralComment struct{}

func (FrozenStringLiteralComment) Metadata() cop.Metadata {
	return cop.Metadata{
		Department:          "Style",
		Name:                "FrozenStringLiteralComment",
		DefaultSeverity:     cop.SeverityConvention,
		SupportsAutocorrect: true,
		Description:         "Requires a frozen_string_literal magic comment at the top of the file.",
	}
}

func (FrozenStringLiteralComment) CheckSource(ctx *cop.Context, comments []rubyparse.Token) {
	if ctx.File.Len() == 0 {
		return
	}

	insertAt := leadingShebangEnd(ctx)
	misplaced := false
	for _, c := range comments {
		if c.Start < insertAt || !frozenStringLiteralPattern.MatchString(strings.TrimRight(c.Text, "\r")) {
			continue
		}
		if ctx.File.OffsetToPosition(c.Start).Line <= 2 {
			return
		}
		misplaced = true
	}

	off := cop.Offense{
		Message:  "Missing frozen string literal comment.",
		Start:    insertAt,
		End:      insertAt,
		Severity: cop.SeverityConvention,
	}
	if !misplaced {
		off.Correction = &cop.Correction{
			Start: insertAt, End: insertAt,
			Replacement: "# frozen_string_literal: true\n",
			Safe:        true,
		}
	}
	ctx.Report(off)
}

// leadingShebangEnd returns the offset right after line 1's terminator
// when line 1 is a shebang (`#!`), or 0 otherwise — the magic comment
// must immediately follow a shebang, not precede it.
func leadingShebangEnd(ctx *cop.Context) int {
	first := ctx.File.Line(1)
	if len(first) < 2 || first[0] != '#' || first[1] != '!' {
		return 0
	}
	if ctx.File.LineCount() < 2 {
		return ctx.File.Len()
	}
	return ctx.File.PositionToOffset(source.Position{Line: 2, Column: 1})
}
