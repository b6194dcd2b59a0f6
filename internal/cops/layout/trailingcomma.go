package layout

import (
	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/rubyparse"
)

// TrailingCommaInLiteral flags a comma immediately before the closing
// bracket of a multi-line array or hash literal ("no_comma" style, the
// stricter of RuboCop's two default-adjacent styles) and autocorrects
// by deleting it. Single-line literals are exempt: a trailing comma
// there is unusual enough that the reference tool leaves it to a
// human, rather than guessing intent.
type TrailingCommaInLiteral struct{}

func (TrailingCommaInLiteral) Metadata() cop.Metadata {
	return cop.Metadata{
		Department:          "Layout",
		Name:                "TrailingCommaInLiteral",
		DefaultSeverity:     cop.SeverityConvention,
		SupportsAutocorrect: true,
		Description:         "Checks for a trailing comma before the closing bracket of a multi-line array or hash literal.",
	}
}

func (TrailingCommaInLiteral) InterestedTypes() []rubyparse.Type {
	return []rubyparse.Type{rubyparse.Array, rubyparse.Hash}
}

func (TrailingCommaInLiteral) CheckNode(ctx *cop.Context, n *rubyparse.Node) {
	if len(n.Children) == 0 {
		return
	}

	text := ctx.File.Text
	if n.End < 1 || n.End > len(text) {
		return
	}
	startPos := ctx.File.OffsetToPosition(n.Start)
	endPos := ctx.File.OffsetToPosition(n.End)
	if startPos.Line == endPos.Line {
		return // single-line literal, exempt
	}

	closeIdx := n.End - 1 // index of the closing ']' or '}'
	i := closeIdx - 1
	for i >= n.Start && isRubyBlank(text[i]) {
		i--
	}
	if i < n.Start || text[i] != ',' {
		return
	}

	ctx.Report(cop.Offense{
		Message:  "Avoid comma after the last item of a multi-line literal.",
		Start:    i,
		End:      i + 1,
		Severity: cop.SeverityConvention,
		Correction: &cop.Correction{
			Start: i, End: i + 1, Replacement: "", Safe: true,
		},
	})
}

func isRubyBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
