package style

import (
	"strconv"
	"strings"

	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/rubyparse"
)

const defaultMinDigits = 5

// NumericLiterals requires underscores as thousands separators in
// integer literals at or above a configured digit count (default 5,
// RuboCop's own default) and autocorrects by inserting them every
// three digits from the right. Floats, and integers already carrying
// at least one underscore, are left alone.
type NumericLiterals struct{}

func (NumericLiterals) Metadata() cop.Metadata {
	return cop.Metadata{
		Department:          "Style",
		Name:                "NumericLiterals",
		DefaultSeverity:     cop.SeverityConvention,
		SupportsAutocorrect: true,
		Description:         "Requires underscore separators in large integer literals.",
	}
}

func (NumericLiterals) InterestedTypes() []rubyparse.Type {
	return []rubyparse.Type{rubyparse.Int}
}

func (NumericLiterals) CheckNode(ctx *cop.Context, n *rubyparse.Node) {
	minDigits := intOption(ctx.Config, "MinDigits", defaultMinDigits)

	raw := n.Value
	if strings.ContainsAny(raw, "_xXbBoO") {
		return // already separated, or a hex/binary/octal literal
	}
	if len(raw) < minDigits {
		return
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
		return
	}

	ctx.Report(cop.Offense{
		Message:  "Use underscores(_) as thousands separator and separate every 3 digits with them.",
		Start:    n.Start,
		End:      n.End,
		Severity: cop.SeverityConvention,
		Correction: &cop.Correction{
			Start: n.Start, End: n.End, Replacement: underscored(raw), Safe: true,
		},
	})
}

// underscored inserts "_" every three digits from the right, e.g.
// "1234567" -> "1_234_567".
func underscored(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	lead := n % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < n; i += 3 {
		b.WriteByte('_')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

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
