// Package directive parses inline `# rubocop:disable/enable` control
// comments and filters raw diagnostics through them (spec §4.6,
// component H). Comment text scanning follows a regex-over-raw-text
// style, narrowed from a multi-language tagged-template extraction to a
// single fixed comment grammar.
package directive

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/turbocop/internal/cop"
	"github.com/standardbeagle/turbocop/internal/source"
)

// action is what a parsed directive does: disable or re-enable a set of
// rule names (or "all").
type action int

const (
	actionDisable action = iota
	actionEnable
)

// span is one disabled region for a single rule name (or "all"):
// [startLine, endLine] inclusive, 1-based. endLine is -1 for "still in
// effect at end of file".
type span struct {
	rule      string
	startLine int
	endLine   int
}

// Set is one file's fully parsed directive set: every disabled span,
// plus bookkeeping needed to report redundant directives.
type Set struct {
	spans     []span
	ignoreAll bool // --ignore-disable-comments
	// directives records every parsed disable directive's own line, for
	// redundancy checking (a directive is redundant if the rule it names
	// never actually fired in its span).
	directives []parsedDirective
}

type parsedDirective struct {
	line   int
	action action
	rules  []string // "all" is a literal entry meaning every rule
}

var directiveRe = regexp.MustCompile(`rubocop:(disable|enable|todo)\b\s*(.*)`)

// Parse scans comments (as raw "# ..." text, e.g. from
// rubyparse.Token.CommentText or a ParseResult's Comments) against
// file, producing the DirectiveSet that governs suppression for this
// file. Each comment's own line is determined from its byte offset via
// file.OffsetToPosition, so the caller doesn't need to track line
// numbers itself.
func Parse(file *source.File, comments []CommentText) *Set {
	s := &Set{}

	type open struct {
		rule      string
		startLine int
	}
	var openDisables []open

	for _, c := range comments {
		pos := file.OffsetToPosition(c.Start)
		line := pos.Line
		isEOLComment := !isLineOnlyComment(file, line, c.Start)

		m := directiveRe.FindStringSubmatch(c.Text)
		if m == nil {
			continue
		}
		kind := m[1]
		rest := strings.TrimSpace(m[2])
		rules := splitRules(rest)

		act := actionDisable
		if kind == "enable" {
			act = actionEnable
		}
		s.directives = append(s.directives, parsedDirective{line: line, action: act, rules: rules})

		if act == actionEnable {
			for _, r := range rules {
				for i := len(openDisables) - 1; i >= 0; i-- {
					if openDisables[i].rule == r {
						s.spans = append(s.spans, span{
							rule:      r,
							startLine: openDisables[i].startLine,
							endLine:   line - 1,
						})
						openDisables = append(openDisables[:i], openDisables[i+1:]...)
						break
					}
				}
			}
			continue
		}

		// disable/todo
		if isEOLComment {
			for _, r := range rules {
				s.spans = append(s.spans, span{rule: r, startLine: line, endLine: line})
			}
			continue
		}
		for _, r := range rules {
			openDisables = append(openDisables, open{rule: r, startLine: line + 1})
		}
	}

	for _, o := range openDisables {
		s.spans = append(s.spans, span{rule: o.rule, startLine: o.startLine, endLine: -1})
	}

	return s
}

// CommentText is the minimal shape Parse needs from a comment token:
// its raw "# ..." text and starting byte offset. Defined here rather
// than imported from rubyparse so this package never needs to know
// about lexer token kinds beyond this one field pair.
type CommentText struct {
	Text  string
	Start int
}

func splitRules(rest string) []string {
	if rest == "" || rest == "all" {
		return []string{"all"}
	}
	parts := strings.Split(rest, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = []string{"all"}
	}
	return out
}

// isLineOnlyComment reports whether the comment starting at commentStart
// is the only non-whitespace content on its line — i.e. a block-form
// directive rather than a single-line (end-of-line) one.
func isLineOnlyComment(file *source.File, line, commentStart int) bool {
	text := file.Line(line)
	lineStartOffset := file.PositionToOffset(source.Position{Line: line, Column: 1})
	before := text[:max0(commentStart-lineStartOffset)]
	return strings.TrimSpace(string(before)) == ""
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// SetIgnoreDisableComments implements --ignore-disable-comments: once
// set, Filter passes every diagnostic through unsuppressed.
func (s *Set) SetIgnoreDisableComments(ignore bool) { s.ignoreAll = ignore }

// Disabled reports whether rule is disabled at line, either by name or
// by an "all" directive covering that line.
func (s *Set) Disabled(rule string, line int) bool {
	if s.ignoreAll {
		return false
	}
	for _, sp := range s.spans {
		if sp.rule != rule && sp.rule != "all" {
			continue
		}
		if covers(sp, line) {
			return true
		}
	}
	return false
}

func covers(sp span, line int) bool {
	if line < sp.startLine {
		return false
	}
	return sp.endLine == -1 || line <= sp.endLine
}

// Filter drops every offense whose rule is disabled at its start line,
// returning the surviving offenses in their original order.
func (s *Set) Filter(file *source.File, offenses []cop.Offense) []cop.Offense {
	if s.ignoreAll {
		return offenses
	}
	out := offenses[:0:0]
	for _, o := range offenses {
		line := file.OffsetToPosition(o.Start).Line
		if s.Disabled(o.RuleID, line) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// RedundantDisables reports one entry per disable directive whose named
// rule(s) never fired anywhere in the file, per fired — the set of rule
// names that fired (already Include/Exclude-gated by the caller: an
// excluded rule is treated as "would not have fired"). fired carries no
// line information, so a rule that fired outside a directive's span
// still keeps that directive from being reported. The self-referential
// Lint/RedundantCopDisableDirective rule is never itself reported,
// matching spec's stated exception.
func (s *Set) RedundantDisables(fired map[string]bool) []RedundantDirective {
	const selfRule = "Lint/RedundantCopDisableDirective"
	var out []RedundantDirective
	for _, d := range s.directives {
		if d.action != actionDisable {
			continue
		}
		for _, r := range d.rules {
			if r == selfRule {
				continue
			}
			if r == "all" {
				continue // "all" directives are never flagged individually
			}
			if !fired[r] {
				out = append(out, RedundantDirective{Rule: r, Line: d.line})
			}
		}
	}
	return out
}

// RedundantDirective is one reportable "this disable never suppressed
// anything" finding.
type RedundantDirective struct {
	Rule string
	Line int
}
