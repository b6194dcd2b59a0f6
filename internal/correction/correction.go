// Package correction collects per-file byte-range replacements pushed
// by rules during a check pass, resolves overlaps deterministically,
// and applies the kept set to produce rewritten source bytes (spec
// §4.4, component I). Treats a correction as a byte-range view over
// the original buffer (an offset+length view into a file's byte
// content) rather than a pre-sliced string; corrections here add a
// replacement and the producing rule's identity on top of that
// offset/length shape.
package correction

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/standardbeagle/turbocop/internal/tcerrors"
)

// Correction is one proposed byte-range replacement.
type Correction struct {
	RuleID      string
	Start       int
	End         int
	Replacement string
	Safe        bool

	// regIndex is the order this correction was registered in, used as
	// the tie-break when sorting corrections that start at the same
	// byte offset (spec §5: "ordered by (start, registration_index)
	// before the overlap filter").
	regIndex int
}

// Set accumulates corrections for a single file, in registration
// (traversal) order.
type Set struct {
	corrections []Correction
}

// NewSet returns an empty correction set.
func NewSet() *Set { return &Set{} }

// Add registers one correction in traversal order. The range must not
// straddle a UTF-8 boundary in src; callers should validate against the
// file's own bytes before calling Add, but Apply re-validates anyway.
func (s *Set) Add(c Correction) {
	c.regIndex = len(s.corrections)
	s.corrections = append(s.corrections, c)
}

// Len reports how many corrections have been registered (kept or not).
func (s *Set) Len() int { return len(s.corrections) }

// DropRule removes every correction registered under ruleID. Used when a
// cop panics mid-file (spec §7): its corrections for this file are
// discarded even though some may already have been registered.
func (s *Set) DropRule(ruleID string) {
	kept := s.corrections[:0:0]
	for _, c := range s.corrections {
		if c.RuleID == ruleID {
			continue
		}
		kept = append(kept, c)
	}
	s.corrections = kept
}

// Kept returns the corrections that survive overlap resolution: sorted
// by (Start, regIndex), then walked maintaining lastEnd; a correction
// is kept iff Start >= lastEnd, otherwise dropped. This is the
// deterministic "first writer wins within a conflict region" policy.
func (s *Set) Kept() []Correction {
	sorted := make([]Correction, len(s.corrections))
	copy(sorted, s.corrections)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].regIndex < sorted[j].regIndex
	})

	var kept []Correction
	lastEnd := -1
	for _, c := range sorted {
		if c.Start < lastEnd {
			continue
		}
		kept = append(kept, c)
		lastEnd = c.End
	}
	return kept
}

// Apply splices every kept correction into src, in reverse order (so
// earlier offsets stay valid as later splices happen first), and
// returns the resulting bytes. Only corrections whose (Safe == true or
// allowUnsafe) are applied; the rest are silently excluded from the
// returned slice (callers needing to know which ones were actually
// spliced should inspect the returned []Correction).
func Apply(src []byte, kept []Correction, allowUnsafe bool) ([]byte, []Correction, error) {
	var applied []Correction
	for _, c := range kept {
		if !c.Safe && !allowUnsafe {
			continue
		}
		if err := validateRange(src, c); err != nil {
			return nil, nil, err
		}
		applied = append(applied, c)
	}

	out := append([]byte(nil), src...)
	for i := len(applied) - 1; i >= 0; i-- {
		c := applied[i]
		var buf []byte
		buf = append(buf, out[:c.Start]...)
		buf = append(buf, c.Replacement...)
		buf = append(buf, out[c.End:]...)
		out = buf
	}
	return out, applied, nil
}

// validateRange rejects a correction whose range straddles a byte that
// isn't a UTF-8 character boundary, or that otherwise falls outside
// src's bounds — the engine treats this as a bug in the producing rule
// and reports an internal error rather than corrupting output. Apply
// returns that CorrectionError and splices none of the file's
// corrections; the orchestrator turns it into a warning diagnostic.
func validateRange(src []byte, c Correction) error {
	if c.Start < 0 || c.End > len(src) || c.Start > c.End {
		return tcerrors.NewCorrectionError("", c.RuleID, fmt.Errorf("range [%d,%d) out of bounds for %d-byte source", c.Start, c.End, len(src)))
	}
	if !utf8.RuneStart(byteAt(src, c.Start)) || (c.End < len(src) && !utf8.RuneStart(byteAt(src, c.End))) {
		return tcerrors.NewCorrectionError("", c.RuleID, fmt.Errorf("range [%d,%d) straddles a UTF-8 boundary", c.Start, c.End))
	}
	return nil
}

func byteAt(src []byte, i int) byte {
	if i >= len(src) {
		return 0 // a boundary; end-of-buffer is always a valid rune start
	}
	return src[i]
}
