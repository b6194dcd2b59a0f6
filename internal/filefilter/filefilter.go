// Package filefilter decides whether a given path is in scope for a run
// and, separately, whether a specific cop applies to it: global
// AllCops.Exclude gates first, then each cop's own Include/Exclude
// (merged with its DefaultInclude/DefaultExclude) narrows further
// (spec §4, component F). Follows a resolve-against-real-paths pattern
// and a pattern-load-then-match shape for gitignore-style rules; glob
// matching itself is delegated to github.com/bmatcuk/doublestar/v4
// rather than a hand-rolled regex compiler, since doublestar already
// implements Ruby/shell style "**" glob semantics.
package filefilter

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/turbocop/pkg/pathutil"
)

// Filter decides, for a normalized relative path, whether it is in
// scope globally and whether a specific cop's Include/Exclude narrows
// that decision further.
type Filter struct {
	globalExclude []string
	globalInclude []string
}

// New builds a Filter from AllCops.Include/Exclude. Patterns are
// doublestar globs, matched against the normalized (forward-slash,
// no "./" prefix) relative path.
func New(globalInclude, globalExclude []string) *Filter {
	return &Filter{globalInclude: globalInclude, globalExclude: globalExclude}
}

// InScope reports whether path passes the global AllCops Include/Exclude
// gate. An empty globalInclude list means "everything is included unless
// excluded" (RuboCop's default).
func (f *Filter) InScope(path string) bool {
	norm := pathutil.Normalize(path)
	if matchesAny(f.globalExclude, norm) {
		return false
	}
	if len(f.globalInclude) == 0 {
		return true
	}
	return matchesAny(f.globalInclude, norm)
}

// CopApplies reports whether a specific cop's own include/exclude
// (already merged with its DefaultInclude/DefaultExclude by the config
// loader) allows it to run against path. Call only after InScope(path)
// already returned true.
func (f *Filter) CopApplies(path string, include, exclude []string) bool {
	norm := pathutil.Normalize(path)
	if matchesAny(exclude, norm) {
		return false
	}
	if len(include) == 0 {
		return true
	}
	return matchesAny(include, norm)
}

func matchesAny(patterns []string, path string) bool {
	for _, pat := range patterns {
		ok, err := doublestar.Match(pat, path)
		if err == nil && ok {
			return true
		}
		// Also match a pattern against the path's base name, so a bare
		// "vendor/**" style exclusion still catches "vendor/foo.rb" when
		// given as "vendor/**/*.rb" but also simpler patterns like
		// "*.generated.rb" written without a leading "**/".
		if ok, err := doublestar.Match("**/"+pat, path); err == nil && ok {
			return true
		}
	}
	return false
}
