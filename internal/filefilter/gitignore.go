package filefilter

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignorePattern is one parsed .gitignore line: its cleaned pattern
// text plus the modifiers RuboCop-style tools also honor when a project
// opts into --exclude-from-gitignore-style behavior.
type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool
	Absolute  bool
}

// GitignoreParser loads and matches .gitignore-style patterns. The
// modifier-extraction step (negate/!, directory/, absolute/) runs
// ahead of matching, which is delegated to doublestar rather than a
// hand-rolled regex compiler with a prefix/suffix fast path — doublestar
// already does this matching efficiently.
type GitignoreParser struct {
	patterns []GitignorePattern
}

// NewGitignoreParser returns an empty parser.
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore reads rootPath/.gitignore, if present. A missing file is
// not an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	f, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		gp.patterns = append(gp.patterns, gp.parsePattern(line))
	}
	return scanner.Err()
}

// AddPattern adds a single pattern line, mainly for tests.
func (gp *GitignoreParser) AddPattern(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	gp.patterns = append(gp.patterns, gp.parsePattern(line))
}

func (gp *GitignoreParser) parsePattern(line string) GitignorePattern {
	var p GitignorePattern
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Absolute = true
		line = line[1:]
	}
	p.Pattern = line
	return p
}

// Match reports whether relPath (slash-separated, relative to the
// .gitignore's directory) is ignored. Later patterns override earlier
// ones, and a "!"-negated pattern re-includes a path an earlier pattern
// excluded — standard gitignore precedence.
func (gp *GitignoreParser) Match(relPath string) bool {
	ignored := false
	for _, p := range gp.patterns {
		if gp.patternMatches(p, relPath) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func (gp *GitignoreParser) patternMatches(p GitignorePattern, relPath string) bool {
	pattern := p.Pattern
	if !p.Absolute && !strings.Contains(pattern, "/") {
		pattern = "**/" + pattern
	}
	if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
		return true
	}
	if ok, err := doublestar.Match(pattern+"/**", relPath); err == nil && ok {
		return true
	}
	return false
}
