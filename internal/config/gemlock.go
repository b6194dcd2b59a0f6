package config

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// gemLockEntry is one cached Gemfile.lock parse: the gem versions it
// named, tagged with the lock file's content hash so a stale cache entry
// is never served after the lock file changes. Grounded on the
// teacher's MetricsCache (internal/cache/metrics_cache.go): a sync.Map
// keyed by lock file path whose entries carry a content hash, so edits
// invalidate themselves without an explicit watch.
type gemLockEntry struct {
	hash     string
	versions map[string]string
}

var gemLockCache sync.Map // map[string]*gemLockEntry, keyed by lock file path

// ResolveGemConfigPath resolves an inherit_gem entry (gem name plus the
// config file path relative to that gem's root, e.g.
// {"rubocop-rails": "rubocop-rails.yml"}) to an actual file on disk by
// reading the nearest Gemfile.lock's GEM section for the gem's
// installed version, then looking under the standard Bundler path
// gems/<name>-<version>/.
func ResolveGemConfigPath(startDir, gemName, relConfigPath string) (string, error) {
	lockPath, err := findGemfileLock(startDir)
	if err != nil {
		return "", err
	}
	versions, err := loadGemVersions(lockPath)
	if err != nil {
		return "", err
	}
	version, ok := versions[gemName]
	if !ok {
		return "", fmt.Errorf("gem %q not found in %s", gemName, lockPath)
	}

	gemsRoot := filepath.Join(filepath.Dir(lockPath), "vendor", "bundle", "ruby")
	candidate, err := findGemInstallDir(gemsRoot, gemName, version)
	if err != nil {
		return "", err
	}
	return filepath.Join(candidate, relConfigPath), nil
}

func findGemfileLock(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, "Gemfile.lock")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no Gemfile.lock found above %s", startDir)
		}
		dir = parent
	}
}

// loadGemVersions parses the GEM section of a Gemfile.lock into a
// gem-name -> version map, caching the result under the lock file's path
// and reusing it only while the file's sha256 hash is unchanged, so
// repeated resolutions within a run (one per inherit_gem
// entry, potentially across many config files) don't re-read and
// re-parse the same lock file.
func loadGemVersions(lockPath string) (map[string]string, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", lockPath, err)
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if cached, ok := gemLockCache.Load(lockPath); ok {
		entry := cached.(*gemLockEntry)
		if entry.hash == hash {
			return entry.versions, nil
		}
	}

	versions := parseGemfileLock(string(data))
	gemLockCache.Store(lockPath, &gemLockEntry{hash: hash, versions: versions})
	return versions, nil
}

// parseGemfileLock extracts "name (version)" lines from the GEM
// specs: block. Bundler indents top-level gem specs with exactly four
// spaces and transitive dependencies with six or more, so a line
// matching `^    \S+ \(` is always a directly-resolved gem entry.
func parseGemfileLock(content string) map[string]string {
	versions := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(content))
	inSpecs := false
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "GEM":
			inSpecs = false
		case trimmed == "specs:":
			inSpecs = true
			continue
		case trimmed == "" || !strings.HasPrefix(line, " "):
			inSpecs = false
		}
		if !inSpecs {
			continue
		}
		if !strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "     ") {
			continue
		}
		name, version, ok := splitGemSpecLine(trimmed)
		if ok {
			versions[name] = version
		}
	}
	return versions
}

func splitGemSpecLine(trimmed string) (name, version string, ok bool) {
	open := strings.Index(trimmed, " (")
	if open < 0 || !strings.HasSuffix(trimmed, ")") {
		return "", "", false
	}
	name = trimmed[:open]
	version = trimmed[open+2 : len(trimmed)-1]
	if name == "" || version == "" {
		return "", "", false
	}
	return name, version, true
}

func findGemInstallDir(gemsRoot, gemName, version string) (string, error) {
	target := gemName + "-" + version
	matches, err := filepath.Glob(filepath.Join(gemsRoot, "*", "gems", target))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("gem install directory for %s not found under %s", target, gemsRoot)
	}
	return matches[0], nil
}
