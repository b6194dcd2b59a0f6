package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/turbocop/internal/tcerrors"
)

// rawDocument is one parsed .rubocop.yml as an untyped top-level map.
// Most values are themselves maps (a cop's or AllCops's key bag,
// re-marshaled per section (yaml.Unmarshal into
// map[string]map[string]any, then yaml.Marshal+re-parse per key) but
// inherit_from/require are scalars or string lists, so the top level
// has to stay interface{}-valued.
type rawDocument map[string]interface{}

// sectionFields returns doc[name] as a string-keyed map, or nil if the
// key is absent or not itself a map (as is the case for inherit_from
// and require).
func sectionFields(doc rawDocument, name string) map[string]interface{} {
	v, ok := doc[name]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return m
}

// stringList coerces a YAML scalar-or-sequence value (as produced by
// "inherit_from: foo.yml" or "inherit_from: [foo.yml, bar.yml]") into a
// []string.
func stringList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []interface{}:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Loader resolves a project's layered configuration: the engine's own
// built-in defaults, any inherit_from/inherit_gem chain, and finally the
// project's own file, each overlaying only the keys it actually sets.
type Loader struct {
	builtinDefaults map[string]CopConfig
}

// NewLoader returns a Loader seeded with the engine's built-in cop
// defaults (the caller supplies them, e.g. from cops.BuiltinDefaults,
// which derives one CopConfig per registered cop from its Metadata).
func NewLoader(builtinDefaults map[string]CopConfig) *Loader {
	clone := make(map[string]CopConfig, len(builtinDefaults))
	for k, v := range builtinDefaults {
		clone[k] = v
	}
	return &Loader{builtinDefaults: clone}
}

// Load resolves the configuration rooted at path, following inherit_from
// chains (relative to each file's own directory) and detecting cycles.
func (l *Loader) Load(path string) (*ResolvedConfig, error) {
	resolved := &ResolvedConfig{
		Cops: make(map[string]CopConfig, len(l.builtinDefaults)),
	}
	for name, cc := range l.builtinDefaults {
		resolved.Cops[name] = cc
	}

	seen := make(map[string]bool)
	if err := l.loadInto(resolved, path, seen); err != nil {
		return nil, tcerrors.NewConfigError(path, "", err)
	}
	if resolved.AllCops.TargetRubyVersion == "" {
		resolved.AllCops.TargetRubyVersion = rubyVersionFromFile(filepath.Dir(path))
	}
	return resolved, nil
}

func (l *Loader) loadInto(resolved *ResolvedConfig, path string, seen map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if seen[abs] {
		return fmt.Errorf("inherit_from cycle detected at %s", path)
	}
	seen[abs] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc rawDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for _, parent := range inheritFromPaths(doc) {
		parentPath := parent
		if !filepath.IsAbs(parentPath) {
			parentPath = filepath.Join(dir, parentPath)
		}
		if err := l.loadInto(resolved, parentPath, seen); err != nil {
			return err
		}
	}

	for gem, rel := range inheritGemEntries(doc) {
		gemPath, err := ResolveGemConfigPath(dir, gem, rel)
		if err != nil {
			resolved.SourcePaths = append(resolved.SourcePaths, "gem:"+gem+" (unresolved: "+err.Error()+")")
			continue
		}
		if err := l.loadInto(resolved, gemPath, seen); err != nil {
			return err
		}
	}

	return applyDocument(resolved, doc, path)
}

func inheritFromPaths(doc rawDocument) []string {
	return stringList(doc["inherit_from"])
}

// inheritGemEntries returns the gem names under an inherit_gem key,
// each mapped to the relative config path within that gem (e.g.
// "rubocop-rails" => "rubocop-rails.yml"). Resolving the gem name to an
// on-disk path is gemlock.go's job; loadInto then loads the resolved
// file as a layer, or records the gem as unresolved in SourcePaths when
// resolution fails.
func inheritGemEntries(doc rawDocument) map[string]string {
	fields := sectionFields(doc, "inherit_gem")
	if fields == nil {
		return nil
	}
	out := make(map[string]string, len(fields))
	for gem, v := range fields {
		if s, ok := v.(string); ok {
			out[gem] = s
		}
	}
	return out
}

func applyDocument(resolved *ResolvedConfig, doc rawDocument, sourcePath string) error {
	resolved.SourcePaths = append(resolved.SourcePaths, sourcePath)

	if allCops := sectionFields(doc, "AllCops"); allCops != nil {
		raw, err := yaml.Marshal(allCops)
		if err != nil {
			return err
		}
		var ac AllCopsConfig
		if err := yaml.Unmarshal(raw, &ac); err != nil {
			return fmt.Errorf("AllCops: %w", err)
		}
		mergeAllCops(&resolved.AllCops, ac)
	}

	for name := range doc {
		if name == "AllCops" || name == "inherit_from" || name == "inherit_gem" || name == "require" {
			continue
		}
		fields := sectionFields(doc, name)
		if fields == nil {
			continue
		}
		raw, err := yaml.Marshal(fields)
		if err != nil {
			return err
		}
		var cc CopConfig
		if err := yaml.Unmarshal(raw, &cc); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		existing := resolved.Cops[name]
		resolved.Cops[name] = mergeCopConfig(existing, cc, fields)
	}
	return nil
}

// mergeAllCops overlays src onto dst. AllCops.Exclude is special-cased
// to replace rather than append: the last layer that sets it wins
// outright, matching the reference analyzer's own AllCops.Exclude
// semantics. Include and every other array key keep the
// append-and-dedupe behavior.
func mergeAllCops(dst *AllCopsConfig, src AllCopsConfig) {
	if len(src.Include) > 0 {
		dst.Include = dedupeAppend(dst.Include, src.Include)
	}
	if len(src.Exclude) > 0 {
		dst.Exclude = append([]string{}, src.Exclude...)
	}
	if src.NewCops != "" {
		dst.NewCops = src.NewCops
	}
	if src.TargetRubyVersion != "" {
		dst.TargetRubyVersion = src.TargetRubyVersion
	}
	if src.DisabledByDefault {
		dst.DisabledByDefault = true
	}
}

// mergeCopConfig overlays src onto dst, one field at a time, only for
// keys actually present in the raw YAML fields (fields is the
// as-parsed map, used to distinguish "explicitly set to zero value"
// from "not mentioned at all").
func mergeCopConfig(dst, src CopConfig, fields map[string]interface{}) CopConfig {
	if _, ok := fields["Enabled"]; ok {
		dst.Enabled = src.Enabled
	}
	if _, ok := fields["Severity"]; ok {
		dst.Severity = src.Severity
	}
	if _, ok := fields["Include"]; ok {
		dst.Include = dedupeAppend(dst.Include, src.Include)
	}
	if _, ok := fields["Exclude"]; ok {
		dst.Exclude = dedupeAppend(dst.Exclude, src.Exclude)
	}
	if _, ok := fields["AutoCorrect"]; ok {
		dst.AutoCorrect = src.AutoCorrect
	}
	if _, ok := fields["SafeAutoCorrect"]; ok {
		dst.SafeAutoCorrect = src.SafeAutoCorrect
	}
	if len(src.Options) > 0 {
		if dst.Options == nil {
			dst.Options = make(map[string]interface{}, len(src.Options))
		}
		for k, v := range src.Options {
			dst.Options[k] = v
		}
	}
	return dst
}

func dedupeAppend(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	out := append([]string{}, dst...)
	for _, v := range src {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// rubyVersionFromFile reads a .ruby-version file in dir, if present,
// trimming the leading "ruby-" prefix some projects include.
func rubyVersionFromFile(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, ".ruby-version"))
	if err != nil {
		return ""
	}
	v := strings.TrimSpace(string(data))
	v = strings.TrimPrefix(v, "ruby-")
	return v
}
