// Package config resolves the layered .rubocop.yml-shaped configuration
// a run is governed by: built-in cop defaults, inherit_from/inherit_gem
// layers, the project's own file, and CLI overrides. Grounded on the
// teacher's internal/config/config.go defaults-struct-literal shape and
// internal/config/kdl_config.go's "defaults struct, then walk the parsed
// document and overlay only the keys present" merge algorithm — the
// document format is swapped from KDL to YAML (gopkg.in/yaml.v3, also
// used for config parsing elsewhere in the retrieved example pack) since
// the target ecosystem's config files are YAML, not KDL.
package config

// Enabled is a tri-state flag: a cop may be unconditionally on, off, or
// "pending" (on only once a project opts in via AllCops.NewCops, or once
// the engine's default graduates it — spec's tri-state Enabled model).
type Enabled int

const (
	EnabledFalse Enabled = iota
	EnabledTrue
	EnabledPending
)

// UnmarshalYAML lets "Enabled: pending" parse alongside plain booleans.
func (e *Enabled) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		if v {
			*e = EnabledTrue
		} else {
			*e = EnabledFalse
		}
	case string:
		if v == "pending" {
			*e = EnabledPending
		} else {
			*e = EnabledFalse
		}
	default:
		*e = EnabledFalse
	}
	return nil
}

// CopConfig is one cop's fully merged configuration: the universal keys
// every cop honors, plus an open bag for cop-specific options (line
// length limits, allowed identifiers, etc).
type CopConfig struct {
	Enabled         Enabled                `yaml:"Enabled"`
	Severity        string                 `yaml:"Severity"`
	Include         []string               `yaml:"Include"`
	Exclude         []string               `yaml:"Exclude"`
	AutoCorrect     bool                   `yaml:"AutoCorrect"`
	SafeAutoCorrect bool                   `yaml:"SafeAutoCorrect"`
	Options         map[string]interface{} `yaml:"Options"`
}

// AllCopsConfig holds the engine-wide keys under the special "AllCops"
// key: global Include/Exclude, NewCops policy, and TargetRubyVersion.
type AllCopsConfig struct {
	Include           []string `yaml:"Include"`
	Exclude           []string `yaml:"Exclude"`
	NewCops           string   `yaml:"NewCops"` // "enable", "disable", or "pending" (default)
	TargetRubyVersion string   `yaml:"TargetRubyVersion"`
	DisabledByDefault bool     `yaml:"DisabledByDefault"`
}

// ResolvedConfig is the final, fully merged configuration for a run:
// one CopConfig per "Department/Name" id plus the AllCops block.
type ResolvedConfig struct {
	AllCops AllCopsConfig
	Cops    map[string]CopConfig

	// SourcePaths lists every file that contributed to this config, in
	// merge order (builtin defaults first, project file last), for
	// --debug logging and reproducibility.
	SourcePaths []string
}

// CopConfigFor returns the merged configuration for a cop, falling back
// to a zero-value CopConfig (Enabled=false, no options) if the cop has
// no explicit entry — which should not happen once builtin defaults are
// loaded, since every shipped cop registers a default entry.
func (r *ResolvedConfig) CopConfigFor(fullName string) CopConfig {
	if cc, ok := r.Cops[fullName]; ok {
		return cc
	}
	return CopConfig{Enabled: EnabledFalse}
}

// IsEnabled resolves a cop's tri-state Enabled against AllCops.NewCops:
// "pending" cops are treated as enabled only when NewCops is "enable";
// any other NewCops value, including unset, leaves them disabled.
// DisabledByDefault is not consulted here.
func (r *ResolvedConfig) IsEnabled(fullName string) bool {
	cc := r.CopConfigFor(fullName)
	switch cc.Enabled {
	case EnabledTrue:
		return true
	case EnabledFalse:
		return false
	case EnabledPending:
		return r.AllCops.NewCops == "enable"
	}
	return false
}
