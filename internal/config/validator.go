package config

import (
	"fmt"

	"github.com/standardbeagle/turbocop/internal/tcerrors"
)

// Validator checks a ResolvedConfig for internally inconsistent values
// and fills in engine-wide defaults the loader doesn't set directly.
// Follows a validate-each-section-then-apply-smart-defaults shape.
type Validator struct{}

// NewValidator returns a Validator.
func NewValidator() *Validator { return &Validator{} }

// ValidateAndSetDefaults checks cfg and fills in defaults, returning a
// *tcerrors.ConfigError on the first problem found.
func (v *Validator) ValidateAndSetDefaults(cfg *ResolvedConfig) error {
	if err := v.validateAllCops(&cfg.AllCops); err != nil {
		return tcerrors.NewConfigError("AllCops", "", err)
	}
	for name, cc := range cfg.Cops {
		if err := v.validateCop(name, cc); err != nil {
			return tcerrors.NewConfigError(name, "", err)
		}
	}
	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateAllCops(a *AllCopsConfig) error {
	switch a.NewCops {
	case "", "enable", "disable", "pending":
		return nil
	default:
		return fmt.Errorf("AllCops.NewCops must be enable/disable/pending, got %q", a.NewCops)
	}
}

func (v *Validator) validateCop(name string, cc CopConfig) error {
	switch cc.Severity {
	case "", "refactor", "convention", "warning", "error", "fatal":
		return nil
	default:
		return fmt.Errorf("%s: unknown Severity %q", name, cc.Severity)
	}
}

// setSmartDefaults fills in engine-wide defaults the loader leaves zero.
func (v *Validator) setSmartDefaults(cfg *ResolvedConfig) {
	if cfg.AllCops.NewCops == "" {
		cfg.AllCops.NewCops = "pending"
	}
	if cfg.AllCops.TargetRubyVersion == "" {
		cfg.AllCops.TargetRubyVersion = "3.0"
	}
}

// ValidateConfig is a convenience wrapper around Validator for callers
// that don't need to reuse the Validator value.
func ValidateConfig(cfg *ResolvedConfig) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
