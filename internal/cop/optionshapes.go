package cop

import "github.com/google/jsonschema-go/jsonschema"

// OptionShape declares the closed set of configuration keys a cop
// accepts beyond the universal Enabled/Severity/Include/Exclude keys,
// so a config audit can flag a typo'd or unsupported key instead of
// silently ignoring it (spec §9's "zero config gaps" decision).
type OptionShape struct {
	CopName string
	Schema  *jsonschema.Schema
}

// Registry of declared option shapes, keyed by cop FullName. Cops
// register their shape from an init() in their own package; a cop with
// no entry here is assumed to accept no cop-specific options.
var optionShapes = map[string]*jsonschema.Schema{}

// DeclareOptions registers the option shape for a cop. Call from the
// cop's package init().
func DeclareOptions(fullName string, schema *jsonschema.Schema) {
	optionShapes[fullName] = schema
}

// OptionShapeFor returns the declared schema for a cop, or nil if none
// was declared.
func OptionShapeFor(fullName string) *jsonschema.Schema {
	return optionShapes[fullName]
}

// AuditGaps reports every cop in the registry that has no declared
// option shape. An empty result means every cop's configuration surface
// is documented (the "zero-gaps" audit).
func (r *Registry) AuditGaps() []string {
	var gaps []string
	for _, name := range r.Names() {
		if OptionShapeFor(name) == nil {
			gaps = append(gaps, name)
		}
	}
	return gaps
}

// StringSchema is a convenience constructor for a plain string option.
func StringSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

// IntSchema is a convenience constructor for a plain integer option.
func IntSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc}
}

// BoolSchema is a convenience constructor for a plain boolean option.
func BoolSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: desc}
}

// StringArraySchema is a convenience constructor for a string-list option.
func StringArraySchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: desc,
		Items:       &jsonschema.Schema{Type: "string"},
	}
}
