package cop

import (
	"fmt"
	"sort"

	"github.com/hbollon/go-edlib"
)

// Registry holds every cop known to the engine, in the order they were
// registered. Registration order is preserved (not sorted) because some
// cops depend on running after others within the same node-type bucket
// (e.g. a layout cop correcting whitespace before a style cop inspects
// it), following a one-file-per-concern registration order.
type Registry struct {
	cops    []Cop
	byName  map[string]int // FullName -> index into cops
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds a cop. Registering the same FullName twice panics: that
// is a programming error in cop wiring, not a runtime condition.
func (r *Registry) Register(c Cop) {
	name := c.Metadata().FullName()
	if _, exists := r.byName[name]; exists {
		panic(fmt.Sprintf("cop %s registered twice", name))
	}
	r.byName[name] = len(r.cops)
	r.cops = append(r.cops, c)
}

// All returns every registered cop in registration order. Callers must
// not mutate the returned slice.
func (r *Registry) All() []Cop { return r.cops }

// Lookup finds a cop by its "Department/Name" id.
func (r *Registry) Lookup(fullName string) (Cop, bool) {
	idx, ok := r.byName[fullName]
	if !ok {
		return nil, false
	}
	return r.cops[idx], true
}

// Department returns every cop registered under the given department,
// in registration order.
func (r *Registry) Department(dept string) []Cop {
	var out []Cop
	for _, c := range r.cops {
		if c.Metadata().Department == dept {
			out = append(out, c)
		}
	}
	return out
}

// Names returns every registered cop's FullName, in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.cops))
	for i, c := range r.cops {
		names[i] = c.Metadata().FullName()
	}
	return names
}

// Suggest returns up to limit registered cop names that look like
// plausible typo-corrections for an unrecognized --only/--except name,
// ranked by Levenshtein distance (closest first). Used to turn a
// "no such cop" error into an actionable message.
func (r *Registry) Suggest(unknown string, limit int) []string {
	type scored struct {
		name string
		sim  float64
	}
	var candidates []scored
	for _, name := range r.Names() {
		sim, err := edlib.StringsSimilarity(unknown, name, edlib.Levenshtein)
		if err != nil {
			continue
		}
		candidates = append(candidates, scored{name: name, sim: float64(sim)})
	}
	// StringsSimilarity is 1 for identical strings and falls as the
	// Levenshtein distance grows, so the closest names sort first.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}
