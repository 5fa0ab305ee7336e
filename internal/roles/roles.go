// Package roles holds the static persona catalog for Roundtable discussions.
package roles

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Persona is one named discussion role backed by a generative model.
// Avatar and Color are presentation hints for UIs; the core never
// interprets them.
type Persona struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Model       string `yaml:"model"`
	Prompt      string `yaml:"prompt"`
	Avatar      string `yaml:"avatar"`
	Color       string `yaml:"color"`
}

// Registry is the read-only persona catalog. Built once at startup from the
// built-in defaults, optionally merged with a YAML roles file.
type Registry struct {
	byID  map[string]Persona
	order []string
}

// rolesFile is the YAML shape of an external roles file.
type rolesFile struct {
	Roles []Persona `yaml:"roles"`
}

// NewRegistry builds a Registry from the given personas. Later entries with
// a duplicate ID override earlier ones while keeping the original position.
func NewRegistry(personas []Persona) (*Registry, error) {
	r := &Registry{byID: make(map[string]Persona)}
	for i, p := range personas {
		if p.ID == "" {
			return nil, fmt.Errorf("roles: persona %d has empty id", i)
		}
		if p.Model == "" {
			return nil, fmt.Errorf("roles: persona %q has no model", p.ID)
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		if _, seen := r.byID[p.ID]; !seen {
			r.order = append(r.order, p.ID)
		}
		r.byID[p.ID] = p
	}
	return r, nil
}

// LoadRegistry builds a Registry from the built-in personas, merged with the
// roles file at path if path is non-empty. File entries override built-ins
// with the same ID.
func LoadRegistry(path string) (*Registry, error) {
	personas := Builtin()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("roles: read %s: %w", path, err)
		}
		var rf rolesFile
		if err := yaml.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("roles: parse %s: %w", path, err)
		}
		personas = append(personas, rf.Roles...)
	}
	return NewRegistry(personas)
}

// Get returns the persona with the given id.
func (r *Registry) Get(id string) (Persona, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Has reports whether a persona with the given id exists.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// All returns every persona in registration order.
func (r *Registry) All() []Persona {
	out := make([]Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns all persona ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered personas.
func (r *Registry) Len() int {
	return len(r.byID)
}
