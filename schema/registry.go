// Package schema provides the UDT template registry consumed by the
// structured encoding strategy. A template describes the field layout of a
// structured instance so downstream consumers can reconstruct the entity.
package schema

import (
	"fmt"
	"sync"

	"github.com/joyautomation/tentacle-nftables/errors"
	"github.com/joyautomation/tentacle-nftables/telemetry"
)

// FieldDef describes one field of a template.
type FieldDef struct {
	Name  string             `json:"name"`
	Label string             `json:"label"`
	Type  telemetry.Datatype `json:"type"`
}

// Template is a versioned structure descriptor for one entity kind.
type Template struct {
	Name    string     `json:"name"`
	Version int        `json:"version"`
	Fields  []FieldDef `json:"fields"`
}

// Ref returns the template reference attached to outbound messages,
// e.g. "nat-rule/v1".
func (t Template) Ref() string {
	return fmt.Sprintf("%s/v%d", t.Name, t.Version)
}

// Registry holds templates by name. Registration happens once at startup;
// lookups are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]Template),
	}
}

// Register adds a template. Registering a name twice is a configuration
// error.
func (r *Registry) Register(t Template) error {
	if t.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Registry", "Register", "template name required")
	}
	if len(t.Fields) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Registry", "Register", "template has no fields")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[t.Name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("template %q already registered", t.Name),
			"Registry", "Register", "duplicate template")
	}

	r.templates[t.Name] = t
	return nil
}

// Lookup returns the template registered under name.
func (r *Registry) Lookup(name string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.templates[name]
	if !exists {
		return Template{}, errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrTemplateNotFound, name),
			"Registry", "Lookup", "resolve template")
	}
	return t, nil
}

// Names returns all registered template names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}
