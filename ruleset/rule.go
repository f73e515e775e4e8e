// Package ruleset supplies the NAT rule entity and the upstream
// collaborators that produce it: an exec-based reader for the current
// nftables ruleset and a parser turning its text output into rules.
package ruleset

import (
	"github.com/joyautomation/tentacle-nftables/schema"
	"github.com/joyautomation/tentacle-nftables/telemetry"
)

// Rule is one NAT (port forward) rule. Immutable for the duration of one
// publish cycle.
type Rule struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	Protocol    string `json:"protocol"`
	SourcePort  int    `json:"source_port"`
	Target      string `json:"target"`
	TargetPort  int    `json:"target_port"`
}

// EntityID returns the rule's unique identifier.
func (r Rule) EntityID() string {
	return r.ID
}

// DisplayName returns the human-assigned device name, which may be empty.
func (r Rule) DisplayName() string {
	return r.Name
}

// TrackedFields returns the fixed tracked-field list for NAT rules. Order
// is stable: it determines message ordering within one entity under the
// flattened strategy.
func (r Rule) TrackedFields() []telemetry.Field {
	return []telemetry.Field{
		{Name: "enabled", Label: "Enabled", Type: telemetry.DatatypeBoolean, Value: r.Enabled},
		{Name: "protocol", Label: "Protocol", Type: telemetry.DatatypeString, Value: r.Protocol},
		{Name: "source_port", Label: "Source Port", Type: telemetry.DatatypeNumber, Value: r.SourcePort},
		{Name: "target", Label: "Target Address", Type: telemetry.DatatypeString, Value: r.Target},
		{Name: "target_port", Label: "Target Port", Type: telemetry.DatatypeNumber, Value: r.TargetPort},
	}
}

// Entities converts a rule slice to the entity slice the publisher consumes.
func Entities(rules []Rule) []telemetry.Entity {
	entities := make([]telemetry.Entity, len(rules))
	for i, r := range rules {
		entities[i] = r
	}
	return entities
}

// TemplateVersion is bumped whenever the tracked-field layout changes.
const TemplateVersion = 1

// Template returns the UDT descriptor for NAT rules, registered with the
// schema registry at startup for the structured strategy.
func Template() schema.Template {
	return schema.Template{
		Name:    "nat-rule",
		Version: TemplateVersion,
		Fields: []schema.FieldDef{
			{Name: "enabled", Label: "Enabled", Type: telemetry.DatatypeBoolean},
			{Name: "protocol", Label: "Protocol", Type: telemetry.DatatypeString},
			{Name: "source_port", Label: "Source Port", Type: telemetry.DatatypeNumber},
			{Name: "target", Label: "Target Address", Type: telemetry.DatatypeString},
			{Name: "target_port", Label: "Target Port", Type: telemetry.DatatypeNumber},
		},
	}
}
