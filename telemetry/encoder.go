package telemetry

import (
	stderrors "errors"

	"github.com/joyautomation/tentacle-nftables/errors"
	"github.com/joyautomation/tentacle-nftables/pkg/timestamp"
)

// Candidate pairs one outbound message with the comparison key and
// canonical value the change cache uses to decide whether to send it.
type Candidate struct {
	CompareKey string
	Canonical  string
	Message    Message
}

// Encoder converts one entity into zero or more publish candidates. A
// returned error reports encoding problems local to the entity; any
// candidates returned alongside it are still valid and should be published.
type Encoder interface {
	Encode(e Entity, entityKey string) ([]Candidate, error)
}

// FlattenedEncoder emits one metric message per tracked field, addressed as
// {entityKey}/{field}. Appropriate when downstream consumers want
// independently addressable scalar signals.
type FlattenedEncoder struct {
	moduleID string
	deviceID string
}

// NewFlattenedEncoder creates a flattened-strategy encoder stamping
// messages with the given module and device identity.
func NewFlattenedEncoder(moduleID, deviceID string) *FlattenedEncoder {
	return &FlattenedEncoder{
		moduleID: moduleID,
		deviceID: deviceID,
	}
}

// Encode builds one candidate per tracked field. A field whose value fails
// to normalize is skipped and reported in the joined error; remaining
// fields are unaffected.
func (f *FlattenedEncoder) Encode(e Entity, entityKey string) ([]Candidate, error) {
	fields := e.TrackedFields()
	candidates := make([]Candidate, 0, len(fields))
	var errs []error

	for _, field := range fields {
		canonical, err := Normalize(field.Value)
		if err != nil {
			errs = append(errs, errors.Wrap(err, "FlattenedEncoder", "Encode", "normalize "+field.Name))
			continue
		}

		variableID := entityKey + "/" + field.Name
		candidates = append(candidates, Candidate{
			CompareKey: variableID,
			Canonical:  canonical,
			Message: Message{
				ModuleID:    f.moduleID,
				DeviceID:    f.deviceID,
				VariableID:  variableID,
				Value:       field.Value,
				Timestamp:   timestamp.Now(),
				Datatype:    field.Type,
				Description: displayName(e) + " - " + field.Label,
			},
		})
	}

	return candidates, stderrors.Join(errs...)
}

// StructuredEncoder emits one message per entity carrying the whole tracked
// field set as a single instance value, with the UDT template reference
// attached unmodified. Appropriate when downstream consumers reconstruct
// the entity as one structured signal.
type StructuredEncoder struct {
	moduleID string
	deviceID string
	template string
}

// NewStructuredEncoder creates a structured-strategy encoder. The template
// reference comes from the schema registry and is attached to every
// message as-is.
func NewStructuredEncoder(moduleID, deviceID, template string) *StructuredEncoder {
	return &StructuredEncoder{
		moduleID: moduleID,
		deviceID: deviceID,
		template: template,
	}
}

// Encode builds a single candidate keyed by the entity key. The canonical
// value is the normalized serialization of the whole instance, so a change
// to any one field marks the entity changed.
func (s *StructuredEncoder) Encode(e Entity, entityKey string) ([]Candidate, error) {
	fields := e.TrackedFields()
	instance := make(map[string]any, len(fields))
	for _, field := range fields {
		instance[field.Name] = field.Value
	}

	canonical, err := Normalize(instance)
	if err != nil {
		return nil, errors.Wrap(err, "StructuredEncoder", "Encode", "normalize instance")
	}

	return []Candidate{{
		CompareKey: entityKey,
		Canonical:  canonical,
		Message: Message{
			ModuleID:    s.moduleID,
			DeviceID:    s.deviceID,
			VariableID:  entityKey,
			Value:       instance,
			Timestamp:   timestamp.Now(),
			Datatype:    DatatypeUDT,
			Description: displayName(e),
			UDTTemplate: s.template,
		},
	}}, nil
}

// displayName returns the entity's human name, falling back to its id.
func displayName(e Entity) string {
	if name := e.DisplayName(); name != "" {
		return name
	}
	return e.EntityID()
}
