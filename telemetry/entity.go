package telemetry

// Datatype is the wire-level type tag carried by every outbound message.
type Datatype string

// Datatype tags understood by downstream consumers
const (
	DatatypeNumber  Datatype = "number"
	DatatypeBoolean Datatype = "boolean"
	DatatypeString  Datatype = "string"
	// DatatypeUDT marks a structured instance value with an attached
	// template reference.
	DatatypeUDT Datatype = "udt"
)

// Field is one tracked field of an entity. The field list is fixed per
// entity kind; Type is the field's static tag, not derived from Value.
type Field struct {
	Name  string
	Label string
	Type  Datatype
	Value any
}

// Entity is one domain record whose fields are tracked for change. Entities
// are supplied by the caller per publish cycle and not retained beyond it.
type Entity interface {
	// EntityID returns the mandatory unique identifier. Callers guarantee
	// it is non-empty.
	EntityID() string

	// DisplayName returns the optional human-assigned name. May be empty.
	DisplayName() string

	// TrackedFields returns the tracked fields in a fixed, stable order.
	TrackedFields() []Field
}

// Key returns the bus-safe identifier for an entity, derived from its
// display name with the entity id as fallback.
func Key(e Entity) string {
	return DeriveKey(e.DisplayName(), e.EntityID())
}
