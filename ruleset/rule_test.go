package ruleset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyautomation/tentacle-nftables/telemetry"
)

func TestRuleTrackedFieldsOrder(t *testing.T) {
	r := Rule{
		ID:         "r1",
		Name:       "Office PC",
		Enabled:    true,
		Protocol:   "tcp",
		SourcePort: 8080,
		Target:     "192.168.1.10",
		TargetPort: 80,
	}

	fields := r.TrackedFields()
	require.Len(t, fields, 5)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"enabled", "protocol", "source_port", "target", "target_port"}, names)

	assert.Equal(t, true, fields[0].Value)
	assert.Equal(t, telemetry.DatatypeBoolean, fields[0].Type)
	assert.Equal(t, "tcp", fields[1].Value)
	assert.Equal(t, 8080, fields[2].Value)
	assert.Equal(t, telemetry.DatatypeNumber, fields[2].Type)
	assert.Equal(t, "Target Address", fields[3].Label)
}

func TestRuleEntityKey(t *testing.T) {
	named := Rule{ID: "r1", Name: "Office PC"}
	assert.Equal(t, "office-pc", telemetry.Key(named))

	anonymous := Rule{ID: "r2"}
	assert.Equal(t, "r2", telemetry.Key(anonymous))
}

func TestTemplateMatchesTrackedFields(t *testing.T) {
	template := Template()
	assert.Equal(t, "nat-rule/v1", template.Ref())

	fields := Rule{}.TrackedFields()
	require.Len(t, template.Fields, len(fields))

	// Template layout must stay in lockstep with the entity's field list
	for i, def := range template.Fields {
		assert.Equal(t, fields[i].Name, def.Name)
		assert.Equal(t, fields[i].Label, def.Label)
		assert.Equal(t, fields[i].Type, def.Type)
	}
}

func TestEntities(t *testing.T) {
	rules := []Rule{{ID: "r1"}, {ID: "r2"}}
	entities := Entities(rules)

	require.Len(t, entities, 2)
	assert.Equal(t, "r1", entities[0].EntityID())
	assert.Equal(t, "r2", entities[1].EntityID())
}
