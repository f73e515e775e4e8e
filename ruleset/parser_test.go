package ruleset

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyautomation/tentacle-nftables/buslog"
)

func TestParserSingleRule(t *testing.T) {
	p := NewParser(nil)

	rules := p.Parse(`id=r1 name="Office PC" enabled=yes proto=tcp src_port=8080 target=192.168.1.10 target_port=80`)

	require.Len(t, rules, 1)
	assert.Equal(t, Rule{
		ID:         "r1",
		Name:       "Office PC",
		Enabled:    true,
		Protocol:   "tcp",
		SourcePort: 8080,
		Target:     "192.168.1.10",
		TargetPort: 80,
	}, rules[0])
}

func TestParserMultipleRulesAndComments(t *testing.T) {
	p := NewParser(nil)

	rules := p.Parse(`# NAT port forwards
id=r1 name="Office PC" enabled=yes proto=tcp src_port=8080 target=192.168.1.10 target_port=80

id=r2 enabled=no proto=udp src_port=5353 target=192.168.1.20 target_port=53
`)

	require.Len(t, rules, 2)
	assert.Equal(t, "r1", rules[0].ID)
	assert.Equal(t, "r2", rules[1].ID)
	assert.False(t, rules[1].Enabled)
	assert.Equal(t, "udp", rules[1].Protocol)
}

func TestParserBooleanForms(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"yes", true},
		{"true", true},
		{"1", true},
		{"on", true},
		{"no", false},
		{"false", false},
		{"0", false},
		{"off", false},
	}

	p := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			rules := p.Parse("id=r1 enabled=" + tt.value)
			require.Len(t, rules, 1)
			assert.Equal(t, tt.want, rules[0].Enabled)
		})
	}
}

func TestParserMalformedLinesSkipped(t *testing.T) {
	p := NewParser(nil)

	rules := p.Parse(`id=r1 enabled=yes proto=tcp src_port=8080 target=10.0.0.1 target_port=80
id=bad enabled=maybe proto=tcp
id=worse src_port=99999
id=r2 enabled=no proto=udp src_port=53 target=10.0.0.2 target_port=53`)

	// Bad lines are dropped, the valid ones around them survive
	require.Len(t, rules, 2)
	assert.Equal(t, "r1", rules[0].ID)
	assert.Equal(t, "r2", rules[1].ID)
}

func TestParserUnterminatedQuote(t *testing.T) {
	p := NewParser(nil)

	rules := p.Parse(`id=r1 name="broken enabled=yes`)
	assert.Empty(t, rules)
}

func TestParserMissingIDGetsGenerated(t *testing.T) {
	p := NewParser(nil)

	rules := p.Parse(`enabled=yes proto=tcp src_port=80 target=10.0.0.1 target_port=80`)

	require.Len(t, rules, 1)
	assert.NotEmpty(t, rules[0].ID)
}

func TestParserUnknownKeysTolerated(t *testing.T) {
	p := NewParser(nil)

	rules := p.Parse(`id=r1 enabled=yes proto=tcp src_port=80 target=10.0.0.1 target_port=80 zone=dmz ttl=300`)

	require.Len(t, rules, 1)
	assert.Equal(t, "r1", rules[0].ID)
}

func TestParserEmptyInput(t *testing.T) {
	p := NewParser(nil)

	assert.Empty(t, p.Parse(""))
	assert.Empty(t, p.Parse("\n\n# only comments\n"))
}

func TestParserWarnsThroughMirrorLogger(t *testing.T) {
	base := slog.New(slog.NewJSONHandler(io.Discard, nil))
	mirror := buslog.New("parser", base, new(slog.LevelVar), nil)

	p := NewParser(mirror)
	rules := p.Parse("id=r1 enabled=yes\nid=bad enabled=maybe")

	// Malformed-line warnings go through the mirror capability without
	// disturbing the parse
	require.Len(t, rules, 1)
	assert.Equal(t, "r1", rules[0].ID)
}

func TestParserQuotedDescription(t *testing.T) {
	p := NewParser(nil)

	rules := p.Parse(`id=r1 name="NAS" description="Web UI, port 443" enabled=yes proto=tcp src_port=443 target=10.0.0.5 target_port=443`)

	require.Len(t, rules, 1)
	assert.Equal(t, "Web UI, port 443", rules[0].Description)
}
