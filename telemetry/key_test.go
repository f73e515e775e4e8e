package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		fallbackID string
		want       string
	}{
		{
			name:       "simple name",
			input:      "Office PC",
			fallbackID: "r1",
			want:       "office-pc",
		},
		{
			name:       "symbols collapse to single dash",
			input:      "My Device #1",
			fallbackID: "r1",
			want:       "my-device-1",
		},
		{
			name:       "leading and trailing symbols trimmed",
			input:      "--web server--",
			fallbackID: "r1",
			want:       "web-server",
		},
		{
			name:       "empty name falls back to id",
			input:      "",
			fallbackID: "r42",
			want:       "r42",
		},
		{
			name:       "entirely symbolic name falls back to id",
			input:      "!!! ***",
			fallbackID: "r42",
			want:       "r42",
		},
		{
			name:       "already derived key is unchanged",
			input:      "office-pc",
			fallbackID: "r1",
			want:       "office-pc",
		},
		{
			name:       "mixed case and digits",
			input:      "NAS Port 443",
			fallbackID: "r1",
			want:       "nas-port-443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveKey(tt.input, tt.fallbackID)
			assert.Equal(t, tt.want, got)

			// Deriving an already derived key is a no-op
			assert.Equal(t, got, DeriveKey(got, tt.fallbackID))
		})
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Equal(t, "office-pc", DeriveKey("Office PC", "r1"))
	}
}
