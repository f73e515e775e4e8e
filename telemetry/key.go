package telemetry

import (
	"strings"
	"unicode"
)

// DeriveKey turns a human-assigned name into a stable, bus-safe identifier.
//
// The name is lowercased, every run of non-alphanumeric characters collapses
// to a single dash, and leading/trailing dashes are trimmed. If nothing
// alphanumeric survives (name absent, empty, or entirely symbolic) the
// fallback id is returned verbatim. Callers guarantee fallbackID is
// non-empty.
//
// DeriveKey is a total function and idempotent: re-deriving an already
// derived key yields the same key.
func DeriveKey(name, fallbackID string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	slug := b.String()
	if slug == "" {
		return fallbackID
	}
	return slug
}
