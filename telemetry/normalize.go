package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/joyautomation/tentacle-nftables/errors"
)

// Normalize converts a field value into its canonical comparable text form.
//
// Supported kinds are numbers, booleans, text, and a flat mapping of those.
// Canonical form is JSON: encoding/json marshals map keys in sorted order,
// so two semantically identical mappings always normalize to identical text
// regardless of insertion order. That determinism is the invariant the
// change cache depends on.
//
// An unsupported kind is a caller contract violation and yields an
// Invalid-classified error wrapping ErrUnsupportedValue.
func Normalize(v any) (string, error) {
	switch val := v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		data, err := json.Marshal(val)
		if err != nil {
			return "", errors.WrapInvalid(err, "Normalizer", "Normalize", "marshal scalar")
		}
		return string(data), nil

	case map[string]any:
		for name, field := range val {
			if !isScalar(field) {
				return "", errors.WrapInvalid(
					fmt.Errorf("%w: field %q is %T", errors.ErrUnsupportedValue, name, field),
					"Normalizer", "Normalize", "validate mapping")
			}
		}
		data, err := json.Marshal(val)
		if err != nil {
			return "", errors.WrapInvalid(err, "Normalizer", "Normalize", "marshal mapping")
		}
		return string(data), nil

	default:
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %T", errors.ErrUnsupportedValue, v),
			"Normalizer", "Normalize", "value kind")
	}
}

// isScalar reports whether v is a supported scalar kind.
func isScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	default:
		return false
	}
}
