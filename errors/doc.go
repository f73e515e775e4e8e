// Package errors provides standardized error handling for tentacle-nftables.
//
// # Overview
//
// The package implements a three-class error classification system: Transient
// (temporary, a later publish cycle may succeed), Invalid (bad input, do not
// retry), and Fatal (unrecoverable, stop processing).
//
// The telemetry layer maps its error taxonomy onto these classes:
//
//   - Transport failures (bus disconnected, publish timeout) are Transient.
//     They are absorbed at the publish boundary and surface only through
//     counts and logs.
//   - Encoding failures (a value of unsupported kind reaching the
//     normalizer) are Invalid. They are local to one field or entity and
//     never abort a batch.
//   - Upstream ruleset read failures are wrapped around ErrRulesetRead and
//     propagate to the caller as hard failures: a failed read means there is
//     no valid snapshot to publish.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Publisher", "Publish", "bus send")
//	errors.WrapInvalid(err, "Normalizer", "Normalize", "value kind")
//	errors.WrapFatal(err, "Loader", "Load", "config validation")
//
// The generic Wrap() preserves the original error's classification.
//
// # Integration with errors.As/Is
//
// All error types support standard library inspection. Classification is
// preserved through wrapping chains:
//
//	wrapped := errors.WrapTransient(errors.ErrNotConnected, "Client", "Publish", "send")
//	errors.IsTransient(wrapped) // true
//	errors.Is(wrapped, errors.ErrNotConnected) // true
package errors
