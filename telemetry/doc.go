// Package telemetry implements the change-detection publisher that mirrors
// NAT rule state onto the NATS bus.
//
// # Overview
//
// Each publish cycle the host service hands the publisher a snapshot of
// parsed rule entities. For every entity the publisher derives a stable
// bus-safe key, encodes the entity into one or more outbound messages under
// the configured strategy, and consults a process-lifetime change cache so
// only values that actually changed are sent.
//
// Two encoding strategies exist, mutually exclusive at deployment time:
//
//   - Flattened: one message per tracked field, addressed as
//     {entityKey}/{field}. Downstream consumers get independently
//     addressable scalar signals.
//   - Structured: one message per entity carrying the whole field set,
//     with a UDT template reference attached. Downstream consumers
//     reconstruct the entity as a single structured signal.
//
// Publishing is best-effort and fire-and-forget: a send failure is logged
// and counted, never retried, and never escapes the publisher. The change
// cache commits before the send attempt, so a lost send is suppressed until
// the value changes again rather than re-sent every cycle.
//
// # Subjects
//
// Outbound messages are published on:
//
//	{namespace}.data.{compareKey}
//
// where compareKey is the variable id (flattened) or the entity key
// (structured).
package telemetry
