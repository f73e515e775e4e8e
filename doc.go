// Package tentaclenftables is the root of the tentacle-nftables module, a
// telemetry emitter for nftables NAT rules.
//
// # Architecture
//
// The service polls the local nftables ruleset on an interval, parses it
// into rule entities, and publishes only the values that changed since the
// last cycle:
//
//	┌──────────────┐     ┌──────────────┐     ┌──────────────┐
//	│   ruleset    │ --> │  telemetry   │ --> │  natsclient  │
//	│ read + parse │     │ encode+cache │     │   publish    │
//	└──────────────┘     └──────────────┘     └──────────────┘
//
// Telemetry goes out on {namespace}.data.{key} subjects. Two encodings are
// supported: flattened (one message per rule field) and structured (one
// UDT message per rule, referencing a schema template).
//
// All service logs flow through buslog, which writes to the local slog
// sink unconditionally and mirrors each record onto
// service.logs.{serviceType}.{moduleId} once the bus is connected. The bus
// is strictly best-effort: a NATS outage degrades the service to
// local-only logging, it never stops it.
package tentaclenftables
