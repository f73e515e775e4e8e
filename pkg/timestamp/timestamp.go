// Package timestamp provides the canonical timestamp format for the wire:
// int64 milliseconds since Unix epoch (UTC), carried by every outbound
// telemetry message and log record.
package timestamp

import "time"

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}
