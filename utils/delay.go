package utils

import (
	"log/slog"
	"time"
)

// ApplyDelay models the latency of a simulated device operation.
// A non-positive delay is a no-op so hot paths stay silent.
func ApplyDelay(operation string, durationMs int) {
	if durationMs <= 0 {
		return
	}
	slog.Debug("Applying simulated delay", "operation", operation, "duration_ms", durationMs)
	time.Sleep(time.Duration(durationMs) * time.Millisecond)
}
