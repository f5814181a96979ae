package config

import (
	"os"
	"strings"
)

// TelemetryEnv toggles anonymous usage telemetry. It is enabled unless set to a
// value other than true, 1 or yes.
const TelemetryEnv = "ZENTRY_TELEMETRY"

// TelemetryEnabled reports whether telemetry is enabled in the environment.
func TelemetryEnabled() bool {
	v, ok := os.LookupEnv(TelemetryEnv)
	if !ok {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
