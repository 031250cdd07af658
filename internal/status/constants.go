// internal/status/constants.go
package status

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state, before the first outcome.
const HealthUnknown uint16 = 0

// HealthOK represents a component whose last operation succeeded.
const HealthOK uint16 = 1

// HealthError represents a component whose last operation failed.
const HealthError uint16 = 2

// HealthDisabled represents a sink switched off in configuration.
const HealthDisabled uint16 = 4

// ---- ERROR CLASSES ----

// ClassGeneric is used when an error does not expose a class.
const ClassGeneric = "error"

// SourceName is the tracker key used for the fetch step.
const SourceName = "source"

// HealthName returns the label used in logs and metrics.
func HealthName(h uint16) string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}
