// internal/status/encode.go
package status

import (
	"errors"
	"log/slog"
)

// LogValue renders a snapshot as a slog group.
func (s Snapshot) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("health", HealthName(s.Health)),
		slog.Uint64("consecutive_failures", uint64(s.ConsecutiveFailures)),
	}
	if s.LastErrorClass != "" {
		attrs = append(attrs, slog.String("last_error_class", s.LastErrorClass))
	}
	if !s.FailingSince.IsZero() {
		attrs = append(attrs, slog.Time("failing_since", s.FailingSince))
	}
	return slog.GroupValue(attrs...)
}

// ErrorClass extracts a best-effort class from an error without assuming
// concrete types. Errors that do not expose one are ClassGeneric.
func ErrorClass(err error) string {
	if err == nil {
		return ""
	}

	type classer interface{ Class() string }

	var c classer
	if errors.As(err, &c) {
		if cls := c.Class(); cls != "" {
			return cls
		}
	}
	return ClassGeneric
}
