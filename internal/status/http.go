// internal/status/http.go
package status

import (
	"encoding/json"
	"net/http"
	"time"
)

type componentView struct {
	Name           string `json:"name"`
	HealthName     string `json:"health_name"`
	SecondsInError uint32 `json:"seconds_in_error"`
	Snapshot
}

// Handler serves every tracked component as JSON, sorted by name.
// The response code is 503 when any component is in error.
func Handler(t *Tracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		now := t.clock.Now()
		snaps := t.All()

		code := http.StatusOK
		out := make([]componentView, 0, len(snaps))
		for _, name := range t.Names() {
			s := snaps[name]
			if s.Health == HealthError {
				code = http.StatusServiceUnavailable
			}
			out = append(out, componentView{
				Name:           name,
				HealthName:     HealthName(s.Health),
				SecondsInError: s.SecondsInError(now),
				Snapshot:       s,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(struct {
			Time       time.Time       `json:"time"`
			Components []componentView `json:"components"`
		}{Time: now, Components: out})
	})
}
