package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/desertthunder/shelfbridge/internal/bridge"
)

// SessionStatus is implemented by [*bridge.Session].
type SessionStatus interface {
	State() bridge.State
	Subscribed() bool
}

// StatsSource is implemented by [*bridge.Supervisor].
type StatsSource interface {
	Stats() bridge.Stats
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string     `json:"status"`
	State      string     `json:"state"`
	Subscribed bool       `json:"subscribed"`
	Received   int64      `json:"received"`
	Published  int64      `json:"published"`
	Dropped    int64      `json:"dropped"`
	LastEvent  *time.Time `json:"last_event,omitempty"`
	Uptime     float64    `json:"uptime_seconds"`
}

// HealthHandler reports connection state and event counters.
type HealthHandler struct {
	session SessionStatus
	stats   StatsSource
	started time.Time
}

// NewHealthHandler creates a handler; stats may be nil.
func NewHealthHandler(session SessionStatus, stats StatsSource) *HealthHandler {
	return &HealthHandler{session: session, stats: stats, started: time.Now()}
}

func (h *HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.session.State()
	resp := HealthResponse{
		Status:     "ok",
		State:      state.String(),
		Subscribed: h.session.Subscribed(),
		Uptime:     time.Since(h.started).Seconds(),
	}
	if h.stats != nil {
		st := h.stats.Stats()
		resp.Received, resp.Published, resp.Dropped = st.Received, st.Published, st.Dropped
		if !st.LastEvent.IsZero() {
			resp.LastEvent = &st.LastEvent
		}
	}

	code := http.StatusOK
	if state != bridge.Authenticated {
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
