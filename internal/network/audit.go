package network

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MRamiBalles/babyturt/internal/events"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
)

// AuditHandler serves the tag audit log.
type AuditHandler struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(el *events.EventLog, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		eventLog: el,
		logger:   log,
	}
}

// AuditEvent is an event in public format.
type AuditEvent struct {
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp"`
	Tick      int64       `json:"tick"`
	Type      string      `json:"type"`
	Actor     string      `json:"actor"`
	Target    string      `json:"target,omitempty"`
	Summary   string      `json:"summary"`
	Details   interface{} `json:"details,omitempty"`
}

// AuditResponse is the API response for the audit log.
type AuditResponse struct {
	TotalEvents int          `json:"total_events"`
	GeneratedAt string       `json:"generated_at"`
	Events      []AuditEvent `json:"events"`
}

// HandleEvents returns the retained audit log, newest last.
// GET /api/events?type=ENTITY_TAGGED&target=<entity>&limit=N
func (ah *AuditHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	q := r.URL.Query()
	eventType := q.Get("type")
	target := q.Get("target")
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	var source []events.GameEvent
	switch {
	case target != "":
		source = ah.eventLog.GetByTarget(target)
	case eventType != "":
		source = ah.eventLog.GetByType(events.EventType(eventType))
	default:
		source = ah.eventLog.Replay()
	}

	out := make([]AuditEvent, 0, len(source))
	for _, e := range source {
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		out = append(out, toAuditEvent(e))
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}

	writeJSON(w, http.StatusOK, AuditResponse{
		TotalEvents: len(out),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      out,
	})
}

// HandleStats returns event counts per type.
// GET /api/events/stats
func (ah *AuditHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	all := ah.eventLog.Replay()
	stats := map[string]int{"total_events": len(all)}
	for _, e := range all {
		stats[string(e.Type)]++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// RegisterRoutes sets up the audit API routes.
func (ah *AuditHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/events", ah.HandleEvents)
	mux.HandleFunc("/api/events/stats", ah.HandleStats)
}

func toAuditEvent(e events.GameEvent) AuditEvent {
	return AuditEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format(time.RFC3339),
		Tick:      e.Tick,
		Type:      string(e.Type),
		Actor:     e.ActorID,
		Target:    e.TargetID,
		Summary:   summarize(e),
		Details:   e.Payload,
	}
}

// summarize creates a human-readable summary.
func summarize(e events.GameEvent) string {
	switch e.Type {
	case events.EventTypeEntityTagged:
		return "Entity tagged and kept young."
	case events.EventTypeEntityUntagged:
		return "Entity released and growing again."
	case events.EventTypeGrowthSweep:
		if p, ok := e.Payload.(events.SweepPayload); ok {
			return "Growth reset for " + strconv.Itoa(p.Signalled) + " entities, " + strconv.Itoa(p.Pruned) + " pruned."
		}
		return "Growth reset sweep."
	case events.EventTypeEntityGrewUp:
		return "Entity grew up."
	default:
		return string(e.Type)
	}
}
