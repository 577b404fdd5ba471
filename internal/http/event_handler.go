package http

import (
	"encoding/json"
	"net/http"

	"github.com/hookline/hookline/internal/http/middleware"
	"github.com/hookline/hookline/internal/service"
	"github.com/hookline/hookline/pkg/logger"
)

// EventHandler lets operators fire object events by hand, say to verify a
// destination end to end or to replay a change a host application missed.
type EventHandler struct {
	events       *service.EventService
	logger       logger.Logger
	getJWTSecret func() ([]byte, error)
}

func NewEventHandler(events *service.EventService, getJWTSecret func() ([]byte, error), logger logger.Logger) *EventHandler {
	return &EventHandler{
		events:       events,
		getJWTSecret: getJWTSecret,
		logger:       logger,
	}
}

// RegisterRoutes registers the event endpoints
func (h *EventHandler) RegisterRoutes(mux *http.ServeMux) {
	authMiddleware := middleware.NewAuthMiddleware(h.getJWTSecret)
	requireAuth := authMiddleware.RequireAuth()

	mux.Handle("/api/events.fire", requireAuth(http.HandlerFunc(h.handleFire)))
}

// handleFire handles POST /api/events.fire
func (h *EventHandler) handleFire(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req service.FireEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	matched, err := h.events.FireObjectEvent(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Site not found", "Failed to fire event")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fired":   true,
		"matched": matched,
	})
}
