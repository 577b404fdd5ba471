package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/internal/http/middleware"
	"github.com/hookline/hookline/internal/service"
	"github.com/hookline/hookline/pkg/logger"
)

// AttemptHandler exposes read access to delivery attempts so operators can
// inspect what was sent where and how the destination answered.
type AttemptHandler struct {
	registry     *service.Registry
	logger       logger.Logger
	getJWTSecret func() ([]byte, error)
}

func NewAttemptHandler(registry *service.Registry, getJWTSecret func() ([]byte, error), logger logger.Logger) *AttemptHandler {
	return &AttemptHandler{
		registry:     registry,
		getJWTSecret: getJWTSecret,
		logger:       logger,
	}
}

// RegisterRoutes registers the delivery attempt endpoints
func (h *AttemptHandler) RegisterRoutes(mux *http.ServeMux) {
	authMiddleware := middleware.NewAuthMiddleware(h.getJWTSecret)
	requireAuth := authMiddleware.RequireAuth()

	mux.Handle("/api/attempts.list", requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("/api/attempts.get", requireAuth(http.HandlerFunc(h.handleGet)))
}

// attemptView renders an attempt with its payload inlined as JSON instead
// of base64 bytes. When the caller asked for a payload path, the extracted
// field rides along.
type attemptView struct {
	*domain.DeliveryAttempt
	Payload      json.RawMessage `json:"payload,omitempty"`
	PayloadField interface{}     `json:"payload_field,omitempty"`
}

func newAttemptView(attempt *domain.DeliveryAttempt, payloadPath string) attemptView {
	view := attemptView{
		DeliveryAttempt: attempt,
		Payload:         json.RawMessage(attempt.Payload),
	}
	if payloadPath != "" {
		if result := gjson.GetBytes(attempt.Payload, payloadPath); result.Exists() {
			view.PayloadField = result.Value()
		}
	}
	return view
}

// handleList handles GET /api/attempts.list
func (h *AttemptHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sitePath := r.URL.Query().Get("site_path")
	subscriptionID := r.URL.Query().Get("subscription_id")
	if subscriptionID == "" {
		WriteJSONError(w, "subscription_id is required", http.StatusBadRequest)
		return
	}

	status := r.URL.Query().Get("status")
	switch domain.AttemptStatus(status) {
	case "", domain.AttemptStatusPending, domain.AttemptStatusSuccessful, domain.AttemptStatusFailed:
	default:
		WriteJSONError(w, "status must be one of pending, successful, failed", http.StatusBadRequest)
		return
	}

	payloadPath := r.URL.Query().Get("payload_path")

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset > 0 {
			offset = parsedOffset
		}
	}

	manager, err := h.registry.ManagerFor(sitePath)
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	attempts, err := manager.Attempts().ListBySubscription(r.Context(), manager.SitePath(), subscriptionID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Delivery attempt not found", "Failed to list delivery attempts")
		return
	}

	views := make([]attemptView, 0, len(attempts))
	for _, attempt := range attempts {
		if status != "" && attempt.Status != domain.AttemptStatus(status) {
			continue
		}
		views = append(views, newAttemptView(attempt, payloadPath))
	}

	total := len(views)
	if offset > len(views) {
		offset = len(views)
	}
	views = views[offset:]
	if limit < len(views) {
		views = views[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"attempts": views,
		"count":    total,
	})
}

// handleGet handles GET /api/attempts.get
func (h *AttemptHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sitePath := r.URL.Query().Get("site_path")
	subscriptionID := r.URL.Query().Get("subscription_id")
	id := r.URL.Query().Get("id")
	if subscriptionID == "" || id == "" {
		WriteJSONError(w, "subscription_id and id are required", http.StatusBadRequest)
		return
	}

	manager, err := h.registry.ManagerFor(sitePath)
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	attempt, err := manager.Attempts().GetByID(r.Context(), manager.SitePath(), subscriptionID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Delivery attempt not found", "Failed to get delivery attempt")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"attempt": newAttemptView(attempt, r.URL.Query().Get("payload_path")),
	})
}
