package http

import (
	"encoding/json"
	"net/http"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/internal/http/middleware"
	"github.com/hookline/hookline/internal/service"
	"github.com/hookline/hookline/pkg/logger"
)

// SubscriptionHandler exposes subscription management over the admin API.
// The empty site path addresses the global scope.
type SubscriptionHandler struct {
	registry     *service.Registry
	logger       logger.Logger
	getJWTSecret func() ([]byte, error)
}

func NewSubscriptionHandler(registry *service.Registry, getJWTSecret func() ([]byte, error), logger logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		registry:     registry,
		getJWTSecret: getJWTSecret,
		logger:       logger,
	}
}

// RegisterRoutes registers the subscription management endpoints
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux) {
	authMiddleware := middleware.NewAuthMiddleware(h.getJWTSecret)
	requireAuth := authMiddleware.RequireAuth()

	mux.Handle("/api/subscriptions.create", requireAuth(http.HandlerFunc(h.handleCreate)))
	mux.Handle("/api/subscriptions.list", requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("/api/subscriptions.get", requireAuth(http.HandlerFunc(h.handleGet)))
	mux.Handle("/api/subscriptions.activate", requireAuth(http.HandlerFunc(h.handleActivate)))
	mux.Handle("/api/subscriptions.deactivate", requireAuth(http.HandlerFunc(h.handleDeactivate)))
	mux.Handle("/api/subscriptions.delete", requireAuth(http.HandlerFunc(h.handleDelete)))
	mux.Handle("/api/subscriptions.removeForOwner", requireAuth(http.HandlerFunc(h.handleRemoveForOwner)))
}

// handleCreate handles POST /api/subscriptions.create
func (h *SubscriptionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SitePath                 string           `json:"site_path"`
		For                      domain.Tag       `json:"for"`
		When                     domain.EventKind `json:"when"`
		To                       string           `json:"to"`
		OwnerID                  string           `json:"owner_id"`
		PermissionID             string           `json:"permission_id"`
		DialectID                string           `json:"dialect_id"`
		AttemptLimit             int              `json:"attempt_limit"`
		PreconditionFailureLimit int              `json:"precondition_failure_limit"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.To == "" {
		WriteJSONError(w, "to is required", http.StatusBadRequest)
		return
	}

	manager, err := h.registry.ManagerFor(req.SitePath)
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	sub := &domain.Subscription{
		For:                      req.For,
		When:                     req.When,
		To:                       req.To,
		OwnerID:                  req.OwnerID,
		PermissionID:             req.PermissionID,
		DialectID:                req.DialectID,
		AttemptLimit:             req.AttemptLimit,
		PreconditionFailureLimit: req.PreconditionFailureLimit,
	}

	if err := manager.CreateSubscription(r.Context(), sub); err != nil {
		writeServiceError(w, h.logger, err, "Subscription not found", "Failed to create subscription")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"subscription": sub,
	})
}

// handleList handles GET /api/subscriptions.list
func (h *SubscriptionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sitePath := r.URL.Query().Get("site_path")

	manager, err := h.registry.ManagerFor(sitePath)
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	subs, err := manager.ListSubscriptions(r.Context())
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list subscriptions")
		WriteJSONError(w, "Failed to list subscriptions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subscriptions": subs,
		"count":         len(subs),
	})
}

// handleGet handles GET /api/subscriptions.get
func (h *SubscriptionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sitePath := r.URL.Query().Get("site_path")
	id := r.URL.Query().Get("id")
	if id == "" {
		WriteJSONError(w, "id is required", http.StatusBadRequest)
		return
	}

	manager, err := h.registry.ManagerFor(sitePath)
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	sub, err := manager.GetSubscription(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Subscription not found", "Failed to get subscription")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subscription": sub,
	})
}

// handleActivate handles POST /api/subscriptions.activate
func (h *SubscriptionHandler) handleActivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SitePath string `json:"site_path"`
		ID       string `json:"id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		WriteJSONError(w, "id is required", http.StatusBadRequest)
		return
	}

	manager, err := h.registry.ManagerFor(req.SitePath)
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	if err := manager.ActivateSubscription(r.Context(), req.ID); err != nil {
		writeServiceError(w, h.logger, err, "Subscription not found", "Failed to activate subscription")
		return
	}

	sub, err := manager.GetSubscription(r.Context(), req.ID)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to reload subscription")
		WriteJSONError(w, "Failed to activate subscription", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subscription": sub,
	})
}

// handleDeactivate handles POST /api/subscriptions.deactivate
func (h *SubscriptionHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SitePath      string `json:"site_path"`
		ID            string `json:"id"`
		StatusMessage string `json:"status_message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		WriteJSONError(w, "id is required", http.StatusBadRequest)
		return
	}

	manager, err := h.registry.ManagerFor(req.SitePath)
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	if err := manager.DeactivateSubscription(r.Context(), req.ID, req.StatusMessage); err != nil {
		writeServiceError(w, h.logger, err, "Subscription not found", "Failed to deactivate subscription")
		return
	}

	sub, err := manager.GetSubscription(r.Context(), req.ID)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to reload subscription")
		WriteJSONError(w, "Failed to deactivate subscription", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subscription": sub,
	})
}

// handleDelete handles POST /api/subscriptions.delete
func (h *SubscriptionHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SitePath string `json:"site_path"`
		ID       string `json:"id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		WriteJSONError(w, "id is required", http.StatusBadRequest)
		return
	}

	manager, err := h.registry.ManagerFor(req.SitePath)
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	if err := manager.RemoveSubscription(r.Context(), req.ID); err != nil {
		writeServiceError(w, h.logger, err, "Subscription not found", "Failed to delete subscription")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// handleRemoveForOwner handles POST /api/subscriptions.removeForOwner. It
// deletes every subscription a principal owns, in one site scope or in
// every registered scope when no site path is given.
func (h *SubscriptionHandler) handleRemoveForOwner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SitePath *string `json:"site_path"`
		OwnerID  string  `json:"owner_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" {
		WriteJSONError(w, "owner_id is required", http.StatusBadRequest)
		return
	}

	var managers []*service.SubscriptionManager
	if req.SitePath != nil {
		manager, err := h.registry.ManagerFor(*req.SitePath)
		if err != nil {
			WriteJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		managers = []*service.SubscriptionManager{manager}
	} else {
		managers = h.registry.Managers()
	}

	removed := 0
	for _, manager := range managers {
		n, err := manager.RemoveSubscriptionsForPrincipal(r.Context(), req.OwnerID)
		if err != nil {
			h.logger.WithField("error", err.Error()).
				WithField("site_path", manager.SitePath()).
				Error("Failed to remove subscriptions for principal")
			WriteJSONError(w, "Failed to remove subscriptions for principal", http.StatusInternalServerError)
			return
		}
		removed += n
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
	})
}
