package http

import (
	"net/http"

	"github.com/hookline/hookline/internal/http/middleware"
	"github.com/hookline/hookline/internal/service"
	"github.com/hookline/hookline/pkg/logger"
)

// DeliveryHandler exposes the delivery engine to operators.
type DeliveryHandler struct {
	engine       *service.DeliveryEngine
	logger       logger.Logger
	getJWTSecret func() ([]byte, error)
}

func NewDeliveryHandler(engine *service.DeliveryEngine, getJWTSecret func() ([]byte, error), logger logger.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		engine:       engine,
		getJWTSecret: getJWTSecret,
		logger:       logger,
	}
}

// RegisterRoutes registers the delivery engine endpoints
func (h *DeliveryHandler) RegisterRoutes(mux *http.ServeMux) {
	authMiddleware := middleware.NewAuthMiddleware(h.getJWTSecret)
	requireAuth := authMiddleware.RequireAuth()

	mux.Handle("/api/delivery.status", requireAuth(http.HandlerFunc(h.handleStatus)))
}

// handleStatus handles GET /api/delivery.status
func (h *DeliveryHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": h.engine.Status(),
	})
}
