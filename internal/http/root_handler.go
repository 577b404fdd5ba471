package http

import (
	"net/http"

	"github.com/hookline/hookline/pkg/logger"
)

// RootHandler answers liveness checks and identifies the service. It is
// the only unauthenticated surface.
type RootHandler struct {
	logger  logger.Logger
	version string
}

func NewRootHandler(version string, logger logger.Logger) *RootHandler {
	return &RootHandler{
		logger:  logger,
		version: version,
	}
}

func (h *RootHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	// catch all route
	mux.HandleFunc("/", h.handleRoot)
}

// handleHealth handles GET /health for load balancer probes. No auth: the
// prober carries no token.
func (h *RootHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

func (h *RootHandler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteJSONError(w, "Not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "hookline",
		"status":  "api running",
		"version": h.version,
	})
}
