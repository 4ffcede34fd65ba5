package handler

import (
	"net/http"
	"strconv"

	"guardx/internal/api/middleware"
	"guardx/internal/app/service"
	"guardx/internal/common"

	"github.com/go-chi/chi/v5"
)

type SystemHandler struct {
	systemService *service.SystemService
}

func NewSystemHandler(ss *service.SystemService) *SystemHandler {
	return &SystemHandler{systemService: ss}
}

// RegisterPublicRoutes mounts health and model info.
func (h *SystemHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Get("/models", h.models)
}

// RegisterAdminRoutes expects an authenticated, admin-only router.
func (h *SystemHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/system-status", h.systemStatus)
	r.Get("/operations", h.operations)
}

func (h *SystemHandler) health(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.systemService.Health(r.Context()))
}

func (h *SystemHandler) models(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"models": h.systemService.Models(),
	})
}

func (h *SystemHandler) systemStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	status, err := h.systemService.Status(r.Context(), admin)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, status)
}

func (h *SystemHandler) operations(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	page, err := h.systemService.Operations(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, key+" must be an integer")
		return 0, false
	}
	return v, true
}
