package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"guardx/internal/api/middleware"
	"guardx/internal/app/service"
	"guardx/internal/common"
	"guardx/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

const msgBadCredentials = "UNAUTHORIZED - INVALID MILITARY CREDENTIALS"

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterPublicRoutes mounts routes that need no token.
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/login", h.login)
}

// RegisterRoutes mounts routes behind the Authenticator.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

type meResponse struct {
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	FullName     string          `json:"full_name"`
	Role         string          `json:"role"`
	Clearance    model.Clearance `json:"clearance_level"`
	Unit         string          `json:"unit"`
	SystemAccess string          `json:"system_access"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			common.RespondWithError(w, http.StatusUnauthorized, msgBadCredentials)
			return
		}
		respondServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, meResponse{
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         user.Role,
		Clearance:    user.Clearance,
		Unit:         user.Unit,
		SystemAccess: "AUTHORIZED",
	})
}
