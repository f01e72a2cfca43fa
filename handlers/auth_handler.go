package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/PelvK/planillas-buena-fe/middleware"
	"github.com/PelvK/planillas-buena-fe/services"
)

type AuthHandler struct {
	authService services.AuthService
	auth        *middleware.Authenticator
}

func NewAuthHandler(authService services.AuthService, auth *middleware.Authenticator) *AuthHandler {
	return &AuthHandler{authService: authService, auth: auth}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, expiresAt, err := h.auth.Issue(r.Context(), profile.ID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"user":       profile,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, expiresAt, err := h.auth.Issue(r.Context(), profile.ID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"user":       profile,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		unauthorizedResponse(w, r, "missing bearer token")
		return
	}

	if err := h.auth.Revoke(r.Context(), parts[1]); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	profile, err := h.authService.GetProfile(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
