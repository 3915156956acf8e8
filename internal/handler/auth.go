package handler

import (
	"net/http"
	"strings"

	"eclipse/internal/httputil"
	"eclipse/internal/model"
	"eclipse/internal/transport/http/middleware"
)

// AuthHandler binds sign-in, sign-up and sign-out to the profile store.
type AuthHandler struct {
	profiles Profiles
}

func NewAuthHandler(profiles Profiles) *AuthHandler {
	return &AuthHandler{profiles: profiles}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Handle   string `json:"handle"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.profiles.Login(r.Context(), req.Email, req.Password); err != nil {
		writeServiceError(w, "Login", err, "Failed to login")
		return
	}
	h.writeCurrent(w, http.StatusOK)
}

// Register handles POST /auth/register
// Name and handle become the display metadata of the new profile.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httputil.WriteBadRequest(w, "Name is required")
		return
	}

	if err := h.profiles.Register(r.Context(), req.Email, req.Name, req.Handle, req.Password); err != nil {
		writeServiceError(w, "Register", err, "Failed to register")
		return
	}
	h.writeCurrent(w, http.StatusCreated)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.Logout(r.Context()); err != nil {
		writeServiceError(w, "Logout", err, "Failed to logout")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, message("Logged out successfully"))
}

// Me handles GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, ok := middleware.GetProfileFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorizedWithCode(w, model.CodeNotSignedIn, "Sign in required")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// writeCurrent answers with the profile loaded by the sign-in event. The
// session stands even when the profile could not be loaded.
func (h *AuthHandler) writeCurrent(w http.ResponseWriter, status int) {
	if profile := h.profiles.Current(); profile != nil {
		httputil.WriteJSON(w, status, profile)
		return
	}
	httputil.WriteJSON(w, status, message("Signed in, profile unavailable"))
}
