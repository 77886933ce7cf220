package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/everly-app/everly/internal/api"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=120"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type authResponse struct {
	User   *User      `json:"user,omitempty"`
	Tokens *TokenPair `json:"tokens"`
}

func (m *Module) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", m.handleRegister)
	r.Post("/login", m.handleLogin)
	r.Post("/refresh", m.handleRefresh)
	r.Post("/logout", m.handleLogout)
	r.With(RequireAuth(m.svc)).Get("/me", m.handleMe)
	return r
}

func (m *Module) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, tokens, err := m.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	switch {
	case errors.Is(err, ErrWeakPassword):
		api.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrEmailTaken):
		api.Error(w, http.StatusConflict, "email already registered")
	case err != nil:
		m.log.Error("registration failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "registration failed")
	default:
		api.JSON(w, http.StatusCreated, authResponse{User: user, Tokens: tokens})
	}
}

func (m *Module) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, tokens, err := m.svc.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		api.Error(w, http.StatusUnauthorized, "invalid email or password")
	case err != nil:
		m.log.Error("login failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "login failed")
	default:
		api.JSON(w, http.StatusOK, authResponse{User: user, Tokens: tokens})
	}
}

func (m *Module) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := m.svc.Refresh(r.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrWrongTokenType),
		errors.Is(err, ErrSessionNotFound):
		api.Error(w, http.StatusUnauthorized, "invalid refresh token")
	case err != nil:
		m.log.Error("token refresh failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "token refresh failed")
	default:
		api.JSON(w, http.StatusOK, authResponse{Tokens: tokens})
	}
}

func (m *Module) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := m.svc.Logout(r.Context(), req.RefreshToken); err != nil &&
		!errors.Is(err, ErrSessionNotFound) {
		api.Error(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	api.Message(w, http.StatusOK, "logged out")
}

func (m *Module) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	user, err := m.svc.GetUser(r.Context(), claims)
	if errors.Is(err, ErrUserNotFound) {
		api.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		m.log.Error("fetch current user failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	api.JSON(w, http.StatusOK, user)
}
