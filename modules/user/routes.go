package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/everly-app/everly/internal/api"
	"github.com/everly-app/everly/modules/auth"
)

type pictureRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

func (m *Module) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAuth(m.validator))

	r.Get("/me", m.handleGetProfile)
	r.Put("/me", m.handleUpdateProfile)
	r.Put("/me/profile-picture", m.handleSetPicture)
	r.Get("/me/preferences", m.handleGetPreferences)
	r.Put("/me/preferences", m.handleUpdatePreferences)
	return r
}

func (m *Module) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := m.svc.GetProfile(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		m.log.Error("load profile failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	api.JSON(w, http.StatusOK, p)
}

func (m *Module) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd ProfileUpdate
	if err := api.Decode(r, &upd); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := m.svc.UpdateProfile(r.Context(), auth.UserIDFromContext(r.Context()), upd)
	switch {
	case errors.Is(err, ErrBioTooLong):
		api.Error(w, http.StatusBadRequest, err.Error())
	case err != nil:
		m.log.Error("update profile failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to update profile")
	default:
		api.JSON(w, http.StatusOK, p)
	}
}

func (m *Module) handleSetPicture(w http.ResponseWriter, r *http.Request) {
	var req pictureRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := m.svc.SetProfilePicture(r.Context(), auth.UserIDFromContext(r.Context()), req.URL)
	if err != nil {
		m.log.Error("set profile picture failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to update profile picture")
		return
	}
	api.JSON(w, http.StatusOK, p)
}

func (m *Module) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := m.svc.GetPreferences(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		m.log.Error("load preferences failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	api.JSON(w, http.StatusOK, prefs)
}

func (m *Module) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	// preferences are free-form: plain JSON decode, no struct validation
	var prefs map[string]any
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	merged, err := m.svc.UpdatePreferences(r.Context(), auth.UserIDFromContext(r.Context()), prefs)
	if err != nil {
		m.log.Error("update preferences failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to update preferences")
		return
	}
	api.JSON(w, http.StatusOK, merged)
}
