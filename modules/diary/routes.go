package diary

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/everly-app/everly/internal/api"
	"github.com/everly-app/everly/modules/auth"
)

type createDiaryRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description"`
	CoverImage  string `json:"coverImage" validate:"omitempty,max=2048"`
}

type createEntryRequest struct {
	Title    string   `json:"title" validate:"required,min=1,max=200"`
	Content  string   `json:"content" validate:"required"`
	Location string   `json:"location" validate:"omitempty,max=200"`
	Tags     []string `json:"tags" validate:"omitempty,dive,max=50"`
}

type searchRequest struct {
	Query string `json:"query" validate:"required,min=1"`
	Limit int    `json:"limit"`
}

func (m *Module) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAuth(m.validator))

	r.Get("/", m.handleListDiaries)
	r.Post("/", m.handleCreateDiary)
	r.Post("/search", m.handleSearch)
	r.Route("/{diaryID}", func(r chi.Router) {
		r.Get("/", m.handleGetDiary)
		r.Put("/", m.handleUpdateDiary)
		r.Delete("/", m.handleDeleteDiary)
		r.Get("/entries", m.handleListEntries)
		r.Post("/entries", m.handleCreateEntry)
	})
	return r
}

func (m *Module) handleListDiaries(w http.ResponseWriter, r *http.Request) {
	diaries, err := m.svc.ListDiaries(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		m.log.Error("list diaries failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to list diaries")
		return
	}
	api.JSON(w, http.StatusOK, diaries)
}

func (m *Module) handleCreateDiary(w http.ResponseWriter, r *http.Request) {
	var req createDiaryRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := m.svc.CreateDiary(r.Context(), auth.UserIDFromContext(r.Context()),
		req.Title, req.Description, req.CoverImage)
	if err != nil {
		m.log.Error("create diary failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to create diary")
		return
	}
	api.JSON(w, http.StatusCreated, d)
}

func (m *Module) handleGetDiary(w http.ResponseWriter, r *http.Request) {
	d, err := m.svc.GetDiary(r.Context(), chi.URLParam(r, "diaryID"), auth.UserIDFromContext(r.Context()))
	if errors.Is(err, ErrDiaryNotFound) {
		api.Error(w, http.StatusNotFound, "diary not found")
		return
	}
	if err != nil {
		m.log.Error("get diary failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load diary")
		return
	}
	api.JSON(w, http.StatusOK, d)
}

func (m *Module) handleUpdateDiary(w http.ResponseWriter, r *http.Request) {
	var upd DiaryUpdate
	if err := api.Decode(r, &upd); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := m.svc.UpdateDiary(r.Context(), chi.URLParam(r, "diaryID"),
		auth.UserIDFromContext(r.Context()), upd)
	if errors.Is(err, ErrDiaryNotFound) {
		api.Error(w, http.StatusNotFound, "diary not found")
		return
	}
	if err != nil {
		m.log.Error("update diary failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to update diary")
		return
	}
	api.JSON(w, http.StatusOK, d)
}

func (m *Module) handleDeleteDiary(w http.ResponseWriter, r *http.Request) {
	err := m.svc.DeleteDiary(r.Context(), chi.URLParam(r, "diaryID"), auth.UserIDFromContext(r.Context()))
	if errors.Is(err, ErrDiaryNotFound) {
		api.Error(w, http.StatusNotFound, "diary not found")
		return
	}
	if err != nil {
		m.log.Error("delete diary failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to delete diary")
		return
	}
	api.Message(w, http.StatusOK, "diary deleted")
}

func (m *Module) handleListEntries(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	entries, err := m.svc.ListEntries(r.Context(), chi.URLParam(r, "diaryID"),
		auth.UserIDFromContext(r.Context()), m.svc.ClampPage(page, size))
	if errors.Is(err, ErrDiaryNotFound) {
		api.Error(w, http.StatusNotFound, "diary not found")
		return
	}
	if err != nil {
		m.log.Error("list entries failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to list entries")
		return
	}
	api.JSON(w, http.StatusOK, entries)
}

func (m *Module) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := m.svc.CreateEntry(r.Context(), chi.URLParam(r, "diaryID"),
		auth.UserIDFromContext(r.Context()), req.Title, req.Content, req.Location, req.Tags)
	if errors.Is(err, ErrDiaryNotFound) {
		api.Error(w, http.StatusNotFound, "diary not found")
		return
	}
	if err != nil {
		m.log.Error("create entry failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to create entry")
		return
	}
	api.JSON(w, http.StatusCreated, e)
}

func (m *Module) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := m.svc.SearchEntries(r.Context(), auth.UserIDFromContext(r.Context()),
		req.Query, req.Limit)
	if err != nil {
		m.log.Error("search entries failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "search failed")
		return
	}
	api.JSON(w, http.StatusOK, entries)
}
