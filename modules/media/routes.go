package media

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/everly-app/everly/internal/api"
	"github.com/everly-app/everly/modules/auth"
)

func (m *Module) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAuth(m.validator))

	r.Post("/upload", m.handleUpload)
	r.Get("/", m.handleList)
	r.Get("/files/{fileID}", m.handleServeFile)
	r.Delete("/{fileID}", m.handleDelete)
	return r
}

func (m *Module) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, m.cfg.MaxFileSize+1024*1024)
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "multipart form must carry a \"file\" part")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	saved, err := m.svc.Save(r.Context(), auth.UserIDFromContext(r.Context()),
		header.Filename, contentType, header.Size, file)
	switch {
	case errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrEmptyFile):
		api.Error(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ErrUnsupportedType):
		api.Error(w, http.StatusUnsupportedMediaType, err.Error())
	case err != nil:
		m.log.Error("upload failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "upload failed")
	default:
		api.JSON(w, http.StatusCreated, saved)
	}
}

func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	files, err := m.svc.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		m.log.Error("list media failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to list media")
		return
	}
	api.JSON(w, http.StatusOK, files)
}

func (m *Module) handleServeFile(w http.ResponseWriter, r *http.Request) {
	f, err := m.svc.Get(r.Context(), chi.URLParam(r, "fileID"), auth.UserIDFromContext(r.Context()))
	if errors.Is(err, ErrFileNotFound) {
		api.Error(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		m.log.Error("load media failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load file")
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	http.ServeFile(w, r, filepath.Join(m.cfg.UploadPath, f.Path))
}

func (m *Module) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := m.svc.Delete(r.Context(), chi.URLParam(r, "fileID"), auth.UserIDFromContext(r.Context()))
	if errors.Is(err, ErrFileNotFound) {
		api.Error(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		m.log.Error("delete media failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to delete file")
		return
	}
	api.Message(w, http.StatusOK, "file deleted")
}
