package directory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/turnos/pkg/logging"
)

const maxTableBytes = 64 << 10

// Writer is implemented by sources whose table can be replaced at runtime.
type Writer interface {
	Set(ctx context.Context, dir *Directory) error
	Reset(ctx context.Context) error
}

// Handler serves the directory as JSON for selector population.
type Handler struct {
	source Source
	logger *logging.Logger
}

// NewHandler creates a directory handler.
func NewHandler(source Source, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{source: source, logger: logger}
}

// Writable returns the source as a Writer when it supports replacement.
func (h *Handler) Writable() (Writer, bool) {
	w, ok := h.source.(Writer)
	return w, ok
}

// ListEspecialidades handles GET /api/especialidades
func (h *Handler) ListEspecialidades(w http.ResponseWriter, r *http.Request) {
	dir, err := h.source.Directory(r.Context())
	if err != nil {
		h.logger.Error("failed to load directory", "error", err)
		writeError(w, http.StatusServiceUnavailable, "directory unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"especialidades": dir.Especialidades()})
}

// ListMedicos handles GET /api/especialidades/{especialidad}/medicos
func (h *Handler) ListMedicos(w http.ResponseWriter, r *http.Request) {
	especialidad, err := url.PathUnescape(chi.URLParam(r, "especialidad"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid especialidad")
		return
	}
	dir, err := h.source.Directory(r.Context())
	if err != nil {
		h.logger.Error("failed to load directory", "error", err)
		writeError(w, http.StatusServiceUnavailable, "directory unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"especialidad": especialidad,
		"medicos":      dir.Medicos(especialidad),
	})
}

// GetTable handles GET /api/directorio
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	dir, err := h.source.Directory(r.Context())
	if err != nil {
		h.logger.Error("failed to load directory", "error", err)
		writeError(w, http.StatusServiceUnavailable, "directory unavailable")
		return
	}
	writeJSON(w, http.StatusOK, dir)
}

// ReplaceTable handles PUT /api/directorio
func (h *Handler) ReplaceTable(w http.ResponseWriter, r *http.Request) {
	writer, ok := h.Writable()
	if !ok {
		writeError(w, http.StatusNotImplemented, "directory is read-only")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTableBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if len(body) > maxTableBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "table too large")
		return
	}
	dir, err := Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(dir.Especialidades()) == 0 {
		writeError(w, http.StatusBadRequest, "table must list at least one especialidad")
		return
	}
	if err := writer.Set(r.Context(), dir); err != nil {
		h.logger.Error("failed to store directory override", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store directory")
		return
	}
	h.logger.Info("directory override stored", "especialidades", len(dir.Especialidades()))
	writeJSON(w, http.StatusOK, dir)
}

// ResetTable handles DELETE /api/directorio
func (h *Handler) ResetTable(w http.ResponseWriter, r *http.Request) {
	writer, ok := h.Writable()
	if !ok {
		writeError(w, http.StatusNotImplemented, "directory is read-only")
		return
	}
	if err := writer.Reset(r.Context()); err != nil {
		h.logger.Error("failed to reset directory override", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset directory")
		return
	}
	h.logger.Info("directory override removed")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
