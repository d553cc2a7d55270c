// Package web renders the appointment form and table and turns form posts
// into manager actions.
package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/turnos/internal/directory"
	"github.com/wolfman30/turnos/internal/manager"
	"github.com/wolfman30/turnos/internal/turnos"
	"github.com/wolfman30/turnos/pkg/logging"
)

// SessionCookie names the cookie carrying the browser session id.
const SessionCookie = "turnos_session"

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the appointment page.
type Handler struct {
	sessions     *manager.Sessions
	dirs         directory.Source
	logger       *logging.Logger
	page         *template.Template
	secureCookie bool
}

// Option customises a Handler.
type Option func(*Handler)

// WithSecureCookie marks the session cookie Secure (HTTPS deployments).
func WithSecureCookie(secure bool) Option {
	return func(h *Handler) { h.secureCookie = secure }
}

// NewHandler parses the page template and creates a handler.
func NewHandler(sessions *manager.Sessions, dirs directory.Source, logger *logging.Logger, opts ...Option) (*Handler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	h := &Handler{
		sessions: sessions,
		dirs:     dirs,
		logger:   logger,
		page:     page,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes returns a chi router with the page and its form actions.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Index)
	r.Post("/turnos", h.Submit)
	r.Post("/turnos/{id}/editar", h.Edit)
	r.Post("/turnos/{id}/eliminar", h.Delete)
	r.Post("/cancelar", h.Cancel)
	r.Post("/borrador", h.UpdateDraft)
	return r
}

type pageData struct {
	Especialidades []string
	Medicos        []string
	Draft          manager.Draft
	Turnos         []turnos.Turno
	Error          string
}

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	// Failures are kept in the manager state and rendered below.
	_ = m.Load(r.Context())
	state := m.Snapshot()

	data := pageData{
		Especialidades: []string{},
		Medicos:        []string{},
		Draft:          state.Draft,
		Turnos:         state.Turnos,
		Error:          errorMessage(state.Err),
	}
	dir, err := h.dirs.Directory(r.Context())
	if err != nil {
		h.logger.Error("failed to load directory", "error", err)
		if data.Error == "" {
			data.Error = "No se pudo cargar el listado de especialidades."
		}
	} else {
		data.Especialidades = dir.Especialidades()
		data.Medicos = dir.Medicos(state.Draft.Especialidad)
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.logger.Error("failed to render page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// Submit handles POST /turnos. The form carries the edit id it was rendered
// with, so a page left open in another tab cannot submit into a different
// draft.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	f, ok := h.formFields(w, r)
	if !ok {
		return
	}
	_ = m.SubmitForm(r.Context(), f, strings.TrimSpace(r.PostFormValue("editId")))
	redirectHome(w, r)
}

// Edit handles POST /turnos/{id}/editar
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	id := chi.URLParam(r, "id")
	if !m.BeginEdit(id) {
		h.logger.Debug("edit requested for unknown turno", "id", id)
	}
	redirectHome(w, r)
}

// Delete handles POST /turnos/{id}/eliminar
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	_ = m.Delete(r.Context(), chi.URLParam(r, "id"))
	redirectHome(w, r)
}

// Cancel handles POST /cancelar
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.manager(w, r).Cancel()
	redirectHome(w, r)
}

// UpdateDraft handles POST /borrador, sent when the specialty changes.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	m := h.manager(w, r)
	f, ok := h.formFields(w, r)
	if !ok {
		return
	}
	_ = m.UpdateDraft(r.Context(), f)
	redirectHome(w, r)
}

// manager resolves the caller's session, issuing a cookie for new sessions.
func (h *Handler) manager(w http.ResponseWriter, r *http.Request) *manager.Manager {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sessionID, m, created := h.sessions.Get(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return m
}

func (h *Handler) formFields(w http.ResponseWriter, r *http.Request) (turnos.Fields, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 16<<10)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return turnos.Fields{}, false
	}
	return turnos.Fields{
		Especialidad: r.PostFormValue("especialidad"),
		Medico:       r.PostFormValue("medico"),
		Paciente:     r.PostFormValue("paciente"),
		Fecha:        r.PostFormValue("fecha"),
	}, true
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

var fieldLabels = map[string]string{
	"especialidad": "la especialidad",
	"medico":       "el médico",
	"paciente":     "el nombre y apellido",
	"fecha":        "la fecha del turno",
}

// errorMessage turns an action error into the alert shown above the form.
func errorMessage(ae *manager.ActionError) string {
	if ae == nil {
		return ""
	}
	var fe *turnos.FieldError
	switch {
	case errors.Is(ae, manager.ErrFormularioDesactualizado):
		return "El formulario estaba desactualizado porque la página se abrió en otra pestaña. Revise los datos e intente nuevamente."
	case errors.Is(ae, manager.ErrMedicoNoPermitido):
		return "El médico elegido no atiende la especialidad seleccionada."
	case errors.Is(ae, turnos.ErrInvalidFecha):
		return "La fecha del turno no es válida."
	case errors.As(ae, &fe):
		return "Complete " + fieldLabels[fe.Field] + "."
	}
	switch ae.Op {
	case manager.ActionLoad:
		return "No se pudieron cargar los turnos."
	case manager.ActionSubmit:
		return "No se pudo guardar el turno. Intente nuevamente."
	case manager.ActionDelete:
		return "No se pudo eliminar el turno."
	default:
		return "Ocurrió un error inesperado."
	}
}
