package directory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/turnos/pkg/logging"
)

func newTestRouter(source Source) http.Handler {
	h := NewHandler(source, logging.Default())
	r := chi.NewRouter()
	r.Get("/api/especialidades", h.ListEspecialidades)
	r.Get("/api/especialidades/{especialidad}/medicos", h.ListMedicos)
	r.Get("/api/directorio", h.GetTable)
	r.Put("/api/directorio", h.ReplaceTable)
	r.Delete("/api/directorio", h.ResetTable)
	return r
}

func TestHandler_ListEspecialidades(t *testing.T) {
	router := newTestRouter(NewStatic(MustBuiltin("general")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/especialidades", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Especialidades []string `json:"especialidades"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, MustBuiltin("general").Especialidades(), body.Especialidades)
}

func TestHandler_ListMedicos(t *testing.T) {
	router := newTestRouter(NewStatic(MustBuiltin("general")))

	tests := []struct {
		especialidad string
		want         []string
	}{
		{"Clínica Médica", []string{"Dr. Aguilar Marcelo", "Claudia Zamora"}},
		{"Cardiología", []string{"Dr. Eduardo Pino"}},
		{"Pediatría", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.especialidad, func(t *testing.T) {
			path := "/api/especialidades/" + url.PathEscape(tt.especialidad) + "/medicos"
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var body struct {
				Especialidad string   `json:"especialidad"`
				Medicos      []string `json:"medicos"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.especialidad, body.Especialidad)
			assert.Equal(t, tt.want, body.Medicos)
		})
	}
}

func TestHandler_ReadOnlySourceRejectsWrites(t *testing.T) {
	router := newTestRouter(NewStatic(MustBuiltin("general")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/directorio", strings.NewReader(`[]`)))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/directorio", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandler_ReplaceAndResetTable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	router := newTestRouter(NewStore(client, MustBuiltin("general"), nil))

	rec := httptest.NewRecorder()
	body := `[{"nombre":"Pediatría","medicos":["Dra. Laura Méndez"]}]`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/directorio", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/especialidades", nil))
	assert.JSONEq(t, `{"especialidades":["Pediatría"]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/directorio", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/directorio", nil))
	var entries []Especialidad
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 6)
}

func TestHandler_ReplaceTableValidation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	router := newTestRouter(NewStore(client, nil, nil))

	for _, body := range []string{`not json`, `[]`, `[{"nombre":"A","medicos":["x","x"]}]`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/directorio", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.False(t, mr.Exists(overrideKey))
}
