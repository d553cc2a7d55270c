package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	cases := []struct {
		name     string
		expected string
		header   string
		want     int
	}{
		{name: "matching token", expected: "s3cret", header: "s3cret", want: http.StatusNoContent},
		{name: "surrounding spaces", expected: " s3cret ", header: "s3cret ", want: http.StatusNoContent},
		{name: "wrong token", expected: "s3cret", header: "nope", want: http.StatusUnauthorized},
		{name: "missing header", expected: "s3cret", want: http.StatusUnauthorized},
		{name: "unconfigured", expected: "", header: "", want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			h := RequireAdminToken(tc.expected)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusNoContent)
			}))
			req := httptest.NewRequest(http.MethodDelete, "/api/directorio", nil)
			if tc.header != "" {
				req.Header.Set(AdminTokenHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, tc.want == http.StatusNoContent, called)
		})
	}
}
