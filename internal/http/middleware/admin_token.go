package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminTokenHeader carries the operator token for directory writes.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdminToken guards operator endpoints. An empty expected token
// rejects every request.
func RequireAdminToken(expected string) func(http.Handler) http.Handler {
	want := []byte(strings.TrimSpace(expected))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(strings.TrimSpace(r.Header.Get(AdminTokenHeader)))
			if len(want) == 0 || len(got) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid admin token"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
