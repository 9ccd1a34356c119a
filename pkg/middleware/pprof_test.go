package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestIPAllowlist(t *testing.T) {
	tests := []struct {
		name       string
		cidrs      []string
		remoteAddr string
		want       int
	}{
		{"inside range", []string{"10.0.0.0/8"}, "10.1.2.3:5000", http.StatusOK},
		{"outside range", []string{"10.0.0.0/8"}, "192.0.2.1:5000", http.StatusForbidden},
		{"second range", []string{"10.0.0.0/8", "192.0.2.0/24"}, "192.0.2.1:5000", http.StatusOK},
		{"ipv4 mapped ipv6", []string{"127.0.0.1/32"}, "[::ffff:127.0.0.1]:5000", http.StatusOK},
		{"bare address", []string{"127.0.0.0/8"}, "127.0.0.1", http.StatusOK},
		{"invalid cidr ignored", []string{"not-a-cidr", "127.0.0.0/8"}, "127.0.0.1:1", http.StatusOK},
		{"garbage peer", []string{"0.0.0.0/0"}, "unknown", http.StatusForbidden},
		{"no ranges", nil, "127.0.0.1:1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := IPAllowlist(tt.cidrs, quiet)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
			req.RemoteAddr = tt.remoteAddr
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), `"FORBIDDEN"`)
			}
		})
	}
}

func TestRegisterPprof(t *testing.T) {
	r := chi.NewRouter()
	RegisterPprof(r, []string{"192.0.2.0/24"}, quiet)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	disabled := chi.NewRouter()
	RegisterPprof(disabled, nil, quiet)
	rec = httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
