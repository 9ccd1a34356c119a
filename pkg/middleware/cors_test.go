package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const editorOrigin = "https://studio.srlaserworks.com"

func corsResponse(cfg CORSConfig, method, origin string) *httptest.ResponseRecorder {
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, "/api/v1/products/p1/variants", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS_AllowOrigin(t *testing.T) {
	prod := CORSConfig{AllowedOrigins: []string{editorOrigin, "https://admin.srlaserworks.com"}, Environment: "production"}

	tests := []struct {
		name      string
		cfg       CORSConfig
		origin    string
		wantAllow string
		wantVary  bool
	}{
		{"development allows any", CORSConfig{Environment: "development"}, "http://localhost:3333", "*", false},
		{"development without origin", CORSConfig{Environment: "development"}, "", "*", false},
		{"listed origin", prod, editorOrigin, editorOrigin, true},
		{"second listed origin", prod, "https://admin.srlaserworks.com", "https://admin.srlaserworks.com", true},
		{"unlisted origin", prod, "https://evil.example", "", false},
		{"no origin in production", prod, "", "", false},
		{"explicit wildcard", CORSConfig{AllowedOrigins: []string{"*"}, Environment: "production"}, "https://any.example", "*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := corsResponse(tt.cfg, http.MethodGet, tt.origin)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantVary {
				assert.Equal(t, "Origin", rec.Header().Get("Vary"))
			} else {
				assert.Empty(t, rec.Header().Get("Vary"))
			}
		})
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	called := false
	h := CORS(DefaultCORSConfig())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products/p1/sku-checks", nil)
	req.Header.Set("Origin", editorOrigin)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
}

func TestCORS_Defaults(t *testing.T) {
	rec := corsResponse(CORSConfig{Environment: "development"}, http.MethodGet, editorOrigin)
	h := rec.Header()

	assert.Equal(t, "GET, POST, PUT, PATCH, DELETE, OPTIONS", h.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Accept, Content-Type, If-Match, X-Correlation-ID", h.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "3600", h.Get("Access-Control-Max-Age"))
	assert.Empty(t, h.Get("Access-Control-Expose-Headers"))
	assert.Empty(t, h.Get("Access-Control-Allow-Credentials"))
}

func TestCORS_CustomHeaders(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins:   []string{editorOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPatch},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"ETag"},
		MaxAge:           600,
		AllowCredentials: true,
	}
	h := corsResponse(cfg, http.MethodGet, editorOrigin).Header()

	assert.Equal(t, "GET, PATCH", h.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", h.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "ETag", h.Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "600", h.Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.AllowedHeaders, "If-Match")
	assert.Contains(t, cfg.ExposedHeaders, "ETag")
	assert.Equal(t, "development", cfg.Environment)
}
