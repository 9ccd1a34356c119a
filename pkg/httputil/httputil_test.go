package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alleny0o/sr-laserworks-ecommerce/pkg/errors"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/logger"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/validator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *ErrorResponse {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, Response{Data: map[string]int{"revision": 2}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"revision":2}}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", apperrors.NotFound("product", "p1"), http.StatusNotFound, "NOT_FOUND"},
		{"superseded check", apperrors.Conflict("SUPERSEDED", "newer check started"), http.StatusConflict, "SUPERSEDED"},
		{"unavailable", apperrors.Unavailable("sku lookup unavailable", errors.New("dial")), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"sentinel not found", fmt.Errorf("get: %w", apperrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"sentinel exists", apperrors.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"sentinel conflict", fmt.Errorf("patch: %w", apperrors.ErrConflict), http.StatusConflict, "CONFLICT"},
		{"sentinel invalid", apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"sentinel unavailable", apperrors.ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)

			WriteError(rec, req, tt.err, discardLogger())

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestWriteError_UnknownErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, errors.New("pq: relation products does not exist"), discardLogger())

	assert.Equal(t, "an internal error occurred", decodeError(t, rec).Message)
}

func TestWriteError_ValidationFailedIncludesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/options", nil)

	WriteError(rec, req, apperrors.ValidationFailed(map[string]string{
		"options": "Option Names must be unique. Duplicates: Color.",
	}), discardLogger())

	errResp := decodeError(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
	assert.Equal(t, "Option Names must be unique. Duplicates: Color.", errResp.Fields["options"])
}

func TestWriteError_RequestID(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-123")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

	WriteError(rec, req, apperrors.ErrNotFound, discardLogger())
	assert.Equal(t, "corr-123", decodeError(t, rec).RequestID)

	rec = httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperrors.ErrNotFound, discardLogger())
	assert.NotContains(t, rec.Body.String(), "request_id")
}

func TestWriteValidationError(t *testing.T) {
	type body struct {
		Name string `json:"name" validate:"required"`
	}
	err := validator.Validate(body{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, err)

	errResp := decodeError(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
	assert.Contains(t, errResp.Fields, "name")

	rec = httptest.NewRecorder()
	WriteValidationError(rec, errors.New("invalid JSON body"))
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
}

func TestNewPaginatedResponse(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		page      int
		wantPages int
		wantNext  bool
	}{
		{"first of three", 25, 1, 3, true},
		{"last page", 21, 3, 3, false},
		{"exact division", 30, 2, 3, true},
		{"empty", 0, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewPaginatedResponse([]string{"a"}, tt.total, tt.page, 10)
			assert.Equal(t, tt.wantPages, resp.TotalPages)
			assert.Equal(t, tt.wantNext, resp.HasNext)
		})
	}

	empty := NewPaginatedResponse[string](nil, 0, 1, 20)
	assert.NotNil(t, empty.Data)
}

func TestParseDocumentID(t *testing.T) {
	rec := httptest.NewRecorder()
	id, ok := ParseDocumentID(rec, "550e8400-e29b-41d4-a716-446655440000")
	assert.True(t, ok)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id)

	id, ok = ParseDocumentID(rec, "drafts.550E8400-E29B-41D4-A716-446655440000")
	assert.True(t, ok)
	assert.Equal(t, "drafts.550e8400-e29b-41d4-a716-446655440000", id)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseDocumentID_Invalid(t *testing.T) {
	for _, param := range []string{"", "not-a-uuid", "drafts.", "drafts.abc123", "published.550e8400-e29b-41d4-a716-446655440000"} {
		t.Run(param, func(t *testing.T) {
			rec := httptest.NewRecorder()
			id, ok := ParseDocumentID(rec, param)

			assert.False(t, ok)
			assert.Empty(t, id)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_PARAMETER", decodeError(t, rec).Code)
		})
	}
}
