package response

import (
	"encoding/json/v2"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	JSON(w, http.StatusOK, map[string]string{"message": "test"}, logger)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	out := decode(t, w)
	assert.Equal(t, float64(1), out["v"])
	assert.Equal(t, true, out["success"])
	assert.Equal(t, map[string]any{"message": "test"}, out["data"])
	assert.NotContains(t, out, "error")
}

func TestSuccess_NilLogger(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, []string{"a"}, nil)

	out := decode(t, w)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, []any{"a"}, out["data"])
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		code   string
	}{
		{"not found", func(w http.ResponseWriter) { NotFound(w, "missing", nil) }, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "missing", nil) }, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"too many requests", func(w http.ResponseWriter) { TooManyRequests(w, "missing", nil) }, http.StatusTooManyRequests, "RATE_LIMITED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			out := decode(t, w)
			assert.Equal(t, false, out["success"])
			assert.Equal(t, "missing", out["error"])
			assert.Equal(t, tt.code, out["code"])
			assert.NotContains(t, out, "data")
		})
	}
}

func TestHandleError_DomainError(t *testing.T) {
	w := httptest.NewRecorder()

	err := domainerrors.ValidationWithDetails("name is required", map[string]string{"name": "is required"})
	HandleError(w, err, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	out := decode(t, w)
	assert.Equal(t, "VALIDATION", out["code"])
	assert.Equal(t, "name is required", out["error"])
	assert.Equal(t, map[string]any{"name": "is required"}, out["details"])
}

func TestHandleError_HidesUnknownErrors(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, errors.New("disk on fire at /var/lib/db"), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	out := decode(t, w)
	assert.Equal(t, "INTERNAL", out["code"])
	assert.Equal(t, "internal server error", out["error"])
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestStatusCodeBoundary(t *testing.T) {
	tests := []struct {
		status          int
		expectedSuccess bool
	}{
		{200, true},
		{201, true},
		{399, true},
		{400, false},
		{500, false},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		JSON(w, tt.status, nil, nil)

		out := decode(t, w)
		assert.Equal(t, tt.expectedSuccess, out["success"], "status %d", tt.status)
	}
}
