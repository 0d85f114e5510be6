package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stripesync/binder"
	"github.com/dmitrymomot/stripesync/handler"
	"github.com/dmitrymomot/stripesync/pkg/validator"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes value as body", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		err := handler.JSON(map[string]string{"url": "https://checkout.example.com"}).Render(w, r)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"url": "https://checkout.example.com"}`, w.Body.String())
	})

	t.Run("nil becomes empty object", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		require.NoError(t, handler.JSON(nil).Render(w, r))
		assert.JSONEq(t, `{}`, w.Body.String())
	})

	t.Run("custom status", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)

		require.NoError(t, handler.JSON(map[string]int{"n": 1}, handler.WithJSONStatus(http.StatusCreated)).Render(w, r))
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "http error",
			err:        handler.NewHTTPError(http.StatusBadRequest, "Invalid Plan type."),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid Plan type.",
		},
		{
			name:       "wrapped http error",
			err:        fmt.Errorf("checkout: %w", handler.ErrUnauthorized),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Unauthorized",
		},
		{
			name:       "invalid json",
			err:        fmt.Errorf("%w: unexpected EOF", binder.ErrInvalidJSON),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request",
		},
		{
			name:       "wrong media type",
			err:        binder.ErrUnsupportedMediaType,
			wantStatus: http.StatusUnsupportedMediaType,
			wantError:  "Unsupported media type",
		},
		{
			name:       "internal error is hidden",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", nil)

			require.NoError(t, handler.JSONError(tt.err).Render(w, r))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body handler.ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body.Error)
			assert.Empty(t, body.Details)
		})
	}

	t.Run("validation errors carry details", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", nil)

		err := validator.Apply(
			validator.Required("email", ""),
			validator.Required("userId", "u1"),
		)
		require.NoError(t, handler.JSONError(err).Render(w, r))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body handler.ErrorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Validation failed", body.Error)
		assert.Contains(t, body.Details, "email")
		assert.NotContains(t, body.Details, "userId")
	})
}
