package handler

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures JSON response
type JSONOption func(*jsonResponse)

// WithJSONStatus sets custom HTTP status code
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// JSON writes v as the response body with status 200.
// A nil value is written as an empty object.
func JSON(v any, opts ...JSONOption) Response {
	if v == nil {
		v = struct{}{}
	}
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError writes err as {"error": message}. The status and message are taken
// from the error classification; unrecognised errors become a generic 500 so
// internal details never reach the caller.
func JSONError(err error, opts ...JSONOption) Response {
	info := ClassifyError(err)
	r := &jsonResponse{
		status: info.StatusCode,
		body:   ErrorBody{Error: info.Message, Details: info.Details},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
