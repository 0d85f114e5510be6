package binder

import (
	"net/http"
)

// Query creates a query parameter binder.
//
// Fields are matched by the `query:"name"` tag, or by the lowercased field name
// when untagged; `query:"-"` skips the field. Strings, integers, floats, bools,
// pointers and slices of those are supported.
//
//	type CheckRequest struct {
//		UserID string `query:"userId"`
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrInvalidQuery)
	}
}
