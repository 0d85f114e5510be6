// Package binder provides request binders for handler.Wrap: JSON decodes a
// size-limited body in strict mode, Query fills struct fields from URL query
// parameters by their `query` tag.
package binder
