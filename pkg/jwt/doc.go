// Package jwt authenticates API callers with HS256 bearer tokens issued by the
// external auth provider. The token subject is the user id; Middleware places it
// in the request context where SubjectFromContext reads it.
package jwt
