// Package postgres stores billing profiles in PostgreSQL and embeds the goose
// migrations that create the profiles table.
package postgres
