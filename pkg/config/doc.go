// Package config loads typed configuration from environment variables, with
// optional dotenv files for local development. Struct fields are bound with
// caarlos0/env tags (`env`, `envDefault`, `required`).
package config
