// Package billing mounts the subscription billing HTTP API: the provider
// webhook, checkout creation, the public subscription check and the
// authenticated profile routes for plan changes, cancellation and status.
package billing
