// Package redis opens go-redis clients with startup retries and exposes a
// readiness probe. Redis is optional; Config.Enabled reports whether it is set up.
package redis
