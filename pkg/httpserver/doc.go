// Package httpserver runs an HTTP server bound to a context and provides
// liveness and readiness handlers for orchestrator probes.
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	err := srv.Run(ctx, router) // returns after ctx is cancelled and requests drain
package httpserver
