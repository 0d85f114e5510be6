package billing

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	core "github.com/dmitrymomot/stripesync/pkg/billing"
	"github.com/dmitrymomot/stripesync/pkg/logger"
)

// WebhookProcessor verifies and applies a raw provider webhook delivery.
type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte, signature string) (core.Result, error)
}

// Module exposes the billing HTTP API.
type Module struct {
	service     core.Service
	webhooks    WebhookProcessor
	requireAuth func(http.Handler) http.Handler
	logger      *slog.Logger
	maxBodySize int64
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the module logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMaxWebhookSize bounds the accepted webhook body in bytes.
func WithMaxWebhookSize(n int64) Option {
	return func(m *Module) {
		if n > 0 {
			m.maxBodySize = n
		}
	}
}

// New creates the module. requireAuth must reject unauthenticated requests
// and leave the caller's user id where jwt.SubjectFromContext finds it.
func New(service core.Service, webhooks WebhookProcessor, requireAuth func(http.Handler) http.Handler, opts ...Option) *Module {
	if service == nil {
		panic("billing module: service cannot be nil")
	}
	if webhooks == nil {
		panic("billing module: webhook processor cannot be nil")
	}
	if requireAuth == nil {
		panic("billing module: auth middleware cannot be nil")
	}

	m := &Module{
		service:     service,
		webhooks:    webhooks,
		requireAuth: requireAuth,
		logger:      slog.Default(),
		maxBodySize: defaultMaxWebhookSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("billing_api"))
	return m
}

// Handle returns the module router. Mount it at the server root; all routes
// live under /api.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/webhook", m.webhook())
		r.Post("/checkout", m.checkout())
		r.Get("/check-subscription", m.checkSubscription())

		r.Route("/profile", func(r chi.Router) {
			r.Use(m.requireAuth)
			r.Post("/", m.createProfile())
			r.Post("/change-plan", m.changePlan())
			r.Post("/unsubscribe", m.unsubscribe())
			r.Get("/subscription", m.subscription())
		})
	})

	return r
}
