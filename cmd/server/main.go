package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrymomot/stripesync/handler"
	"github.com/dmitrymomot/stripesync/internal/store/postgres"
	"github.com/dmitrymomot/stripesync/internal/store/redisdedupe"
	billingapi "github.com/dmitrymomot/stripesync/modules/billing"
	"github.com/dmitrymomot/stripesync/pkg/billing"
	"github.com/dmitrymomot/stripesync/pkg/config"
	"github.com/dmitrymomot/stripesync/pkg/httpserver"
	"github.com/dmitrymomot/stripesync/pkg/jwt"
	"github.com/dmitrymomot/stripesync/pkg/logger"
	"github.com/dmitrymomot/stripesync/pkg/pg"
	"github.com/dmitrymomot/stripesync/pkg/redis"
	"github.com/dmitrymomot/stripesync/pkg/requestid"
)

const readinessTimeout = 3 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load[appConfig](config.WithEnvFiles(".env"))
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "stripesync"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	checks := map[string]httpserver.Check{}

	store, closeStore, err := openStore(ctx, cfg.Store, log, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	processorOpts := []billing.ProcessorOption{billing.WithProcessorLogger(log)}
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		checks["redis"] = redis.Healthcheck(client)
		processorOpts = append(processorOpts, billing.WithDeduper(redisdedupe.New(client)))
	} else {
		log.WarnContext(ctx, "REDIS_URL not set, webhook redeliveries are reconciled again")
	}

	catalog := cfg.Stripe.Catalog()
	for _, plan := range billing.Plans {
		if _, err := catalog.PriceID(plan); err != nil {
			log.WarnContext(ctx, "no price configured for plan", slog.String("plan", string(plan)))
		}
	}

	provider, err := billing.NewStripeProvider(cfg.Stripe.SecretKey, nil)
	if err != nil {
		return err
	}
	verifier, err := billing.NewStripeVerifier(cfg.Stripe.WebhookSecret, billing.WithVerifierLogger(log))
	if err != nil {
		return err
	}
	tokens, err := jwt.New(cfg.JWT)
	if err != nil {
		return err
	}

	svc := billing.NewService(provider, store, catalog,
		billing.WithLogger(log),
		billing.WithBaseURL(cfg.BaseURL),
	)
	processor := billing.NewWebhookProcessor(verifier, billing.NewDispatcher(store, log), processorOpts...)
	auth := jwt.Middleware(tokens, func(w http.ResponseWriter, r *http.Request, err error) {
		log.DebugContext(r.Context(), "request rejected", logger.Error(err), logger.Component("auth"))
		_ = handler.JSONError(handler.ErrUnauthorized).Render(w, r)
	})

	mod := billingapi.New(svc, processor, auth, billingapi.WithLogger(log))

	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, newRouter(mod.Handle(), log, checks))
}

// openStore returns the configured profile store and its cleanup func.
func openStore(ctx context.Context, kind string, log *slog.Logger, checks map[string]httpserver.Check) (billing.ProfileStore, func(), error) {
	switch kind {
	case storeMemory:
		log.WarnContext(ctx, "using in-memory profile store, state is lost on restart")
		return billing.NewMemoryStore(), func() {}, nil

	case storePostgres:
		pgCfg, err := config.Load[pg.Config]()
		if err != nil {
			return nil, nil, err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, pool, pgCfg, log); err != nil {
			pool.Close()
			return nil, nil, err
		}

		checks["postgres"] = pg.Healthcheck(pool)
		db := stdlib.OpenDBFromPool(pool)
		return postgres.NewProfileStore(db), func() {
			_ = db.Close()
			pool.Close()
		}, nil

	default:
		return nil, nil, errors.Join(errUnknownStore, fmt.Errorf("%q", kind))
	}
}

var errUnknownStore = errors.New("unknown BILLING_STORE, expected postgres or memory")

func newRouter(api http.Handler, log *slog.Logger, checks map[string]httpserver.Check) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, readinessTimeout, checks))
	r.Mount("/", api)
	return r
}
