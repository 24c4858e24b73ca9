package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"dispatch-console/internal/broadcast"
	"dispatch-console/internal/config"
	"dispatch-console/internal/gateway/identity"
	"dispatch-console/internal/http/handlers"
	mw "dispatch-console/internal/http/middleware"
	"dispatch-console/internal/http/middleware/ratelimit"
	"dispatch-console/internal/http/router"
	"dispatch-console/internal/logx"
	"dispatch-console/internal/repository"
	"dispatch-console/internal/service/dispatch"
	"dispatch-console/internal/service/intake"
	"dispatch-console/internal/service/orders"
	"dispatch-console/internal/service/partner"
	"dispatch-console/internal/service/policy"
	"dispatch-console/internal/transport/kafka"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function.
func (b *ContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function.
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container.
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	if err := registerWorker(container); err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		func() *log.Logger { return log.Default() },
		NewLogger,
		NewMetrics,
		config.Load,
	)
}

func registerDb(
	container *dig.Container,
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		return dbConnect(ctx, cfg.DB.DSN(), 10, time.Second)
	}
	return provideAll(container, providerDB)
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		repository.NewStore,
		repository.NewOrderRepo,
		repository.NewPartnerRepo,
		func() time.Duration { return 3 * time.Second },
		func(cfg *config.Config, logger logx.Logger, m *Metrics) *broadcast.Broker {
			return broadcast.New(cfg.Dispatch.SubscriberBuffer, logger, m.EventsPublished, m.SubscribersDropped, m.Subscribers)
		},
		func(cfg *config.Config) policy.Policy {
			return policy.New(cfg.Dispatch.MaxClaimDistanceKm)
		},
		func(
			store *repository.Store,
			pol policy.Policy,
			broker *broadcast.Broker,
			cfg *config.Config,
			m *Metrics,
			logger logx.Logger,
		) *dispatch.Coordinator {
			return dispatch.NewCoordinator(store, pol, broker,
				dispatch.Config{
					MaxPrepTimeMinutes:    cfg.Dispatch.MaxPrepTimeMinutes,
					ConflictRetryAttempts: cfg.Dispatch.ConflictRetryAttempts,
				},
				m.AssignmentConflicts, m.StorageRetries, logger)
		},
		func(repo *repository.PartnerRepo, timeout time.Duration) *partner.Service {
			return partner.NewService(repo, timeout)
		},
		func(repo *repository.OrderRepo, timeout time.Duration) *orders.Service {
			return orders.NewService(repo, timeout)
		},
		newIdentityResolver,
	)
}

func newIdentityResolver(cfg *config.Config, logger logx.Logger, m *Metrics) identity.Resolver {
	if cfg.Identity.BaseURL == "" {
		// development fallback; production always points at the identity service
		return identity.NewStatic(nil)
	}
	gw := identity.NewHTTPGateway(&http.Client{Timeout: 5 * time.Second}, cfg.Identity.BaseURL)
	return identity.NewRetryingResolver(gw, logger, m.IdentityRetries, identity.RetryConfig{
		MaxAttempts: cfg.Identity.MaxAttempts,
		BaseDelay:   cfg.Identity.BaseDelay,
		MaxDelay:    cfg.Identity.MaxDelay,
	})
}

func newRateLimiter(cfg *config.Config) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return ratelimit.NopLimiter{}
	}
	return ratelimit.NewTokenBucketLimiter(ratelimit.RealClock{}, ratelimit.Config{
		Rate:       rl.Rate,
		Burst:      rl.Burst,
		TTL:        rl.TTL,
		MaxBuckets: rl.MaxBuckets,
	})
}

func newRateLimitMiddleware(logger logx.Logger, m *Metrics, limiter ratelimit.Limiter) *ratelimit.Middleware {
	// claims are limited per caller, not per address: a partner behind NAT
	// must not eat a colleague's budget
	return ratelimit.New(logger, m.RateLimitExceeded, limiter).
		WithKeyFunc(func(r *http.Request) string {
			if c, ok := mw.CallerFrom(r.Context()); ok && c.PartnerID != "" {
				return c.PartnerID
			}
			return ratelimit.ClientIP(r)
		})
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	routerProvider := func(
		logger logx.Logger,
		base *handlers.Handlers,
		oh *handlers.OrderHandler,
		ph *handlers.PartnerHandler,
		dh *handlers.DispatchHandler,
		eh *handlers.EventsHandler,
		auth *mw.Authenticator,
		rl *ratelimit.Middleware,
	) http.Handler {
		return router.New(router.Deps{
			Logger:    logger,
			Base:      base,
			Orders:    oh,
			Partners:  ph,
			Dispatch:  dh,
			Events:    eh,
			Auth:      auth,
			RateLimit: rl,
		})
	}
	return provideAll(container,
		handlers.New,
		handlers.NewOrderQuery,
		handlers.NewRosterUsecase,
		handlers.NewDispatchUsecase,
		handlers.NewEventSource,
		handlers.NewOrderHandler,
		handlers.NewPartnerHandler,
		handlers.NewDispatchHandler,
		handlers.NewEventsHandler,
		mw.NewAuthenticator,
		newRateLimiter,
		newRateLimitMiddleware,
		routerProvider,
		serverProvider,
	)
}

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		func(c *dispatch.Coordinator, logger logx.Logger) *intake.Processor {
			return intake.NewProcessor(c, logger)
		},
		func(cfg *config.Config, logger logx.Logger, p *intake.Processor) (*kafka.Consumer, error) {
			return kafka.NewConsumer(logger, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic,
				func(ctx context.Context, ev intake.Event) error {
					return p.Handle(ctx, ev)
				})
		},
	)
}
