package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"dispatch-console/internal/broadcast"
	"dispatch-console/internal/config"
	"dispatch-console/internal/http/pprofserver"
)

// MustRun starts the HTTP server using the provided DI container
func MustRun(container *dig.Container) {
	if err := run(container); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			log.Println("shutdown requested, exiting")
			return
		case errors.Is(err, context.DeadlineExceeded):
			log.Println("startup aborted: startup timeout exceeded")
			return
		default:
			log.Fatalf("run error: %v", err)
		}
	}
}

func run(container *dig.Container) error {
	return container.Invoke(func(
		server *http.Server,
		ctx context.Context,
		cfg *config.Config,
		pool *pgxpool.Pool,
		broker *broadcast.Broker,
		logger *log.Logger,
	) error {
		pprof := startPprof(cfg, logger)
		startServer(server, logger)
		waitForShutdown(ctx, logger)
		gracefulShutdown(server, logger, 15*time.Second)
		closeResources(pool, server, broker, pprof, logger)
		return nil
	})
}

func startServer(server *http.Server, logger *log.Logger) {
	go func() {
		logger.Printf("dispatch-console listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()
}

// startPprof exposes the profiler on its own listener so it never shares
// the public port. Disabled unless PPROF_ADDR is set.
func startPprof(cfg *config.Config, logger *log.Logger) *http.Server {
	if cfg.Pprof.Addr == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              cfg.Pprof.Addr,
		Handler:           pprofserver.Handler(pprofserver.Config{User: cfg.Pprof.User, Pass: cfg.Pprof.Pass}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Printf("pprof listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("pprof listen error: %v", err)
		}
	}()
	return srv
}

func waitForShutdown(ctx context.Context, logger *log.Logger) {
	<-ctx.Done()
	logger.Println("shutting down dispatch-console...")
}

func gracefulShutdown(srv *http.Server, logger *log.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Printf("graceful shutdown error: %v", err)
	}
}

func closeResources(pool *pgxpool.Pool, server *http.Server, broker *broadcast.Broker, pprof *http.Server, logger *log.Logger) {
	if broker != nil {
		broker.Close()
	}
	if pprof != nil {
		if err := pprof.Close(); err != nil {
			logger.Printf("pprof close error: %v", err)
		}
	}
	if err := server.Close(); err != nil {
		logger.Printf("server close error: %v", err)
	}
	if pool != nil {
		pool.Close()
	}
}
