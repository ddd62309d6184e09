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

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"evoting/internal/adminauth"
	"evoting/internal/apiclient"
	"evoting/internal/credential"
	"evoting/internal/guard"
	"evoting/internal/platform/config"
	"evoting/internal/platform/httpserver"
	"evoting/internal/platform/logger"
	"evoting/internal/platform/metrics"
	platformredis "evoting/internal/platform/redis"
	"evoting/internal/session"
	"evoting/internal/storage"
	httptransport "evoting/internal/transport/http"
	"evoting/internal/voterauth"
)

// main wires the console: one session store, one voter login machine and the
// HTTP surface in front of them.
func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("console stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	slots, redisClient, err := buildSlotStore(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warn("failed to close redis", "error", err)
			}
		}()
	}

	sessions := session.NewStore(slots, credential.NewCodec(),
		session.WithLogger(log),
		session.WithMetrics(m),
	)
	if err := sessions.LoadAll(ctx); err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}

	client := apiclient.New(cfg.BackendURL, sessions,
		apiclient.WithLogger(log),
		apiclient.WithMetrics(m),
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)
	g := guard.New(sessions, guard.WithLogger(log), guard.WithMetrics(m))
	voter := voterauth.New(client, sessions, voterauth.WithLogger(log), voterauth.WithMetrics(m))
	sessions.Subscribe(voter.OnSession)
	handler := httptransport.NewHandler(
		adminauth.NewService(client, sessions, log),
		voter,
		sessions, g, client, log,
	)
	if redisClient != nil {
		handler.AddHealthCheck("redis", redisClient)
	}
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, prometheus.DefaultGatherer))

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		log.Info("starting evoting console", "addr", cfg.Addr, "backend", cfg.BackendURL, "session_storage", cfg.Session.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	grp.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down evoting console")
		return srv.Shutdown(shutdownCtx)
	})
	return grp.Wait()
}

// buildSlotStore returns the configured slot store and, for redis storage, the
// client backing it.
func buildSlotStore(ctx context.Context, cfg config.Server) (storage.SlotStore, *platformredis.Client, error) {
	switch cfg.Session.Storage {
	case config.StorageRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, errors.New("session storage is redis but REDIS_URL is not set")
		}
		return storage.NewRedisSlotStore(client.Client, storage.WithKeyPrefix(cfg.Redis.KeyPrefix)), client, nil
	case config.StorageFile:
		dir := cfg.Session.Dir
		if dir == "" {
			d, err := storage.DefaultDir()
			if err != nil {
				return nil, nil, err
			}
			dir = d
		}
		slots, err := storage.NewFileSlotStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return slots, nil, nil
	case config.StorageMemory:
		return storage.NewInMemorySlotStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session storage %q", cfg.Session.Storage)
	}
}
