package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"census/internal/citizens/handler"
	citizenmetrics "census/internal/citizens/metrics"
	"census/internal/citizens/service"
	"census/internal/citizens/store/dataset"
	"census/internal/citizens/store/report"
	"census/internal/platform/config"
	"census/internal/platform/httpserver"
	"census/internal/platform/lock"
	"census/internal/platform/logger"
	"census/internal/platform/metrics"
	"census/internal/platform/middleware"
	"census/internal/platform/postgres"
	platformredis "census/internal/platform/redis"
	"census/pkg/platform/audit"
	auditkafka "census/pkg/platform/audit/kafka"
)

// main wires dependencies and keeps the server lifecycle small. Stores and
// the locker degrade to in-memory implementations when their backends are
// not configured, which covers local development without docker.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	var locker lock.Locker
	if redisClient != nil {
		defer redisClient.Close()
		locker = lock.NewRedis(redisClient.Client)
		log.Info("using redis locker", "url", cfg.Redis.URL)
	} else {
		locker = lock.NewMemory()
		log.Warn("REDIS_URL not set, using in-process locker")
	}

	var (
		datasets service.DatasetStore
		reports  service.ReportStore
	)
	pool, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err.Error())
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		datasets = dataset.NewPostgres(pool)
		reports = report.NewPostgres(pool)
		log.Info("using postgres stores")
	} else {
		datasets = dataset.NewMemory()
		reports = report.NewMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	var publisher audit.Publisher = audit.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := auditkafka.New(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info("audit events enabled", "topic", cfg.AuditTopic)
	}

	platformMetrics := metrics.New()

	svc, err := service.New(datasets, reports, locker,
		service.WithLogger(log),
		service.WithMetrics(citizenmetrics.New()),
		service.WithAuditPublisher(publisher),
		service.WithLockParams(cfg.Lock.TTL, cfg.Lock.Timeout),
	)
	if err != nil {
		log.Error("service init failed", "error", err.Error())
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.ContentTypeJSON)
	router.Use(platformMetrics.Latency)

	handler.New(svc, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", healthHandler(pool, redisClient))

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting census server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}

// healthHandler pings the configured backends. Unconfigured backends are
// healthy by definition.
func healthHandler(pool *pgxpool.Pool, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, "coordination store unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
