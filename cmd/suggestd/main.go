package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suggestkit/suggestd/internal/intervention"
	"github.com/suggestkit/suggestd/internal/scorer"
	"github.com/suggestkit/suggestd/internal/suggest"
	"github.com/suggestkit/suggestd/internal/telemetry"
	"github.com/suggestkit/suggestd/pkg/config"
	"github.com/suggestkit/suggestd/pkg/health"
	"github.com/suggestkit/suggestd/pkg/kafka"
	"github.com/suggestkit/suggestd/pkg/logger"
	"github.com/suggestkit/suggestd/pkg/metrics"
	"github.com/suggestkit/suggestd/pkg/middleware"
	"github.com/suggestkit/suggestd/pkg/postgres"
	pkgredis "github.com/suggestkit/suggestd/pkg/redis"
	"github.com/suggestkit/suggestd/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting suggest service",
		"port", cfg.Server.Port,
		"distance_threshold", cfg.Scorer.DistanceThreshold,
		"max_score", cfg.Scorer.MaxScore,
	)

	m := metrics.New()

	sc, err := scorer.New(
		scorer.WithDistanceThreshold(cfg.Scorer.DistanceThreshold),
		scorer.WithStopWords(cfg.Scorer.StopWords...),
	)
	if err != nil {
		slog.Error("failed to create scorer", "error", err)
		os.Exit(1)
	}
	for _, iv := range cfg.Interventions {
		doc := scorer.Document{ID: iv.ID, Keywords: iv.Keywords}
		if err := sc.AddDocument(doc); err != nil {
			slog.Error("failed to register intervention", "id", iv.ID, "error", err)
			os.Exit(1)
		}
	}
	m.CorpusDocuments.Set(float64(sc.DocumentCount()))
	slog.Info("corpus loaded", "documents", sc.DocumentCount())

	var resultCache *suggest.ResultCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, result caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		resultCache = suggest.NewResultCache(redisClient, cfg.Redis)
		slog.Info("result cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.TelemetryEvents)
	collector := telemetry.NewCollector(producer, 10000)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("telemetry collector started", "topic", cfg.Kafka.Topics.TelemetryEvents)

	aggregator := telemetry.NewAggregator()
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.TelemetryEvents, telemetry.HandleEvent(aggregator))
	aggregator.SetConsumer(consumer)
	telemetryH := telemetry.NewHandler(aggregator)

	go func() {
		if err := aggregator.Start(ctx); err != nil {
			slog.Error("telemetry aggregator error", "error", err)
		}
	}()
	slog.Info("telemetry aggregator started")

	var pgClient *postgres.Client
	pgClient, err = postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, snapshot persistence disabled", "error", err)
		pgClient = nil
	} else {
		defer pgClient.Close()
		store := telemetry.NewStore(pgClient)
		if prev, err := store.LatestSnapshot(ctx); err != nil {
			slog.Warn("could not load previous telemetry snapshot", "error", err)
		} else if prev != nil {
			slog.Info("previous telemetry snapshot found",
				"total_queries", prev.TotalQueries,
				"zero_match_count", prev.ZeroMatchCount,
			)
		}
		go store.RunPeriodic(ctx, cfg.Postgres.SnapshotEvery, aggregator.Stats)
		slog.Info("telemetry snapshots enabled", "every", cfg.Postgres.SnapshotEvery)
	}

	hostClient := intervention.NewHTTPHostClient(cfg.Host)
	picker := intervention.NewPicker(hostClient, cfg.Scorer.MaxScore, m)
	go watchBreaker(ctx, hostClient, m)

	checker := health.NewChecker()
	checker.Register("corpus", func(ctx context.Context) health.ComponentHealth {
		if n := sc.DocumentCount(); n > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", n)}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "empty corpus"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if pgClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := pgClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := suggest.New(sc, picker, resultCache, collector, m, cfg.Scorer.MaxScore)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/suggest", h.Suggest)
	mux.HandleFunc("POST /api/v1/interventions/invoke", h.Invoke)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/telemetry", telemetryH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerMin, time.Minute)
	defer limiter.Stop()
	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RateLimit(limiter)(chain)
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	// The collector must outlive server.Shutdown: in-flight handlers call
	// Track until Shutdown returns, so Close only after the drain finishes.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("suggest service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-shutdownDone

	slog.Info("suggest service stopped")
}

// watchBreaker mirrors the host-control circuit state into a gauge.
func watchBreaker(ctx context.Context, host *intervention.HTTPHostClient, m *metrics.Metrics) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			var v float64
			switch host.BreakerState() {
			case resilience.StateOpen:
				v = 1
			case resilience.StateHalfOpen:
				v = 2
			}
			m.HostBreakerState.Set(v)
		case <-ctx.Done():
			return
		}
	}
}
