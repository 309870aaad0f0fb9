package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "moviestream/searchservice/internal/api/http"
	"moviestream/searchservice/internal/app"
	"moviestream/searchservice/internal/catalog"
	"moviestream/searchservice/internal/metrics"
	"moviestream/searchservice/internal/providers/kinopoisk"
	"moviestream/searchservice/internal/providers/omdb"
	"moviestream/searchservice/internal/providers/piratebay"
	"moviestream/searchservice/internal/providers/rarbg"
	"moviestream/searchservice/internal/providers/yts"
	"moviestream/searchservice/internal/search"
	"moviestream/searchservice/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "movie-search")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "movie-search"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.Int("resultLimit", cfg.ResultLimit),
		slog.String("piratebayEndpoint", cfg.PirateBayEndpoint),
		slog.String("rarbgEndpoint", cfg.RarbgEndpoint),
		slog.String("ytsEndpoint", cfg.YTSEndpoint),
		slog.Bool("hasDatabase", strings.TrimSpace(cfg.DatabaseURL) != ""),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Bool("hasOMDBKey", strings.TrimSpace(cfg.OMDBAPIKey) != ""),
		slog.Bool("hasKinopoiskKey", strings.TrimSpace(cfg.KinopoiskAPIKey) != ""),
	)

	newClient := func() *http.Client {
		return &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	indexers := []search.IndexerProvider{
		piratebay.NewProvider(piratebay.Config{
			Endpoint:  cfg.PirateBayEndpoint,
			UserAgent: cfg.UserAgent,
			Client:    newClient(),
		}),
		rarbg.NewProvider(rarbg.Config{
			Endpoint:  cfg.RarbgEndpoint,
			AppID:     cfg.RarbgAppID,
			UserAgent: cfg.UserAgent,
			Client:    newClient(),
		}),
	}

	serviceOpts := []search.ServiceOption{
		search.WithLogger(logger),
		search.WithResultLimit(cfg.ResultLimit),
		search.WithRetryConfig(search.RetryConfig{
			MaxAttempts:  cfg.RetryAttempts,
			InitialDelay: cfg.RetryInitialDelay,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		}),
		search.WithCheapIndexer(yts.NewProvider(yts.Config{
			Endpoint:  cfg.YTSEndpoint,
			UserAgent: cfg.UserAgent,
			Client:    newClient(),
		})),
	}
	if cfg.ProviderRPS > 0 {
		serviceOpts = append(serviceOpts, search.WithProviderRate(cfg.ProviderRPS))
	}

	if cfg.OMDBAPIKey != "" {
		serviceOpts = append(serviceOpts, search.WithMetadata(omdb.NewClient(omdb.Config{
			Endpoint:  cfg.OMDBBaseURL,
			APIKey:    cfg.OMDBAPIKey,
			UserAgent: cfg.UserAgent,
			Client:    newClient(),
		})))
	} else {
		logger.Warn("omdb api key not configured, metadata enrichment disabled")
	}

	redisClient := buildRedisClient(cfg, logger)
	translator := kinopoisk.NewClient(kinopoisk.Config{
		APIKey:    cfg.KinopoiskAPIKey,
		BaseURL:   cfg.KinopoiskBaseURL,
		UserAgent: cfg.UserAgent,
		Client:    newClient(),
		Redis:     redisClient,
		CacheTTL:  cfg.TranslationTTL,
	})
	if translator.Enabled() {
		serviceOpts = append(serviceOpts, search.WithTranslator(translator))
	} else {
		logger.Warn("kinopoisk api key not configured, localized records fall back to english")
	}

	var catalogStore *catalog.Catalog
	if databaseURL := strings.TrimSpace(cfg.DatabaseURL); databaseURL != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		catalogStore, err = catalog.Connect(connectCtx, databaseURL)
		cancel()
		if err != nil {
			logger.Warn("catalog unavailable, catalog tier disabled", slog.String("error", err.Error()))
		} else {
			defer catalogStore.Close()
			serviceOpts = append(serviceOpts, search.WithCatalog(catalogStore))
			logger.Info("catalog connected")
		}
	} else {
		logger.Warn("database url not configured, catalog tier disabled")
	}

	movieService := search.NewService(indexers, cfg.RequestTimeout, serviceOpts...)

	handler := apihttp.NewServer(movieService,
		apihttp.WithLogger(logger),
		apihttp.WithRateLimit(cfg.HTTPRateLimit, cfg.HTTPRateBurst),
	).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("movie search service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.Duration("timeout", cfg.RequestTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("movie search service stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildRedisClient(cfg app.Config, logger *slog.Logger) *redis.Client {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, translation cache disabled", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable, translation cache disabled", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("redis connected", slog.String("addr", opts.Addr))
	return client
}
