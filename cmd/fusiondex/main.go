package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/coraldata/fusiondex/internal/config"
	dbMongo "github.com/coraldata/fusiondex/internal/db/mongo"
	dbRedis "github.com/coraldata/fusiondex/internal/db/redis"
	"github.com/coraldata/fusiondex/internal/domain"
	logpkg "github.com/coraldata/fusiondex/internal/logger"
	"github.com/coraldata/fusiondex/internal/metrics"
	"github.com/coraldata/fusiondex/internal/repository/embcache"
	searchrepo "github.com/coraldata/fusiondex/internal/repository/search"
	chiTransport "github.com/coraldata/fusiondex/internal/transport/chi"
	openaiEmb "github.com/coraldata/fusiondex/internal/transport/openai"
	searchuc "github.com/coraldata/fusiondex/internal/usecase/search"
	"github.com/coraldata/fusiondex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting fusiondex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("database", cfg.Mongo.Database),
		zap.String("collection", cfg.Search.Collection),
	)

	store, err := dbMongo.NewStore(dbMongo.Config{
		URI:     cfg.Mongo.URI,
		AppName: "fusiondex",
	})
	if err != nil {
		logger.Fatal("Failed to create document store", zap.Error(err))
	}

	ctx := context.Background()
	defer func() { _ = store.Close(ctx) }()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Mongo.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Document store not ready", zap.Error(err))
	}
	logger.Info("Connected to document store")

	// Register domain metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterQueryMetrics()

	embedder := buildEmbedder(cfg, logger)

	settings := cfg.Settings()

	// One-time setup check: collection and both search indexes must exist.
	validator := searchuc.NewValidator(store, logger)
	if err := validator.Validate(ctx, settings); err != nil {
		var precondition *domain.PreconditionError
		if errors.As(err, &precondition) {
			logger.Fatal("Setup validation failed",
				zap.String("check", string(precondition.Check)),
				zap.String("name", precondition.Name),
			)
		}
		logger.Fatal("Setup validation failed", zap.Error(err))
	}
	logger.Info("Setup validated",
		zap.String("collection", settings.Collection),
		zap.String("vector_index", settings.VectorIndex),
		zap.String("text_index", settings.TextIndex),
	)

	executor := searchrepo.New(store, cfg.Search.TextField, logger)

	engine, err := searchuc.New(settings, embedder, executor, logger)
	if err != nil {
		logger.Fatal("Failed to create search engine", zap.Error(err))
	}

	server := chiTransport.NewServer(engine, store, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the embedder chain: OpenAI -> optional cache.
func buildEmbedder(cfg config.Config, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	if !cfg.Cache.Enabled {
		return base
	}

	kv, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Username: cfg.Cache.Username,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		// The cache is an optimization; a missing cache never blocks startup.
		logger.Warn("Embedding cache unavailable, continuing without it", zap.Error(err))
		return base
	}
	logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))

	return embcache.New(base, kv, metrics.EmbeddingCacheTotal, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
