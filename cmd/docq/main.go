package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/docq-dev/docq/internal/auth"
	"github.com/docq-dev/docq/internal/chunker"
	"github.com/docq-dev/docq/internal/config"
	"github.com/docq-dev/docq/internal/extract"
	logpkg "github.com/docq-dev/docq/internal/logger"
	"github.com/docq-dev/docq/internal/metrics"
	"github.com/docq-dev/docq/internal/repository/chunks"
	chiTransport "github.com/docq-dev/docq/internal/transport/chi"
	openaiTransport "github.com/docq-dev/docq/internal/transport/openai"
	askuc "github.com/docq-dev/docq/internal/usecase/ask"
	healthuc "github.com/docq-dev/docq/internal/usecase/health"
	ingestuc "github.com/docq-dev/docq/internal/usecase/ingest"
	"github.com/docq-dev/docq/internal/version"
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

	logger.Info("Starting docq API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx := context.Background()

	// Create the chunk store based on driver
	var store chunks.Store
	switch cfg.Database.Driver {
	case "memory":
		store, err = chunks.NewMemoryStore()
	case "redis":
		store, err = chunks.NewRedisStore(ctx, chunks.RedisConfig{
			Addrs:     cfg.Database.Addrs,
			Username:  cfg.Database.Username,
			Password:  cfg.Database.Password,
			DB:        cfg.Database.DB,
			VectorDim: cfg.Embedding.Dimensions,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create chunk store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Chunk store not ready", zap.Error(err))
	}
	logger.Info("Connected to chunk store")

	// Register model metrics explicitly (no init())
	metrics.RegisterModelMetrics()

	embedder := openaiTransport.NewEmbedder(openaiTransport.EmbedderConfig{
		APIKey:        cfg.Embedding.APIKey,
		BaseURL:       cfg.Embedding.BaseURL,
		Model:         cfg.Embedding.Model,
		Dimensions:    cfg.Embedding.Dimensions,
		MaxInputChars: cfg.Embedding.MaxInputChars,
	})
	completer := openaiTransport.NewCompleter(openaiTransport.CompleterConfig{
		APIKey:      cfg.Completion.APIKey,
		BaseURL:     cfg.Completion.BaseURL,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
	})
	logger.Info("Model providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("completion_model", cfg.Completion.Model),
	)

	// API keys double as the permission source: a key carries the tenant
	// and capabilities its bearer may use.
	ring := auth.NewKeyRing(keysFromConfig(cfg.Auth.APIKeys))
	if ring.Empty() {
		logger.Warn("No API keys configured, authentication is disabled")
	}

	splitter := chunker.NewSplitter(cfg.Chunking.MaxChunkSize, cfg.Chunking.Overlap)

	askSvc := askuc.NewService(ring, embedder, store, store, completer)
	ingestSvc := ingestuc.NewService(ring, store, extract.NewRegistry(), splitter, embedder)
	healthSvc := healthuc.New(store, embedder, completer)

	server := chiTransport.NewServer(askSvc, ingestSvc, healthSvc, logger).
		WithRetrievalDefaults(cfg.Retrieval.MatchCount, cfg.Retrieval.MatchThreshold)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(ring))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

func keysFromConfig(keys []config.APIKeyConfig) []auth.Key {
	out := make([]auth.Key, 0, len(keys))
	for _, k := range keys {
		out = append(out, auth.Key{
			Token:        k.Token,
			UserID:       k.UserID,
			TenantID:     k.TenantID,
			Capabilities: k.Capabilities,
		})
	}
	return out
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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
