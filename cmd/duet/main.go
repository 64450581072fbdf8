package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/duet/internal/config"
	"github.com/kailas-cloud/duet/internal/db"
	dbRedis "github.com/kailas-cloud/duet/internal/db/redis"
	"github.com/kailas-cloud/duet/internal/domain"
	logpkg "github.com/kailas-cloud/duet/internal/logger"
	"github.com/kailas-cloud/duet/internal/metrics"
	"github.com/kailas-cloud/duet/internal/repository/embcache"
	memoryrepo "github.com/kailas-cloud/duet/internal/repository/memory"
	sourcerepo "github.com/kailas-cloud/duet/internal/repository/source"
	chiTransport "github.com/kailas-cloud/duet/internal/transport/chi"
	"github.com/kailas-cloud/duet/internal/transport/ollama"
	openaiTransport "github.com/kailas-cloud/duet/internal/transport/openai"
	"github.com/kailas-cloud/duet/internal/transport/web"
	"github.com/kailas-cloud/duet/internal/usecase/assemble"
	chatuc "github.com/kailas-cloud/duet/internal/usecase/chat"
	"github.com/kailas-cloud/duet/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/duet/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/duet/internal/usecase/ingest"
	memoryuc "github.com/kailas-cloud/duet/internal/usecase/memory"
	"github.com/kailas-cloud/duet/internal/version"
)

// generator is what the composition root needs from a generation provider.
type generator interface {
	gateway.Generator
	domain.HealthChecker
}

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting duet API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("models_provider", cfg.Models.Provider),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterModelMetrics()

	// Embedders: provider -> cache -> instruction
	baseEmbedder := buildBaseEmbedder(cfg, logger)
	docEmbedder := buildEmbedder(cfg, baseEmbedder, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(cfg, baseEmbedder, cfg.Embedding.QueryInstruction, store, logger)
	logger.Info("Embedders created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache),
	)

	gen := buildGenerator(cfg)

	// Repositories
	memRepo := memoryrepo.New(store, cfg.Storage.KeyPrefix, cfg.Embedding.Dimensions).
		WithHNSW(memoryrepo.HNSWConfig{M: cfg.Memory.HNSWM, EFConstruct: cfg.Memory.HNSWEFConstruct})
	srcRepo := sourcerepo.New(store, cfg.Storage.KeyPrefix)

	// Use cases
	memorySvc := memoryuc.New(memRepo, docEmbedder).
		WithQueryEmbedder(queryEmbedder).
		WithLimits(cfg.Memory.LatestLimit, cfg.Memory.RecallTopK)
	if err := memorySvc.Init(ctx); err != nil {
		logger.Fatal("Failed to prepare memory index", zap.Error(err))
	}

	gw := gateway.New(gen, gateway.Config{
		Simple:   cfg.Models.Simple,
		Reasoned: cfg.Models.Reasoned,
		Timeout:  cfg.ModelTimeout(),
	})
	chatSvc := chatuc.New(gw, assemble.New(srcRepo)).WithMaxMessageChars(cfg.Chat.MaxMessageChars)
	if cfg.Chat.AutoMemory {
		chatSvc.WithAutoMemory(memorySvc)
	}

	crawler := web.NewCrawler(web.Config{
		Timeout:   time.Duration(cfg.Ingest.CrawlTimeoutSec) * time.Second,
		MaxBytes:  int64(cfg.Ingest.CrawlMaxMB) << 20,
		UserAgent: cfg.Ingest.UserAgent,
	})
	ingestSvc := ingestuc.New(srcRepo, crawler).WithMaxUploadBytes(int64(cfg.Ingest.MaxUploadMB) << 20)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(docEmbedder), gen)

	server := chiTransport.NewServer(chatSvc, memorySvc, ingestSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// embeddingHealthChecker wraps domain.Embedder to implement health.Checker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

func buildGenerator(cfg config.Config) generator {
	if cfg.Models.Provider == config.ProviderOpenAI {
		return openaiTransport.NewGenerator(cfg.Models.APIKey, cfg.Models.BaseURL)
	}
	// The gateway owns the deadline.
	return ollama.NewGenerator(cfg.Models.BaseURL, 0)
}

func buildBaseEmbedder(cfg config.Config, logger *zap.Logger) domain.Embedder {
	timeout := time.Duration(cfg.Embedding.TimeoutSec) * time.Second
	if cfg.Embedding.Provider == config.ProviderOpenAI {
		return openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
	}
	return ollama.NewEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.Model, timeout, logger)
}

// buildEmbedder assembles the decorator chain: provider -> cached -> instruction.
// The instruction is outermost so the cache key includes it.
func buildEmbedder(
	cfg config.Config,
	base domain.Embedder,
	instruction string,
	store db.Store,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if cfg.Embedding.Cache {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger).
			WithNamespace(cfg.Storage.KeyPrefix, cfg.Embedding.Model).
			WithTTL(time.Duration(cfg.Embedding.CacheTTLHours) * time.Hour)
	}

	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}
