package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-ai-relay/internal/application"
	"telegram-ai-relay/internal/config"
	"telegram-ai-relay/internal/domain/ports/adapter"
	aiAdapters "telegram-ai-relay/internal/infra/adapters/ai"
	"telegram-ai-relay/internal/infra/adapters/history"
	tele "telegram-ai-relay/internal/infra/adapters/telegram"
	ctxcache "telegram-ai-relay/internal/infra/cache"
	pg "telegram-ai-relay/internal/infra/db/postgres"
	"telegram-ai-relay/internal/infra/logging"
	"telegram-ai-relay/internal/infra/metrics"
	red "telegram-ai-relay/internal/infra/redis"
	"telegram-ai-relay/internal/infra/sched"
	"telegram-ai-relay/internal/infra/security"
	"telegram-ai-relay/internal/infra/web"
	"telegram-ai-relay/internal/infra/worker"
	"telegram-ai-relay/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI backend)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	privacyRepo := pg.NewPostgresPrivacyRepo(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Encryption + context cache ----
	// A failed key setup disables caching for this run instead of crashing:
	// the relay still answers, it just pulls live context every time.
	var encSvc *security.EncryptionService
	key, err := security.LoadOrCreateKey(cfg.Security.EncryptionKey, cfg.Security.KeyFile)
	if err != nil {
		logger.Warn().Err(err).Msg("encryption key unavailable, context caching disabled for this session")
	} else {
		encSvc, err = security.NewEncryptionService(key)
		if err != nil {
			logger.Warn().Err(err).Msg("encryption init failed, context caching disabled for this session")
			encSvc = nil
		}
	}
	cache := ctxcache.NewContextCache(encSvc, cfg.Privacy.CacheTTL)

	// ---- Live context source ----
	tracker := history.NewTracker(cfg.Privacy.ContextWindow*2, cfg.Bot.Username)

	// ---- AI adapters ----
	byProvider := map[string]adapter.AIServiceAdapter{}
	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		byProvider["openai"] = oa
	}
	if cfg.AI.GeminiKey != "" {
		ga, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		byProvider["gemini"] = ga
	}
	var ai adapter.AIServiceAdapter
	switch {
	case cfg.Runtime.Dev && len(byProvider) == 0:
		ai = aiAdapters.NewNoopAIAdapter()
		logger.Info().Msg("AI adapter: noop")
	case len(byProvider) == 0:
		logger.Fatal().Msg("no AI provider configured: set ai.openai_key or ai.gemini_key")
	default:
		ai = aiAdapters.NewMultiAIAdapter(cfg.AI.DefaultProvider, byProvider, nil)
	}
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)

	// ---- Use cases ----
	contextUC := usecase.NewContextUseCase(privacyRepo, cache, tracker, cfg.Privacy.ContextWindow, logger)
	privacyUC := usecase.NewPrivacyUseCase(privacyRepo, cache, logger)
	relayUC := usecase.NewRelayUseCase(contextUC, ai, cfg.Runtime.Dev, logger)

	// ---- Facade + bot ----
	facade := application.NewBotFacade(relayUC, privacyUC)
	pool2 := worker.NewPool(cfg.Bot.Workers, logger)
	pool2.Start(ctx)
	defer pool2.Stop()

	var bot interface {
		StartPolling(ctx context.Context) error
	}
	realBot, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, rateLimiter, tracker, pool2, logger)
	switch {
	case err == nil:
		bot = realBot
	case cfg.Runtime.Dev:
		logger.Warn().Err(err).Msg("telegram unavailable, using noop bot")
		bot = tele.NewNoopBotAdapter(logger)
	default:
		logger.Fatal().Err(err).Msg("telegram")
	}
	go func() {
		if err := bot.StartPolling(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Cache sweep worker ----
	sweeper := sched.NewSweepWorker(cfg.Privacy.SweepInterval, cache, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- Ops HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.AuthToken, 30*time.Minute)
	ops := web.NewServer(cache, privacyRepo, auth, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: ops.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("ops server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("ops server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
