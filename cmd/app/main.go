package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"line-rate-bot/internal/cache"
	"line-rate-bot/internal/config"
	"line-rate-bot/internal/convo"
	"line-rate-bot/internal/httpserver"
	"line-rate-bot/internal/line"
	"line-rate-bot/internal/llm"
	"line-rate-bot/internal/logging"
	"line-rate-bot/internal/metrics"
	"line-rate-bot/internal/rates"
	"line-rate-bot/internal/reply"
	"line-rate-bot/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting line-rate-bot", "env", cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	var rateCache rates.Store
	if cfg.RedisEnabled() {
		redisClient := cache.New(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
			Prefix:   cfg.MetricsNamespace,
		}, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("failed closing redis", "error", err)
			}
		}()
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("redis ping failed", "error", err)
		}
		rateCache = redisClient
	}

	fetcher := rates.New(rates.Config{
		SourceURL: cfg.RateSourceURL,
		Timeout:   cfg.RateFetchTimeout,
		CacheTTL:  cfg.RateCacheTTL,
	}, logger, metricRegistry, rateCache)

	// The table is loaded once; a failure here stops startup.
	table, err := fetcher.Load(ctx, false)
	if err != nil {
		return fmt.Errorf("load exchange rates: %w", err)
	}
	logger.Info("exchange rates loaded", "currencies", len(table), "codes", table.Codes())

	faq, err := reply.LoadFAQ(cfg.FAQPath)
	if err != nil {
		return fmt.Errorf("load faq: %w", err)
	}

	llmClient := llm.New(llm.Config{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		SystemPrompt: cfg.OpenAISystemPrompt,
	}, logger, metricRegistry)

	lineClient, err := line.New(line.Config{
		AccessToken: cfg.LineAccessToken,
		Endpoint:    cfg.LineAPIEndpoint,
	}, logger, metricRegistry)
	if err != nil {
		return fmt.Errorf("init line client: %w", err)
	}

	textRouter := router.New(faq, table, reply.Menu(), reply.MenuTriggers, llmClient)
	convoEngine := convo.New(textRouter, lineClient, metricRegistry, logger)
	webhookHandler := line.NewWebhookHandler(logger, metricRegistry, cfg.LineChannelSecret, convoEngine)

	httpSrv := httpserver.New(cfg.ListenAddr(), logger, httpserver.Handlers{
		Webhook: webhookHandler,
	}, cfg.PublicBasePath)

	var metricsSrv *httpserver.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = httpserver.NewMetrics(cfg.MetricsAddr, logger)
	}

	errCh := make(chan error, 2)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()
	if metricsSrv != nil {
		go func() {
			if err := metricsSrv.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	return nil
}
