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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/spa-ledger/internal/api/router"
	"github.com/wolfman30/spa-ledger/internal/app/bootstrap"
	appconfig "github.com/wolfman30/spa-ledger/internal/config"
	httpmiddleware "github.com/wolfman30/spa-ledger/internal/http/middleware"
	"github.com/wolfman30/spa-ledger/internal/ledger"
	"github.com/wolfman30/spa-ledger/internal/observability/metrics"
	"github.com/wolfman30/spa-ledger/internal/period"
	"github.com/wolfman30/spa-ledger/internal/reports"
	"github.com/wolfman30/spa-ledger/internal/session"
	"github.com/wolfman30/spa-ledger/internal/telegram"
	"github.com/wolfman30/spa-ledger/pkg/logging"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting spa-ledger API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.StoreBackend,
	)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := bootstrap.BuildTabularStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open appointment store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	metricsHandler, ledgerMetrics, telegramMetrics := setupMetrics()
	clock := period.NewFixedOffsetClock(cfg.ClockUTCOffsetHours)
	svc := ledger.NewService(st, clock, logger, ledgerMetrics)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	sessions := bootstrap.BuildSessionStore(redisClient, cfg, logger)

	webhook, err := buildTelegramWebhook(cfg, svc, sessions, telegramMetrics, logger)
	if err != nil {
		logger.Error("failed to configure telegram", "error", err)
		os.Exit(1)
	}

	routerCfg := &router.Config{
		Logger:          logger,
		Reports:         reports.NewHandler(svc, logger),
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  metricsHandler,
		RateLimiter:     httpmiddleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst),
		ReadyChecks:     readyChecks(redisClient),
	}
	if webhook != nil {
		routerCfg.TelegramWebhook = webhook
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics builds a dedicated registry with the runtime collectors and
// the ledger and chat metrics.
func setupMetrics() (http.Handler, *metrics.LedgerMetrics, *metrics.TelegramMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return handler, metrics.NewLedgerMetrics(reg), metrics.NewTelegramMetrics(reg)
}

// buildTelegramWebhook returns nil when no bot token is configured.
func buildTelegramWebhook(cfg *appconfig.Config, svc *ledger.Service, sessions session.Store, m *metrics.TelegramMetrics, logger *logging.Logger) (*telegram.WebhookHandler, error) {
	if cfg.TelegramBotToken == "" {
		logger.Warn("TELEGRAM_BOT_TOKEN not set; chat webhook disabled")
		return nil, nil
	}
	client, err := telegram.NewClient(telegram.Config{
		Token:   cfg.TelegramBotToken,
		BaseURL: cfg.TelegramAPIBaseURL,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	if cfg.TelegramWebhookSecret == "" {
		logger.Warn("TELEGRAM_WEBHOOK_SECRET not set; webhook requests are not authenticated")
	}
	bot := telegram.NewBot(svc, client, logger)
	return telegram.NewWebhookHandler(bot, sessions, telegram.WebhookConfig{
		Secret:       cfg.TelegramWebhookSecret,
		AllowedChats: cfg.TelegramAllowedChats,
	}, m, logger), nil
}

func readyChecks(client *redis.Client) map[string]router.Pinger {
	if client == nil {
		return nil
	}
	return map[string]router.Pinger{
		"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}
}
