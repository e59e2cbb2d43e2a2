package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/blog-newsletter/config"
	"github.com/ErlanBelekov/blog-newsletter/internal/email"
	"github.com/ErlanBelekov/blog-newsletter/internal/health"
	"github.com/ErlanBelekov/blog-newsletter/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/blog-newsletter/internal/log"
	"github.com/ErlanBelekov/blog-newsletter/internal/metrics"
	"github.com/ErlanBelekov/blog-newsletter/internal/scheduler"
	httptransport "github.com/ErlanBelekov/blog-newsletter/internal/transport/http"
	"github.com/ErlanBelekov/blog-newsletter/internal/transport/http/handler"
	"github.com/ErlanBelekov/blog-newsletter/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/resend/resend-go/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(cfg.Env, cfg.SlogLevel(), os.Stdout)

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers := make(map[string]handler.Subscriber)
	deps := make(map[string]health.Pinger)

	switch cfg.Provider {
	case config.ProviderPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			stop()
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()
		deps["postgres"] = pool

		subscriberRepo := postgres.NewSubscriberRepository(pool)
		sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
		subscriptions := usecase.NewSubscriptionUsecase(subscriberRepo, sender, usecase.SubscriptionConfig{
			JWTKey:         []byte(cfg.ConfirmSecret),
			ConfirmTTL:     cfg.ConfirmTTL(),
			ConfirmBaseURL: cfg.ConfirmBaseURL,
			Provider:       cfg.Provider,
			BlogName:       cfg.BlogName,
			RequireConsent: cfg.RequireConsent,
		})
		providers[cfg.Provider] = subscriptions

		pruner, err := scheduler.NewPruner(subscriberRepo, logger, cfg.PruneSchedule, subscriptions.ConfirmTTL())
		if err != nil {
			stop()
			log.Fatalf("pruner: %v", err)
		}
		go pruner.Start(ctx)

	case config.ProviderResend:
		client := resend.NewClient(cfg.ResendAPIKey)
		providers[cfg.Provider] = usecase.NewResendAudience(client, cfg.ResendAudienceID, cfg.RequireConsent)
	}

	metrics.Register(prometheus.DefaultRegisterer)
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer, deps)

	subscribeHandler := handler.NewSubscribeHandler(providers, logger)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httptransport.NewRouter(logger, subscribeHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "provider", cfg.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

