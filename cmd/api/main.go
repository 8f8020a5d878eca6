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

	"github.com/go-market-triggers/internal/application/search"
	"github.com/go-market-triggers/internal/config"
	"github.com/go-market-triggers/internal/infrastructure/dynamo"
	"github.com/go-market-triggers/internal/infrastructure/httpclient"
	jwtinfra "github.com/go-market-triggers/internal/infrastructure/jwt"
	"github.com/go-market-triggers/internal/infrastructure/searchindex"
	secretsinfra "github.com/go-market-triggers/internal/infrastructure/secrets"
	"github.com/go-market-triggers/internal/infrastructure/translator"
	"github.com/go-market-triggers/internal/pkg/logging"
	transporthttp "github.com/go-market-triggers/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	if envErr != nil {
		logger.Info("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("aws config", "err", err)
		os.Exit(1)
	}
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	if cfg.AppEnv == "development" {
		// Creates missing tables, with streams on the watched ones.
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		logger.Error("jwt provider", "err", err)
		os.Exit(1)
	}

	providers := httpclient.New(cfg.ProviderTimeout)
	secrets := secretsinfra.Source(awsCfg, cfg)

	deps := &transporthttp.Deps{
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		TransactionRepo:  dynamo.NewTransactionRepo(dynamoClient, cfg.DynamoTables.Transactions),
		Listings:         dynamo.NewListingRepo(dynamoClient, cfg.DynamoTables.Listings),
		Index:            search.NewSynchronizer(searchindex.New(providers, cfg.SearchBaseURL, cfg.SearchIndex, secrets), logger),
		Translator:       translator.New(providers, cfg.TranslatorEndpoint),
		Secrets:          secrets,
		Verifier:         jwtProvider,
		Logger:           logger,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
