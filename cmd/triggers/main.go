package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-chi/chi/v5"
	"github.com/go-market-triggers/internal/application/notification"
	"github.com/go-market-triggers/internal/application/reaction"
	"github.com/go-market-triggers/internal/application/search"
	"github.com/go-market-triggers/internal/config"
	"github.com/go-market-triggers/internal/infrastructure/dynamo"
	"github.com/go-market-triggers/internal/infrastructure/fcm"
	"github.com/go-market-triggers/internal/infrastructure/httpclient"
	s3infra "github.com/go-market-triggers/internal/infrastructure/s3"
	"github.com/go-market-triggers/internal/infrastructure/searchindex"
	secretsinfra "github.com/go-market-triggers/internal/infrastructure/secrets"
	"github.com/go-market-triggers/internal/infrastructure/sns"
	"github.com/go-market-triggers/internal/pkg/logging"
	"github.com/go-market-triggers/internal/transport/stream"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
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

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("triggers stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("triggers stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return err
	}
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	streamsClient := dynamo.NewStreamsClient(awsCfg, cfg)
	if cfg.AppEnv == "development" {
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	}

	push, err := newPushSender(ctx, cfg, awsCfg, logger)
	if err != nil {
		return err
	}

	users := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	dispatcher := notification.NewDispatcher(users, push, cfg.FanOutLimit, logger)
	index := searchindex.New(httpclient.New(cfg.ProviderTimeout), cfg.SearchBaseURL, cfg.SearchIndex, secretsinfra.Source(awsCfg, cfg))

	handlers := reaction.NewHandlers(reaction.Stores{
		Listings:      dynamo.NewListingRepo(dynamoClient, cfg.DynamoTables.Listings),
		Conversations: dynamo.NewConversationRepo(dynamoClient, cfg.DynamoTables.Conversations),
		Wishlists:     dynamo.NewWishlistRepo(dynamoClient, cfg.DynamoTables.Wishlists),
		Users:         users,
		Notifications: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
	}, dispatcher, search.NewSynchronizer(index, logger), logger)

	deadLetter := stream.NewObjectDeadLetter(
		s3infra.NewStore(s3infra.NewClient(awsCfg, cfg), cfg.DeadLetterBucket),
		cfg.DeadLetterPrefix,
	)
	opts := stream.Options{
		PollInterval:    cfg.StreamPollInterval,
		MaxAttempts:     cfg.StreamMaxAttempts,
		RetryBackoff:    cfg.StreamRetryBackoff,
		StartFromOldest: cfg.StreamFromOldest,
	}
	routes := map[string]stream.Handler{
		cfg.DynamoTables.Messages:  stream.MessagesHandler(handlers),
		cfg.DynamoTables.Wishlists: stream.WishlistsHandler(handlers),
		cfg.DynamoTables.Listings:  stream.ListingsHandler(handlers),
	}

	g, gctx := errgroup.WithContext(ctx)
	for table, handle := range routes {
		arn, err := stream.LatestStreamARN(gctx, dynamoClient, table)
		if err != nil {
			return err
		}
		poller := stream.NewPoller(streamsClient, table, arn, handle, deadLetter, opts, logger.With("table", table))
		logger.Info("watching table", "table", table, "stream", arn)
		g.Go(func() error { return poller.Run(gctx) })
	}
	g.Go(func() error { return serveMetrics(gctx, cfg.MetricsPort, logger) })

	return g.Wait()
}

func newPushSender(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) (notification.PushSender, error) {
	switch cfg.PushProvider {
	case "fcm":
		return fcm.NewClient(ctx, cfg.FirebaseCredentials, logger)
	case "sns":
		return sns.NewPushSender(sns.NewClient(awsCfg, cfg.SNSRegion)), nil
	default:
		return nil, fmt.Errorf("unknown PUSH_PROVIDER %q", cfg.PushProvider)
	}
}

func serveMetrics(ctx context.Context, port string, logger *slog.Logger) error {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	srv := &http.Server{Addr: fmt.Sprintf(":%s", port), Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
