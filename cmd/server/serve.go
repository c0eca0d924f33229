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

	"linkmart/internal/auth"
	"linkmart/internal/handler"
	"linkmart/internal/infrastructure/boostpanel"
	"linkmart/internal/infrastructure/cache"
	"linkmart/internal/infrastructure/database"
	"linkmart/internal/infrastructure/logging"
	"linkmart/internal/infrastructure/mailer"
	"linkmart/internal/infrastructure/mq"
	"linkmart/internal/infrastructure/paystack"
	"linkmart/internal/job"
	"linkmart/internal/service"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background jobs",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "migrate the schema before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log := logging.Component("server")

	if autoMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(&cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	var publisher mq.Publisher = mq.LogPublisher{}
	if cfg.Kafka.Enabled {
		kafka, err := mq.NewKafkaPublisher(&cfg.Kafka)
		if err != nil {
			return err
		}
		publisher = kafka
	}
	defer publisher.Close()

	tokens, err := auth.NewTokenIssuer(&cfg.JWT)
	if err != nil {
		return err
	}
	gateway := paystack.NewClient(&cfg.Paystack)
	provider := boostpanel.NewClient(&cfg.BoostPanel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxSender := job.NewOutboxSender(db, cfg, publisher)
	go outboxSender.Start(ctx)

	scheduler, err := job.NewScheduler(cfg,
		service.NewDepositService(db, redisClient, cfg, gateway),
		service.NewBoostService(db, redisClient, cfg, provider),
	)
	if err != nil {
		return err
	}
	scheduler.Start()

	router := handler.SetupRouter(handler.Dependencies{
		DB:       db,
		Redis:    redisClient,
		Config:   cfg,
		Tokens:   tokens,
		Hasher:   auth.NewPasswordHasher(bcrypt.DefaultCost),
		Gateway:  gateway,
		Provider: provider,
		Notifier: mailer.New(&cfg.Mail),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serveErr:
		log.WithError(err).Error("http server failed")
		cancel()
		return err
	}

	cancel()
	outboxSender.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}
	scheduler.Stop(shutdownCtx)

	log.Info("server stopped")
	return nil
}
