package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"workorder/internal/config"
	v1 "workorder/internal/controller/http/v1"
	"workorder/internal/domain/usecase"
	"workorder/internal/repository/rabbitmq"
	"workorder/internal/repository/redis"
	"workorder/internal/repository/s3"
	"workorder/internal/repository/vpic"
	redisClient "workorder/pkg/client/redis"
	s3Client "workorder/pkg/client/s3"
	"workorder/pkg/middleware"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the work order HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Sources: cli.EnvVars("HTTP_ADDR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if v := cmd.String("addr"); v != "" {
				cfg.HTTPAddr = v
			}
			setupLogger(cfg)
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	var events usecase.EventSink
	if cfg.RabbitMQURL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer conn.Close()

		publisher, err := rabbitmq.NewRabbitPublisher(conn, rabbitmq.DefaultExchange)
		if err != nil {
			return fmt.Errorf("init publisher: %w", err)
		}
		defer publisher.Close()

		notifier := usecase.NewNotifier(publisher, 256)
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := notifier.Close(drainCtx); err != nil {
				log.Warn().Err(err).Msg("event queue not drained")
			}
		}()
		events = notifier
	} else {
		log.Info().Msg("RABBITMQ_URL not set, domain events disabled")
	}

	var (
		rdb   *goredis.Client
		cache usecase.VehicleCache
	)
	if cfg.RedisAddr != "" {
		rdb, err = redisClient.NewRedisClient(ctx, redisClient.Config{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache = redis.NewRedisRepo(rdb, cfg.VINCacheTTL)
	}

	var storage usecase.MediaStorage
	if cfg.S3Host != "" {
		st, err := s3Client.NewS3Client(ctx, s3Client.Config{
			Endpoint:  cfg.S3Host,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return err
		}
		storage = s3.NewS3Repo(st)
	} else {
		log.Info().Msg("S3_HOST not set, media uploads disabled")
	}

	vehicles := usecase.NewVehicleUseCase(vpic.NewClient(cfg.VPICBaseURL, cfg.VPICTimeout, nil), cache)
	jobs := usecase.NewJobUseCase(store, vehicles, events, cfg.JobStatusAllowlist)
	media := usecase.NewMediaUseCase(storage, jobs)
	customers := usecase.NewCustomerUseCase(store)
	technicians := usecase.NewTechnicianUseCase(store)

	mw := []gin.HandlerFunc{middleware.RequestLogger()}
	if rdb != nil {
		mw = append(mw, middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RedisClient: rdb,
			Limit:       cfg.RateLimit,
			Window:      cfg.RateLimitWindow,
			KeyPrefix:   "rl:",
		}))
	}

	router := v1.NewRouter(
		v1.NewJobHandler(jobs, media),
		v1.NewDirectoryHandler(customers, technicians, vehicles),
		mw...,
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	return nil
}
