package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"workorder/internal/config"
	"workorder/internal/domain/entity"
	"workorder/internal/repository/rabbitmq"
)

func eventsCmd() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Log domain events published to the work order exchange",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "binding",
				Usage: "Topic binding key, e.g. step.* or job.created",
				Value: "#",
			},
			&cli.StringFlag{
				Name:  "queue",
				Usage: "Durable queue name; empty uses a temporary exclusive queue",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			setupLogger(cfg)
			if cfg.RabbitMQURL == "" {
				return fmt.Errorf("RABBITMQ_URL is required")
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conn, err := amqp.Dial(cfg.RabbitMQURL)
			if err != nil {
				return fmt.Errorf("connect rabbitmq: %w", err)
			}
			defer conn.Close()

			consumer, err := rabbitmq.NewEventConsumer(conn, rabbitmq.DefaultExchange, cmd.String("binding"), cmd.String("queue"), logEvent)
			if err != nil {
				return fmt.Errorf("init consumer: %w", err)
			}
			defer consumer.Close()

			log.Info().Str("binding", cmd.String("binding")).Msg("listening for events")
			return consumer.Start(ctx)
		},
	}
}

func logEvent(ctx context.Context, e entity.Event) error {
	ev := log.Info().
		Str("event", string(e.Type)).
		Str("job_id", e.JobID).
		Time("at", e.At)
	if e.TaskID != "" {
		ev = ev.Str("task_id", e.TaskID)
	}
	if e.StepID != "" {
		ev = ev.Str("step_id", e.StepID)
	}
	if len(e.Data) > 0 {
		ev = ev.Interface("data", e.Data)
	}
	ev.Msg("event")
	return nil
}
