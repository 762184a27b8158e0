package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	if err := app().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("application failed")
	}
}

func app() *cli.Command {
	return &cli.Command{
		Name:    "workorder",
		Version: version,
		Usage:   "Automotive repair work orders: jobs, tasks, steps and their media",
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			eventsCmd(),
		},
	}
}
