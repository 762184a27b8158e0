package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"workorder/internal/config"
	mongoRepo "workorder/internal/repository/mongo"
	psqlRepo "workorder/internal/repository/psql"
	mongoClient "workorder/pkg/client/mongo"
	"workorder/pkg/client/psql"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the indexes or tables the configured store needs",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			setupLogger(cfg)

			switch cfg.StoreDriver {
			case config.DriverMongo:
				client, db, err := mongoClient.NewMongoDB(ctx, mongoClient.Config{URI: cfg.MongoURI, Database: cfg.MongoDB})
				if err != nil {
					return err
				}
				defer client.Disconnect(context.Background())
				if err := mongoRepo.NewStore(db).EnsureIndexes(ctx); err != nil {
					return err
				}
			case config.DriverPostgres:
				db, err := psql.NewPostgresDB(psqlConfig(cfg))
				if err != nil {
					return err
				}
				if err := psqlRepo.AutoMigrate(db); err != nil {
					return err
				}
			default:
				log.Info().Str("driver", cfg.StoreDriver).Msg("nothing to migrate")
				return nil
			}

			log.Info().Str("driver", cfg.StoreDriver).Msg("migration complete")
			return nil
		},
	}
}
