package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"workorder/internal/config"
	"workorder/internal/domain/usecase"
	"workorder/internal/repository/memory"
	mongoRepo "workorder/internal/repository/mongo"
	psqlRepo "workorder/internal/repository/psql"
	mongoClient "workorder/pkg/client/mongo"
	"workorder/pkg/client/psql"
)

// openStore connects the configured document store. The returned close
// function releases the connection.
func openStore(ctx context.Context, cfg *config.Config) (usecase.DocumentStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongoClient.NewMongoDB(ctx, mongoClient.Config{URI: cfg.MongoURI, Database: cfg.MongoDB})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		}
		return mongoRepo.NewStore(db), closeFn, nil

	case config.DriverPostgres:
		db, err := psql.NewPostgresDB(psqlConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return psqlRepo.NewGormDocumentStore(db), closeFn, nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func psqlConfig(cfg *config.Config) psql.Config {
	return psql.Config{
		Host:     cfg.PSQLHost,
		User:     cfg.PSQLUser,
		Password: cfg.PSQLPassword,
		DBName:   cfg.PSQLDBName,
		Port:     cfg.PSQLPort,
		SslMode:  cfg.PSQLSSLMode,
	}
}
