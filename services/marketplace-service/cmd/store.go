package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/config"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/handler"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository/memory"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository/postgres"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/storage"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/usecase"
)

type stores struct {
	users    repository.UserRepository
	products repository.ProductRepository
	pinger   repository.Pinger
	close    func()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case "mongo":
		client, err := repository.ConnectMongo(ctx, cfg.Store.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		db := client.Database(cfg.Store.MongoDatabase)

		return &stores{
			users:    repository.NewUserMongoRepository(ctx, logger, db),
			products: repository.NewProductMongoRepository(ctx, logger, db),
			pinger:   repository.NewMongoPinger(client),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Error().Err(err).Msg("failed to disconnect from mongo")
				}
			},
		}, nil

	case "postgres":
		if err := postgres.Migrate(ctx, cfg.Store.PostgresDSN); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		db, err := postgres.New(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		return &stores{
			users:    postgres.NewUserRepo(db),
			products: postgres.NewProductRepo(db),
			pinger:   db,
			close:    db.Close,
		}, nil

	case "memory":
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		store := memory.NewStore()

		return &stores{users: store, products: store, pinger: store, close: func() {}}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

type imageStore interface {
	usecase.ImageUploader
	handler.StorageInfoProvider
}

func openImageStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (imageStore, error) {
	if cfg.Storage.Bucket == "" {
		logger.Warn().Msg("S3_BUCKET is not set; image URLs are built but nothing is uploaded")
		return storage.NewURLImageStore("", cfg.Storage.PublicBaseURL), nil
	}

	return storage.NewS3ImageStore(ctx, storage.S3Options{
		Bucket:        cfg.Storage.Bucket,
		Region:        cfg.Storage.Region,
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
}
