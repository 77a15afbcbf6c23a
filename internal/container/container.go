package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"defect-inspector/config"
	app "defect-inspector/internal/application"
	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/port"
	"defect-inspector/internal/infrastructure/storage"
	"defect-inspector/internal/infrastructure/vision"
)

type Container struct {
	Config      *config.Config
	Log         *slog.Logger
	Blobs       port.BlobStore
	Loader      *vision.Loader
	Detector    *app.Detector
	UserService *app.UserService
}

// New собирает сервисы приложения по конфигурации.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Container, error) {
	extractor, err := vision.NewExtractor(cfg.Extractor, cfg.HistogramBins)
	if err != nil {
		return nil, err
	}

	blobs, err := OpenBlobStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	detector := app.NewDetector(
		extractor,
		storage.NewSampleRepository(blobs, log),
		storage.NewModelRepository(blobs),
		app.DetectorOptions{Trees: cfg.ForestTrees, Seed: cfg.ForestSeed},
		log,
	)

	return &Container{
		Config:      cfg,
		Log:         log,
		Blobs:       blobs,
		Loader:      vision.NewLoader(),
		Detector:    detector,
		UserService: app.NewUserService(storage.NewMemoryUserRepository()),
	}, nil
}

// Close освобождает соединения хранилища.
func (c *Container) Close() error {
	return c.Blobs.Close()
}

// OpenBlobStore открывает хранилище блобов выбранного бэкенда.
func OpenBlobStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (port.BlobStore, error) {
	switch cfg.StoreBackend {
	case config.BackendFile, "":
		return storage.NewFileBlobStore(cfg.DataDir), nil

	case config.BackendSQLite:
		s, err := storage.OpenSQLiteBlobStore(cfg.SQLitePath)
		if err != nil {
			return nil, &domain.IOError{Op: "open store", Path: cfg.SQLitePath, Err: err}
		}
		return s, nil

	case config.BackendPostgres:
		s, err := storage.NewPostgresBlobStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, &domain.IOError{Op: "open store", Err: fmt.Errorf("failed to connect to database: %w", err)}
		}
		return s, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Error("Redis connection failed", "address", cfg.RedisAddr, "error", err)
			_ = client.Close()
			return nil, &domain.IOError{Op: "open store", Path: cfg.RedisAddr, Err: err}
		}
		log.Debug("Redis connection successful", "address", cfg.RedisAddr)
		return storage.NewRedisBlobStore(client, "defectd"), nil

	default:
		return nil, domain.InvalidCommand("unknown store backend %q", cfg.StoreBackend)
	}
}
