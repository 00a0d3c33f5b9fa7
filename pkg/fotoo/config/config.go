package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fotoo-app/fotoo/pkg/fotoo"
	"github.com/fotoo-app/fotoo/pkg/fotoo/queue"
	repomemory "github.com/fotoo-app/fotoo/pkg/fotoo/repo/memory"
	repopg "github.com/fotoo-app/fotoo/pkg/fotoo/repo/postgres"
	fsstorage "github.com/fotoo-app/fotoo/pkg/fotoo/storage/fs"
	memorystorage "github.com/fotoo-app/fotoo/pkg/fotoo/storage/memory"
	s3storage "github.com/fotoo-app/fotoo/pkg/fotoo/storage/s3"
	"github.com/fotoo-app/fotoo/pkg/fotoo/transcode"
)

// Config is the full environment-driven configuration shared by the API
// server and the processing worker.
type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	JWTSecret   string `env:"JWT_SECRET" env-default:""`

	Database   DatabaseConfig
	Storage    StorageConfig
	Transcode  TranscodeConfig
	QueueConf  QueueConfig
}

// DatabaseConfig selects the asset record store.
type DatabaseConfig struct {
	Type string `env:"DATABASE_TYPE" env-default:"memory"`
	URL  string `env:"DATABASE_URL" env-default:""`
}

// StorageConfig selects the blob backend.
type StorageConfig struct {
	Type      string `env:"STORAGE_TYPE" env-default:"memory"`
	BaseDir   string `env:"STORAGE_BASE_DIR" env-default:"./data/storage"`
	URLPrefix string `env:"STORAGE_URL_PREFIX" env-default:""`

	S3 S3Config
}

// S3Config mirrors the usual MinIO-compatible environment variables.
type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	Bucket          string `env:"AWS_S3_BUCKET" env-default:"fotoo"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	PresignDuration int    `env:"AWS_S3_PRESIGN_DURATION" env-default:"900"`
}

// TranscodeConfig selects the conversion strategy.
type TranscodeConfig struct {
	Strategy    string `env:"TRANSCODE_STRATEGY" env-default:"local"`
	FFmpegPath  string `env:"FFMPEG_PATH" env-default:""`
	HeicImage   string `env:"HEIC_DOCKER_IMAGE" env-default:""`
	FFmpegImage string `env:"FFMPEG_DOCKER_IMAGE" env-default:""`
}

// QueueConfig selects the job transport.
type QueueConfig struct {
	Type        string `env:"QUEUE_TYPE" env-default:"memory"`
	NatsURL     string `env:"NATS_URL" env-default:"nats://localhost:4222"`
	Subject     string `env:"QUEUE_SUBJECT" env-default:"fotoo.process"`
	Group       string `env:"QUEUE_GROUP" env-default:"fotoo-workers"`
	Workers     int    `env:"QUEUE_WORKERS" env-default:"2"`
	MaxAttempts int    `env:"QUEUE_MAX_ATTEMPTS" env-default:"3"`
	BaseDelayMS int    `env:"QUEUE_BASE_DELAY_MS" env-default:"5000"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.Database.Type != "memory" && c.Database.Type != "postgres" {
		return errors.New("DATABASE_TYPE must be 'memory' or 'postgres'")
	}
	if c.Database.Type == "postgres" && c.Database.URL == "" {
		return errors.New("DATABASE_URL is required when using postgres")
	}
	switch c.Storage.Type {
	case "memory", "fs":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("AWS_S3_BUCKET is required when using s3 storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE: %s", c.Storage.Type)
	}
	if c.Transcode.Strategy != "local" && c.Transcode.Strategy != "docker" {
		return fmt.Errorf("unsupported TRANSCODE_STRATEGY: %s", c.Transcode.Strategy)
	}
	if c.QueueConf.Type != "memory" && c.QueueConf.Type != "nats" {
		return fmt.Errorf("unsupported QUEUE_TYPE: %s", c.QueueConf.Type)
	}
	return nil
}

// RetryPolicy builds the retry policy shared by both queue transports.
func (c *Config) RetryPolicy() queue.RetryPolicy {
	return queue.RetryPolicy{
		MaxAttempts: c.QueueConf.MaxAttempts,
		BaseDelay:   time.Duration(c.QueueConf.BaseDelayMS) * time.Millisecond,
	}
}

// BuildRepository creates the asset record store from the configuration.
func (c *Config) BuildRepository(ctx context.Context) (fotoo.AssetRepository, error) {
	switch c.Database.Type {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
}

// BuildBlobStore creates the blob backend from the configuration.
func (c *Config) BuildBlobStore() (fotoo.BlobStore, error) {
	switch c.Storage.Type {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.Storage.BaseDir,
			URLPrefix: c.Storage.URLPrefix,
		})
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:          c.Storage.S3.Region,
			Bucket:          c.Storage.S3.Bucket,
			AccessKeyID:     c.Storage.S3.AccessKeyID,
			SecretAccessKey: c.Storage.S3.SecretAccessKey,
			Endpoint:        c.Storage.S3.Endpoint,
			UsePathStyle:    c.Storage.S3.UsePathStyle,
			PresignDuration: c.Storage.S3.PresignDuration,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
}

// BuildTranscoder creates the conversion backend from the configuration.
func (c *Config) BuildTranscoder() (transcode.Transcoder, error) {
	switch c.Transcode.Strategy {
	case "local":
		t := transcode.NewLocal()
		if c.Transcode.FFmpegPath != "" {
			t.FFmpegPath = c.Transcode.FFmpegPath
		}
		return t, nil
	case "docker":
		t := transcode.NewDocker()
		if c.Transcode.HeicImage != "" {
			t.HeicImage = c.Transcode.HeicImage
		}
		if c.Transcode.FFmpegImage != "" {
			t.FFmpegImage = c.Transcode.FFmpegImage
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported transcode strategy: %s", c.Transcode.Strategy)
	}
}

// BuildService wires the asset service for the API server. The queue is
// passed in so the caller controls its lifecycle.
func (c *Config) BuildService(repo fotoo.AssetRepository, store fotoo.BlobStore, q fotoo.Enqueuer, logger *slog.Logger) (fotoo.Service, error) {
	return fotoo.NewService(
		fotoo.WithAssetRepository(repo),
		fotoo.WithStorage(store),
		fotoo.WithQueue(q),
		fotoo.WithBucket(c.Storage.S3.Bucket),
		fotoo.WithServiceLogger(logger),
	)
}

// BuildProcessor wires the processing pipeline for the worker.
func (c *Config) BuildProcessor(repo fotoo.AssetRepository, store fotoo.BlobStore, logger *slog.Logger) (*fotoo.Processor, error) {
	transcoder, err := c.BuildTranscoder()
	if err != nil {
		return nil, err
	}
	return fotoo.NewProcessor(
		fotoo.WithRepository(repo),
		fotoo.WithBlobStore(store),
		fotoo.WithTranscoder(transcoder),
		fotoo.WithLogger(logger),
	)
}
