//	@title			Postboard API
//	@version		1.0
//	@description	Image uploads for user-authored posts.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/postboard/service/docs/swagger"
	"github.com/postboard/service/internal/config"
	"github.com/postboard/service/internal/db"
	"github.com/postboard/service/internal/logger"
	"github.com/postboard/service/internal/naming"
	"github.com/postboard/service/internal/post"
	"github.com/postboard/service/internal/storage"
	"github.com/postboard/service/internal/upload"
)

func main() {
	cfg := config.Load()
	logger.Init(!cfg.IsProduction(), cfg.SentryDSN)

	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}

	ctx := context.Background()

	// The upload directory must exist before the first request.
	store, err := storage.NewDiskStore(cfg.UploadDir, naming.MaxImageSize)
	if err != nil {
		fatal("upload directory init failed", err)
	}
	slog.Info("upload directory ready", "path", store.Root())

	presigner, err := newPresigner(ctx, cfg)
	if err != nil {
		fatal("object storage init failed", err)
	}

	// Wire dependencies: store → service → handler
	uploadHandler := upload.NewHandler(upload.NewService(store, presigner, cfg.PresignExpiry))

	var postHandler *post.Handler
	if cfg.PostsEnabled() {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			fatal("database connection failed", err)
		}
		defer pool.Close()

		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			fatal("database migration failed", err)
		}
		postHandler = post.NewHandler(post.NewService(post.NewRepository(pool)))
	} else {
		slog.Warn("DATABASE_URL not set, posts API disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg.JWTSecret, uploadHandler, postHandler),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv, "storage_driver", cfg.StorageDriver)
		slog.Info("swagger UI available", "url", "http://localhost:"+cfg.Port+"/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	<-quit
	slog.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func newPresigner(ctx context.Context, cfg *config.Config) (storage.Presigner, error) {
	if cfg.StorageDriver == config.DriverMinio {
		p, err := storage.NewMinioPresigner(storage.MinioConfig{
			Endpoint:  cfg.StorageEndpoint,
			Region:    cfg.StorageRegion,
			Bucket:    cfg.StorageBucket,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			UseSSL:    cfg.StorageUseSSL,
		})
		if err != nil {
			return nil, err
		}
		if cfg.StorageEnsureBucket {
			if err := p.EnsureBucket(ctx, naming.PostsPrefix); err != nil {
				return nil, err
			}
		}
		return p, nil
	}

	return storage.NewS3Presigner(ctx, storage.S3Config{
		Region:    cfg.StorageRegion,
		Bucket:    cfg.StorageBucket,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Endpoint:  cfg.StorageEndpoint,
	})
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
