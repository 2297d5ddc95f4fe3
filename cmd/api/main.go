package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yudhapratama/code-review-api/internal/application"
	appreviews "github.com/yudhapratama/code-review-api/internal/application/reviews"
	"github.com/yudhapratama/code-review-api/internal/config"
	domain "github.com/yudhapratama/code-review-api/internal/domain/reviews"
	aiclient "github.com/yudhapratama/code-review-api/internal/infra/ai/openai"
	mysqlp "github.com/yudhapratama/code-review-api/internal/infra/db/mysql"
	postgresp "github.com/yudhapratama/code-review-api/internal/infra/db/postgres"
	"github.com/yudhapratama/code-review-api/internal/infra/httpserver"
	minioStore "github.com/yudhapratama/code-review-api/internal/infra/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("config load error", zap.Error(err))
	}

	// the completion provider is unusable without its key, so refuse to start
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		logger.Fatal("OPENROUTER_API_KEY not set. Ensure it is in your .env file.")
	}

	ctx := context.Background()

	var pool *sql.DB
	var repo domain.Repository

	switch cfg.Database.Driver {
	case "mysql":
		pool, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Fatal("mysql connect error", zap.Error(err))
		}
		r := mysqlp.NewReportRepository(pool)
		if err := r.EnsureSchema(ctx); err != nil {
			logger.Fatal("schema init error", zap.Error(err))
		}
		repo = r
	case "postgres":
		pool, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatal("postgres connect error", zap.Error(err))
		}
		r := postgresp.NewReportRepository(pool)
		if err := r.EnsureSchema(ctx); err != nil {
			logger.Fatal("schema init error", zap.Error(err))
		}
		repo = r
	default:
		logger.Fatal("unsupported database driver", zap.String("driver", cfg.Database.Driver))
	}
	defer pool.Close()

	// source archival is optional; reviews work the same without it
	var archive domain.ArchiveStore
	if cfg.Archive.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Archive.Endpoint,
			cfg.Archive.Region,
			cfg.Archive.BucketName,
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			cfg.Archive.UseSSL,
		)
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
		archive = store
	}

	svc := &appreviews.Service{
		Repo:    repo,
		AI:      aiclient.NewClient(apiKey, cfg.AI.BaseURL, cfg.AI.Model),
		Archive: archive,
		Clock:   application.SystemClock{},
		Log:     logger,
	}

	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, pool, cfg.Server.AllowedOrigins, logger))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // must outlive a slow model round-trip
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
