package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scamwatch/threatcheck/internal/application"
	appanalysis "github.com/scamwatch/threatcheck/internal/application/analysis"
	"github.com/scamwatch/threatcheck/internal/config"
	domain "github.com/scamwatch/threatcheck/internal/domain/analysis"
	"github.com/scamwatch/threatcheck/internal/domain/heuristic"
	aiClient "github.com/scamwatch/threatcheck/internal/infra/ai/openai"
	mysqlp "github.com/scamwatch/threatcheck/internal/infra/db/mysql"
	postgresp "github.com/scamwatch/threatcheck/internal/infra/db/postgres"
	"github.com/scamwatch/threatcheck/internal/infra/httpserver"
	"github.com/scamwatch/threatcheck/internal/infra/providers/browser"
	"github.com/scamwatch/threatcheck/internal/infra/providers/deepscan"
	minioStore "github.com/scamwatch/threatcheck/internal/infra/storage"
	"github.com/scamwatch/threatcheck/internal/middleware"
	"github.com/scamwatch/threatcheck/internal/pkg/metrics"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.WithError(err).Fatal("config load error")
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}
	if cfg.Log.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{})
	}

	ctx := context.Background()

	// history store, driver chosen by config
	var (
		db          *sql.DB
		repo        domain.Repository
		stageErrors domain.StageErrorRepository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.WithError(err).Fatal("postgres connect error")
		}
		repo = postgresp.NewHistoryRepository(db)
		stageErrors = postgresp.NewStageErrorRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.WithError(err).Fatal("mysql connect error")
		}
		repo = mysqlp.NewHistoryRepository(db)
		stageErrors = mysqlp.NewStageErrorRepository(db)
	}
	defer db.Close()

	// screenshot store is optional
	var artifacts domain.ArtifactStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.WithError(err).Fatal("minio init error")
		}
		artifacts = store
	}

	svc := appanalysis.NewService(
		log,
		deepscan.New(deepscan.Config{
			BaseURL:      cfg.DeepScan.BaseURL,
			APIKey:       cfg.DeepScan.APIKey,
			PollInterval: cfg.DeepScanPollInterval(),
			MaxAttempts:  cfg.DeepScan.MaxAttempts,
		}, log),
		browser.New(browser.Config{
			Enabled:     cfg.Browser.Enabled,
			Timeout:     cfg.BrowserTimeout(),
			MaxSessions: cfg.Browser.MaxSessions,
		}, log),
		aiClient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model),
		heuristic.NewClassifier(nil),
		repo,
		stageErrors,
		artifacts,
		application.SystemClock{},
	)

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}
	if store, ok := artifacts.(*minioStore.Store); ok {
		checkers["object_store"] = middleware.CheckerFunc(store.Ping)
	}

	handler := httpserver.NewRouter(svc, log, httpserver.Options{
		APIKeys:        cfg.Auth.APIKeys,
		RateLimit:      cfg.RateLimit.RequestsPerMinute,
		Registry:       metrics.Register(),
		HealthCheckers: checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	// No write timeout: an analyze request can poll the deep-scan provider
	// for up to ten minutes before falling through.
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.WithError(err).Warn("shutdown error")
	}
}
