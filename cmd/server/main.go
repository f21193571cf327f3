package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/josdesi/bulkmail/internal/api"
	"github.com/josdesi/bulkmail/internal/config"
	"github.com/josdesi/bulkmail/internal/pkg/logger"
	"github.com/josdesi/bulkmail/internal/repository/postgres"
	"github.com/josdesi/bulkmail/internal/sendgrid"
	"github.com/josdesi/bulkmail/internal/service/bulkemail"
	"github.com/josdesi/bulkmail/internal/settings"
	"github.com/josdesi/bulkmail/internal/storage"
	"github.com/josdesi/bulkmail/internal/validation"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("loading config", "error", err.Error())
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("opening database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		logger.Error("pinging database", "error", err.Error())
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	blobs, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		logger.Error("creating blob store", "error", err.Error())
		os.Exit(1)
	}

	var verifier bulkemail.EmailVerifier
	if cfg.Validation.Enabled {
		verifier = validation.NewClient(cfg.Validation)
	}

	settingsStore := settings.NewStore(rdb)
	svc := bulkemail.NewService(
		postgres.NewDirectoryRepo(db),
		postgres.NewOptOutRepo(db),
		verifier,
		settingsStore,
		blobs,
		sendgrid.NewClient(cfg.SendGrid),
		bulkemail.Options{
			UnsubscribeBaseURL: cfg.BulkEmail.UnsubscribeBaseURL,
			UnsubscribeGroupID: cfg.SendGrid.UnsubscribeGroupID,
			EnvOrigin:          cfg.BulkEmail.EnvOrigin,
		},
	)

	router := api.SetupRoutes(api.NewHandlers(svc, settingsStore), cfg.Server.AllowedOrigins)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // bulk sends hold the request open across chunks
	}

	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err.Error())
	}
}
