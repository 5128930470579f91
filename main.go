// forum-backend/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Desi451/forum-backend/auth"
	"github.com/Desi451/forum-backend/config"
	"github.com/Desi451/forum-backend/database"
	"github.com/Desi451/forum-backend/handlers"
	"github.com/Desi451/forum-backend/models"
	"github.com/Desi451/forum-backend/utils"
	"github.com/Desi451/forum-backend/workers"
)

type Application struct {
	db        *database.DatabaseService
	logger    *slog.Logger
	tokens    *auth.TokenService
	urls      *utils.URLResolver
	uploadDir string
}

// Methods to satisfy the handlers.App interface
func (a *Application) DB() *database.DatabaseService { return a.db }
func (a *Application) Logger() *slog.Logger          { return a.logger }
func (a *Application) Tokens() *auth.TokenService    { return a.tokens }
func (a *Application) URLs() *utils.URLResolver      { return a.urls }
func (a *Application) UploadDir() string             { return a.uploadDir }

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Could not load .env file", "error", err)
	}

	// --- External Configuration ---
	port := utils.GetEnv("FORUM_PORT", "8080")
	dbPath := utils.GetEnv("FORUM_DB_PATH", "./forum.db?_journal_mode=WAL&_foreign_keys=on")
	host := utils.GetEnv("FORUM_HOST", "http://localhost:"+port)
	uploadDir := utils.GetEnv("FORUM_UPLOAD_DIR", "./uploads")

	jwtKey := os.Getenv("FORUM_JWT_KEY")
	if jwtKey == "" {
		logger.Error("FATAL: FORUM_JWT_KEY is not set")
		os.Exit(1)
	}

	unbanInterval, err := time.ParseDuration(utils.GetEnv("FORUM_UNBAN_INTERVAL", config.DefaultUnbanInterval.String()))
	if err != nil {
		logger.Warn("Invalid FORUM_UNBAN_INTERVAL duration, using default",
			"value", utils.GetEnv("FORUM_UNBAN_INTERVAL", ""), "default", config.DefaultUnbanInterval.String())
		unbanInterval = config.DefaultUnbanInterval
	}
	tokenExpiration, err := time.ParseDuration(utils.GetEnv("FORUM_TOKEN_EXPIRATION", config.DefaultTokenExpiration.String()))
	if err != nil {
		logger.Warn("Invalid FORUM_TOKEN_EXPIRATION duration, using default",
			"value", utils.GetEnv("FORUM_TOKEN_EXPIRATION", ""), "default", config.DefaultTokenExpiration.String())
		tokenExpiration = config.DefaultTokenExpiration
	}

	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Error("FATAL: Could not create uploads directory", "path", uploadDir, "error", err)
		os.Exit(1)
	}

	// --- Storage Service Init ---
	var storageService models.StorageService
	if utils.GetEnv("FORUM_S3_ENABLED", "false") == "true" {
		endpoint := utils.GetEnv("FORUM_S3_ENDPOINT", "")
		accessKey := utils.GetEnv("FORUM_S3_ACCESS_KEY", "")
		secretKey := utils.GetEnv("FORUM_S3_SECRET_KEY", "")
		bucket := utils.GetEnv("FORUM_S3_BUCKET", "")
		region := utils.GetEnv("FORUM_S3_REGION", "us-east-1")
		publicURL := utils.GetEnv("FORUM_S3_PUBLIC_URL", "")
		useSSL := utils.GetEnv("FORUM_S3_USE_SSL", "true") == "true"

		storageService, err = utils.NewS3Storage(endpoint, accessKey, secretKey, bucket, region, publicURL, useSSL)
		if err != nil {
			logger.Error("Failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		logger.Info("S3 Storage initialized", "endpoint", endpoint, "bucket", bucket)
	} else {
		storageService = &utils.LocalStorage{UploadDir: uploadDir}
		logger.Info("Local Storage initialized", "dir", uploadDir)
	}

	urls := utils.NewURLResolver(host)

	dbService, err := database.InitDB(dbPath, logger, storageService, urls)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbService.DB.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	app := &Application{
		db:        dbService,
		logger:    logger,
		tokens:    auth.NewTokenService(jwtKey, "forum-backend", tokenExpiration),
		urls:      urls,
		uploadDir: uploadDir,
	}

	// --- Background Workers ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	unbanWorker := workers.NewUnbanWorker(dbService, logger, unbanInterval)
	go unbanWorker.Run(workerCtx)

	mux := handlers.SetupRouter(app)

	// --- Graceful Shutdown ---
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Forum server started successfully",
		"version", config.AppVersion,
		"address", "http://localhost:"+port,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exiting")
}
