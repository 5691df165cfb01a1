package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/startera/internal/chat"
	"github.com/startera/internal/cleanup"
	"github.com/startera/internal/config"
	"github.com/startera/internal/constants"
	"github.com/startera/internal/db"
	"github.com/startera/internal/domain"
	"github.com/startera/internal/http"
	"github.com/startera/internal/httpclient"
	"github.com/startera/internal/jobs"
	"github.com/startera/internal/logger"
	"github.com/startera/internal/mail"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet; fall back to a production logger
		logger.InitLogger("production", os.Stderr).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	appLogger := logger.InitLogger(cfg.Environment, nil)
	appLogger.Info("server configuration loaded",
		"environment", cfg.Environment,
		"address", cfg.ServerAddress,
		"database", cfg.DatabasePath,
		"auto_verify", cfg.Auth.AutoVerify,
		"mail_enabled", cfg.Mail.Enabled(),
		"chat_enabled", cfg.Chat.APIKey != "",
	)
	if err := cfg.Validate(); err != nil {
		appLogger.Error("refusing to start", "error", err)
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		appLogger.Warn("JWT_SECRET is not set; using the built-in development secret")
	}

	database, err := db.Init(cfg.DatabasePath)
	if err != nil {
		appLogger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if users, err := database.CountUsers(); err == nil {
		appLogger.Info("database ready", "users", users)
	}

	var responder domain.ChatResponder
	if cfg.Chat.APIKey != "" {
		gemini := chat.NewGeminiResponder(cfg.Chat.APIKey, cfg.Chat.Model, httpclient.NewRealHTTPClient(constants.ChatResponderTimeout), appLogger)
		responder = chat.NewBreakerResponder(gemini, cfg.Chat.Model, appLogger)
	} else {
		appLogger.Warn("GOOGLE_API_KEY not set; chat replies will report a missing key")
	}

	cleanupManager := cleanup.NewCleanupManager(database, cfg.Cleanup.UnverifiedAccountTTL, appLogger)
	scheduler, err := cleanup.NewScheduler(cleanupManager, cfg.Cleanup.Schedule, appLogger)
	if err != nil {
		appLogger.Error("failed to create cleanup scheduler", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	// verification mail is queued by the API and delivered by the worker
	processor := jobs.NewProcessor(database, mail.New(cfg.Mail, appLogger), appLogger)
	worker := jobs.NewWorker(processor, database, constants.JobWorkerPollInterval, appLogger)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		worker.Start(workerCtx)
		close(workerDone)
	}()

	server := http.NewServer(cfg, database, jobs.NewMailQueue(database, appLogger), responder)

	go func() {
		appLogger.Info("server listening", "address", cfg.ServerAddress)
		if err := server.Run(); err != nil {
			appLogger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("server shutdown error", "error", err)
	}
	scheduler.Stop(ctx)

	stopWorker()
	select {
	case <-workerDone:
	case <-ctx.Done():
		appLogger.Warn("job worker did not stop before the shutdown deadline")
	}
	appLogger.Info("server stopped")
}
