package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/ideahub/ideahub-api/internal/auth/token"
	"github.com/ideahub/ideahub-api/internal/cache"
	"github.com/ideahub/ideahub-api/internal/config"
	"github.com/ideahub/ideahub-api/internal/database"
	"github.com/ideahub/ideahub-api/internal/modules/auth"
	"github.com/ideahub/ideahub-api/internal/notification"
	"github.com/ideahub/ideahub-api/internal/notification/templates"
	"github.com/ideahub/ideahub-api/internal/server"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on" short:"p" default:"8080"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		cfg := config.Load()
		if cfg == nil {
			logger.Error("failed to load configuration")
			os.Exit(1)
		}
		logger.Info("configuration loaded successfully", "env", cfg.Server.Env)

		// --- Database & Cache ---
		dbPool := database.NewPostgresPool(cfg.Database.URL)
		if dbPool == nil {
			logger.Error("failed to connect to postgres")
			os.Exit(1)
		}
		hooks.OnStop(dbPool.Close)
		logger.Info("successfully connected to postgres database")

		redisClient := cache.NewRedisClient(cfg.Redis.URL)
		if redisClient == nil {
			logger.Error("failed to connect to redis")
			os.Exit(1)
		}
		hooks.OnStop(func() { redisClient.Close() })
		logger.Info("successfully connected to redis")

		// --- Shared Services ---
		tokens := token.NewManager(token.Config{
			SigningKey: []byte(cfg.Auth.JWTSecret),
			VerifyKeys: cfg.Auth.VerifyKeys(),
			AccessTTL:  cfg.Auth.AccessTTL(),
		})

		emailSender := notification.NewSMTPEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, logger)
		notifier := notification.NewService(logger, emailSender)
		tmpl := templates.NewEngine()

		// --- Module Initialization (Bottom-Up) ---
		authRepo := auth.NewRepository(dbPool)
		authStates := auth.NewRedisStateStore(redisClient)
		authService := auth.NewService(authRepo, authStates, tokens, notifier, tmpl, logger, cfg)

		cleanupCtx, stopCleanup := context.WithCancel(context.Background())
		hooks.OnStart(func() {
			go auth.RunCleanup(cleanupCtx, authRepo, logger, time.Hour)
		})
		hooks.OnStop(stopCleanup)

		router := server.New(cfg, logger, authService, tokens)
		hooks.OnStart(func() {
			logger.Info(fmt.Sprintf("Starting server on port %d...", options.Port))
			if err := http.ListenAndServe(fmt.Sprintf(":%d", options.Port), router); err != nil {
				slog.Error("Server failed to start", "error", err)
				os.Exit(1)
			}
		})
	})
	cli.Run()
}
