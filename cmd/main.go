package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/git-756/discord-switchbot-lock/adapters/discord"
	"github.com/git-756/discord-switchbot-lock/adapters/mockdevice"
	"github.com/git-756/discord-switchbot-lock/adapters/switchbot"
	"github.com/git-756/discord-switchbot-lock/domain/repositories"
	"github.com/git-756/discord-switchbot-lock/internal/api"
	"github.com/git-756/discord-switchbot-lock/internal/auth"
	"github.com/git-756/discord-switchbot-lock/internal/config"
	"github.com/git-756/discord-switchbot-lock/internal/websocket"
	"github.com/git-756/discord-switchbot-lock/internal/worker"
	"github.com/git-756/discord-switchbot-lock/usecase"
)

func main() {
	cfg, loadErr := config.Load()

	// Initialize logger
	logger := newLogger(cfg)
	defer logger.Sync()

	if loadErr != nil {
		logger.Fatal("Failed to load configuration", zap.Error(loadErr))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// Initialize adapters
	devices := newDeviceAPI(cfg, logger)

	// Initialize usecase services
	pool := worker.NewPool(cfg.WorkerPoolSize, logger)
	runner := usecase.NewReplyRunner(pool, logger)
	dispatcher := usecase.NewDispatcher(usecase.DispatcherConfig{
		LockID:        cfg.SmartLockID,
		SensorID:      cfg.SensorID,
		TriggerOpen:   cfg.TriggerOpen,
		TriggerClose:  cfg.TriggerClose,
		TriggerStatus: cfg.TriggerStatus,
		TriggerSensor: cfg.TriggerSensor,
	}, devices, runner, logger)
	commands := usecase.NewCommands(devices, runner, dispatcher.Triggers(), logger)
	router := usecase.NewRouter(logger, dispatcher, commands)

	// Initialize WebSocket hub for the chat console
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := websocket.NewHub(router, logger)
	go hub.Run(hubCtx)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	var console *api.ConsoleAuth
	if cfg.ConsoleEnabled() {
		issuer, err := auth.NewTokenIssuer(cfg.ChatJWTSecret, cfg.ChatTokenTTL)
		if err != nil {
			logger.Fatal("Failed to create token issuer", zap.Error(err))
		}
		console = &api.ConsoleAuth{Issuer: issuer, APIKey: cfg.ChatAPIKey}
	}

	// Initialize API routes
	api.InitRoutes(e, hub, devices, console, logger)

	var bot *discord.Bot
	if cfg.DiscordToken != "" {
		var err error
		bot, err = discord.NewBot(cfg.DiscordToken, logger)
		if err != nil {
			logger.Fatal("Failed to create discord bot", zap.Error(err))
		}
		if err := bot.Open(router); err != nil {
			logger.Fatal("Failed to connect to discord", zap.Error(err))
		}
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.Bool("discord", bot != nil),
		zap.Bool("console", console != nil),
		zap.Bool("mock", cfg.SwitchBotMock))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if bot != nil {
		if err := bot.Close(); err != nil {
			logger.Error("Failed to close discord session", zap.Error(err))
		}
	}

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	stopHub()

	// In-flight device calls finish within the client timeout
	runner.Wait()
	pool.Close()

	logger.Info("Server exited")
}

func newLogger(cfg config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newDeviceAPI(cfg config.Config, logger *zap.Logger) repositories.DeviceAPI {
	if cfg.SwitchBotMock {
		logger.Warn("Using in-memory SwitchBot device API")
		return mockdevice.NewSeededDeviceAPI(cfg.SmartLockID, cfg.SensorID, logger)
	}

	client, err := switchbot.NewClient(switchbot.Config{
		Token:      cfg.SwitchBotToken,
		Secret:     cfg.SwitchBotSecret,
		APIBaseURL: cfg.SwitchBotAPIBaseURL,
		Timeout:    cfg.SwitchBotTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create SwitchBot client", zap.Error(err))
	}
	return client
}
