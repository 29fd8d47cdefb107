package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/netfleet/backend/internal/config"
	"github.com/netfleet/backend/internal/core/operations"
	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/core/services"
	"github.com/netfleet/backend/internal/infrastructure/db"
	"github.com/netfleet/backend/internal/infrastructure/logger"
	"github.com/netfleet/backend/internal/infrastructure/remote"
	"github.com/netfleet/backend/internal/transport/http/handlers"
	httpmw "github.com/netfleet/backend/internal/transport/http/middleware"
	"gorm.io/gorm"
)

type RouterConfig struct {
	DB     *gorm.DB
	Logger *logger.Logger
	Config *config.Config
}

// SetupRoutes wires repositories, core services and handlers onto the app.
// The returned runner is handed back so main can drain it on shutdown.
func SetupRoutes(app *fiber.App, cfg RouterConfig) (*services.Runner, error) {
	// Initialize repositories
	deviceRepo := db.NewDeviceRepository(cfg.DB, cfg.Logger)
	archiveRepo := db.NewTaskArchiveRepository(cfg.DB, cfg.Logger)

	// Periodically trim the archive past its retention window.
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if err := archiveRepo.CleanupOld(ctx, cfg.Config.Runner.ArchiveMaxAge); err != nil {
				cfg.Logger.Warnw("archive_cleanup_failed", "error", err)
			}
			cancel()
		}
	}()

	// Initialize core services
	inventory := services.NewInventoryService(services.InventoryServiceConfig{
		Repository:    deviceRepo,
		Logger:        cfg.Logger,
		EncryptionKey: cfg.Config.Security.EncryptionKey,
	})

	registry := services.NewRegistry()
	operations.RegisterBuiltins(registry)

	store := services.NewTaskStore(
		cfg.Config.Runner.RetentionMaxFinished,
		cfg.Config.Runner.RetentionMaxAge,
		cfg.Logger,
	)
	broadcaster := services.NewBroadcaster(cfg.Config.Runner.HistorySize, cfg.Logger)

	var provider ports.SessionProvider
	var resolver ports.EndpointResolver
	switch cfg.Config.Provider.Kind {
	case "ssh":
		provider = remote.NewSSHProvider(cfg.Logger)
		resolver = inventory
	case "mock":
		cfg.Logger.Warn("mock session provider selected; no real devices will be touched")
		provider = remote.NewMockProvider()
		resolver = remote.PassthroughResolver{}
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Config.Provider.Kind)
	}

	runner := services.NewRunner(services.RunnerParams{
		Config:      cfg.Config.Runner,
		Store:       store,
		Registry:    registry,
		Broadcaster: broadcaster,
		Provider:    provider,
		Resolver:    resolver,
		Archive:     archiveRepo,
		Logger:      cfg.Logger,
	})

	// Initialize handlers
	taskHandler := handlers.NewTaskHandler(runner, archiveRepo, registry.Kinds, cfg.Logger)
	deviceHandler := handlers.NewDeviceHandler(inventory, cfg.Logger)
	eventsHandler := handlers.NewEventsHandler(runner, broadcaster, cfg.Logger)

	// Task event stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws/tasks/:id", websocket.New(eventsHandler.Handle))

	// API v1 routes
	api := app.Group("/api/v1")
	admin := httpmw.AdminAuth(cfg.Config)

	api.Get("/operations", taskHandler.Operations)

	api.Post("/tasks", admin, taskHandler.Submit)
	api.Get("/tasks", taskHandler.List)
	api.Get("/tasks/history", taskHandler.History)
	api.Get("/tasks/:id", taskHandler.Get)
	api.Post("/tasks/:id/cancel", admin, taskHandler.Cancel)

	api.Get("/devices", deviceHandler.List)
	api.Post("/devices", admin, deviceHandler.Create)
	api.Get("/devices/:id", deviceHandler.Get)
	api.Put("/devices/:id", admin, deviceHandler.Update)
	api.Delete("/devices/:id", admin, deviceHandler.Delete)

	return runner, nil
}
