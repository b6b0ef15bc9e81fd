package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/ai"
	"github.com/plmdeck/backend/internal/api/handlers"
	"github.com/plmdeck/backend/internal/cache/redis"
	"github.com/plmdeck/backend/internal/collections"
	"github.com/plmdeck/backend/internal/deck"
	"github.com/plmdeck/backend/internal/metrics"
	"github.com/plmdeck/backend/internal/middleware/ratelimit"
	"github.com/plmdeck/backend/internal/middleware/security"
	"github.com/plmdeck/backend/internal/middleware/validation"
	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/internal/schema"
	"github.com/plmdeck/backend/internal/session"
	"github.com/plmdeck/backend/internal/settings"
	"github.com/plmdeck/backend/internal/slides"
	"github.com/plmdeck/backend/pkg/config"
	appLogger "github.com/plmdeck/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting PLM Deck API Server")

	metrics.Init()

	repo, err := settings.NewSQLiteRepository(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to open settings database", zap.Error(err))
	}
	defer repo.Close()

	store := settings.NewStore(repo)

	var listingCache *redis.Client
	if cfg.Redis.Enabled {
		listingCache, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, listing cache disabled", zap.Error(err))
			listingCache = nil
		} else {
			defer listingCache.Close()
		}
	}

	plmClient := plm.NewClient(plm.Config{
		BaseURL:       cfg.PLM.BaseURL,
		SessionHeader: cfg.PLM.SessionHeader,
		PageSize:      cfg.PLM.PageSize,
		MaxPages:      cfg.PLM.MaxPages,
		TimeoutSec:    cfg.PLM.TimeoutSec,
		RetryAttempts: cfg.PLM.RetryAttempts,
	}, store)

	var provider ai.Provider
	switch cfg.AI.Provider {
	case "openai":
		provider = ai.NewOpenAIProvider(cfg.AI.Model, cfg.AI.Temperature, cfg.AI.MaxTokens)
	default:
		provider = ai.NewGeminiProvider(cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.TimeoutSec)
	}
	aiClient := ai.NewClient(provider, store, cfg.AI.TimeoutSec)

	sessions := session.NewManager(plmClient, store)
	discovery := schema.NewDiscovery(plmClient)
	collectionStore := collections.NewStore(repo, cfg.Deck.MaxCollectionItems)

	host := slides.NewMemoryHost()
	writer := slides.NewWriter(host, plmClient, aiClient)

	engine := deck.NewEngine(plmClient, aiClient, writer, collectionStore, store, listingCache, deck.Config{
		OperationTimeoutSec: cfg.Deck.OperationTimeoutSec,
		ListCacheTTLSec:     cfg.PLM.ListCacheTTL,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.Development,
	}))

	limiter := ratelimit.New(ratelimit.Config{
		SessionHeader: cfg.PLM.SessionHeader,
		Logger:        appLogger.GetLogger(),
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	authHandler := handlers.NewAuthHandler(sessions)
	searchHandler := handlers.NewSearchHandler(engine)
	slidesHandler := handlers.NewSlidesHandler(engine, host)
	schemaHandler := handlers.NewSchemaHandler(discovery, store)
	settingsHandler := handlers.NewSettingsHandler(store)
	collectionsHandler := handlers.NewCollectionsHandler(collectionStore)
	wsHandler := handlers.NewWebSocketHandler(engine)

	api := app.Group("/api/v1")

	api.Post("/auth/login", authHandler.HandleLogin)
	api.Post("/auth/logout", authHandler.HandleLogout)
	api.Get("/auth/session", authHandler.HandleSessionStatus)

	api.Post("/search", searchHandler.HandleSearch)

	api.Post("/slides/generate", slidesHandler.HandleGenerate)
	api.Post("/slides/collection", slidesHandler.HandleGenerateCollection)
	api.Post("/slides/refresh", slidesHandler.HandleRefresh)
	api.Get("/slides", slidesHandler.HandleList)

	api.Post("/schema/discover", schemaHandler.HandleDiscover)
	api.Get("/schema", schemaHandler.HandleGet)
	api.Put("/schema", schemaHandler.HandleUpdate)

	api.Get("/settings", settingsHandler.HandleGet)
	api.Put("/settings", settingsHandler.HandleUpdate)

	api.Get("/collections", collectionsHandler.HandleList)
	api.Post("/collections", collectionsHandler.HandleSave)
	api.Delete("/collections/:id", collectionsHandler.HandleDelete)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
