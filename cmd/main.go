package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stratusdrive/config"
	"stratusdrive/jobs"
	"stratusdrive/routes"
	"stratusdrive/services"
	"stratusdrive/store"
	"stratusdrive/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		utils.LogInfo("No .env file found, using system environment variables")
	}

	config.LoadConfig()
	cfg := config.AppConfig

	nodes, accounts, content, cleanup := buildBackend(cfg)
	defer cleanup()

	container, err := routes.NewServiceContainer(nodes, accounts, content, routes.ContainerOptions{
		DefaultStorageLimit: cfg.DefaultStorageLimit,
		MaxFileSize:         cfg.MaxFileSize,
		TrashRetention:      cfg.TrashRetention,
		NameCaseInsensitive: cfg.NameCaseInsensitive,
	})
	if err != nil {
		utils.LogFatal("Failed to initialize services", err)
	}

	router := gin.Default()
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	api := router.Group("/api")
	routes.SetupRoutes(api, cfg.JWTSecret, container)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	if cfg.TrashCleanupInterval > 0 {
		cleaner := jobs.NewTrashCleaner(container.TrashService, cfg.TrashCleanupInterval)
		go cleaner.Start()
		utils.LogInfo(fmt.Sprintf("Started trash cleanup job running every %v", cfg.TrashCleanupInterval))
	}

	utils.LogInfo("Starting StratusDrive server on port " + cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		utils.LogFatal("Failed to start server", err)
	}
}

// buildBackend connects the configured persistence pair: MongoDB plus
// Backblaze B2, or the in-process stores for local runs.
func buildBackend(cfg *config.Config) (store.NodeStore, store.AccountStore, services.ContentStore, func()) {
	if cfg.StorageBackend == "memory" {
		utils.LogInfo("Using in-memory storage backend")
		memory := store.NewMemoryStore()
		return memory, memory, services.NewMemoryContentStore(), func() {}
	}

	ctx, cancel := config.CreateContext(10 * time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		utils.LogFatal("Failed to connect to MongoDB", err)
	}
	if err = mongoClient.Ping(ctx, nil); err != nil {
		utils.LogFatal("Failed to ping MongoDB", err)
	}
	utils.LogInfo("Connected to MongoDB successfully")

	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.DatabaseName))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		utils.LogError("Failed to create indexes", err)
	}

	content, err := services.NewB2ContentStore(context.Background(), cfg.B2ApplicationKeyID, cfg.B2ApplicationKey, cfg.B2BucketName)
	if err != nil {
		utils.LogFatal("Failed to initialize B2 content store", err)
	}

	cleanup := func() {
		disconnectCtx, disconnectCancel := config.CreateContext(5 * time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			utils.LogError("Failed to disconnect MongoDB", err)
		}
	}
	return mongoStore, mongoStore, content, cleanup
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestOrigin := c.Request.Header.Get("Origin")

		var allowOrigin string
		if len(allowedOrigins) == 0 {
			allowOrigin = "*"
		} else {
			for _, allowedOrigin := range allowedOrigins {
				if allowedOrigin == "*" || allowedOrigin == requestOrigin {
					allowOrigin = allowedOrigin
					break
				}
			}
			if allowOrigin == "" && requestOrigin == "" {
				allowOrigin = allowedOrigins[0]
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
