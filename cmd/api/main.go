package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/incashhq/incash-server/config"
	"github.com/incashhq/incash-server/internal/catalog"
	"github.com/incashhq/incash-server/internal/checkout"
	"github.com/incashhq/incash-server/internal/handlers"
	"github.com/incashhq/incash-server/internal/logger"
	"github.com/incashhq/incash-server/internal/store"
	"github.com/incashhq/incash-server/internal/users"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger, err := logger.New(logger.Options{
		Level:             cfg.Logger.Level,
		Encoding:          cfg.Logger.Encoding,
		Development:       cfg.Server.AppEnv == "dev",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			appLogger.Fatal("failed to create store directory", zap.Error(err))
		}
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		appLogger.Fatal("failed to open store", zap.Error(err))
	}

	strategy, err := checkout.ParseStrategy(cfg.Checkout.Strategy)
	if err != nil {
		appLogger.Fatal("invalid checkout config", zap.Error(err))
	}

	handlerCfg := handlers.HandlerConfig{
		Catalog:  catalog.NewService(st, appLogger),
		Checkout: checkout.NewProcessor(st, strategy, appLogger),
		Users:    users.NewService(st, appLogger),
		Logger:   appLogger,
	}

	r := setupRouter(handlerCfg)

	addr := ":" + cfg.Server.Port
	appLogger.Info("server starting",
		zap.String("addr", addr),
		zap.String("store", cfg.Store.Path),
		zap.String("strategy", string(strategy)))
	if err := r.Run(addr); err != nil {
		appLogger.Fatal("server exited", zap.Error(err))
	}
}
