package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"inventory-service/internal/handler"
	mid "inventory-service/internal/middleware"
	"inventory-service/internal/repository"
	"inventory-service/internal/service"
	"inventory-service/pkg/config"
	"inventory-service/pkg/database"
	"inventory-service/pkg/jwtutil"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting inventory-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port),
		zap.String("store", appConfig.Database.Driver))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize the store backend
	var store repository.Store
	switch appConfig.Database.Driver {
	case "memory":
		store = repository.NewMemoryStore()
		log.Info("Using in-memory store")
	default:
		if err := database.InitDB(appConfig); err != nil {
			log.Fatal("Failed to initialize database", zap.Error(err))
		}
		store = repository.NewGormStore(database.GetDB())
		log.Info("Database connection established")
	}

	// Wire services and handlers
	validator := service.NewValidator(store.Products(), log)
	stockService := service.NewStockService(store, log)

	productHandler := handler.NewProductHandler(store.Products())
	scanHandler := handler.NewScanHandler(validator)
	transactionHandler := handler.NewTransactionHandler(stockService, store.Transactions())
	alertHandler := handler.NewAlertHandler(store.Alerts())

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Product API routes
	productAPI := e.Group("/api/products", mid.AuthMiddleware)
	productAPI.GET("", productHandler.List)
	productAPI.GET("/:id", productHandler.Get)
	productAPI.GET("/:id/qrcode", productHandler.QRCode)
	productAPI.POST("", productHandler.Create)
	productAPI.PUT("/:id", productHandler.Update)
	productAPI.DELETE("/:id", productHandler.Delete)

	// Scan API routes - validation for camera, manual entry and photo upload
	scanAPI := e.Group("/api/scan", mid.AuthMiddleware)
	scanAPI.POST("/validate", scanHandler.Validate)
	scanAPI.POST("/image", scanHandler.ScanImage)

	// Stock transaction API routes
	transactionAPI := e.Group("/api/transactions", mid.AuthMiddleware)
	transactionAPI.POST("", transactionHandler.Apply)
	transactionAPI.GET("", transactionHandler.List)
	transactionAPI.GET("/export", transactionHandler.Export)

	// Alert API routes
	alertAPI := e.Group("/api/alerts", mid.AuthMiddleware)
	alertAPI.GET("", alertHandler.List)
	alertAPI.PUT("/:id/resolve", alertHandler.Resolve)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
