package main

import (
	"fmt"
	"os"

	"github.com/chervince/mon-projet/internal/handler"
	"github.com/chervince/mon-projet/internal/middleware"
	"github.com/chervince/mon-projet/internal/model"
	"github.com/chervince/mon-projet/internal/ocr"
	"github.com/chervince/mon-projet/internal/scan"
	"github.com/chervince/mon-projet/internal/store"
	"github.com/chervince/mon-projet/pkg/config"
	"github.com/chervince/mon-projet/pkg/database"
	"github.com/chervince/mon-projet/pkg/jwtutil"
	"github.com/chervince/mon-projet/pkg/logger"
	"github.com/chervince/mon-projet/prometheus"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found or error loading: %v\n", err)
	}

	// Load configuration
	conf, err := config.Load("fidelisation")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Open the database once; the handle is passed down explicitly from here.
	db, err := database.Connect(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations for the loyalty models
	if err := database.MigrateModels(db,
		&model.User{},
		&model.Merchant{},
		&model.Credit{},
		&model.Voucher{},
		&model.ScanLog{},
	); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	st := store.New(db)

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})

	// Settlement pipeline with the Vision OCR adapter
	visionClient := ocr.NewVisionClient(&conf.OCR, log)
	pipeline := scan.New(st, visionClient, conf.Scan)

	scanHandler := handler.NewScanHandler(pipeline)
	creditHandler := handler.NewCreditHandler(st)
	voucherHandler := handler.NewVoucherHandler(st)
	partnerHandler := handler.NewPartnerHandler(st)
	merchantHandler := handler.NewMerchantHandler(st)
	statsHandler := handler.NewStatsHandler(st)
	healthHandler := handler.NewHealthHandler(db)

	// Initialize Echo framework
	e := echo.New()

	// Apply middleware
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Public routes
	e.GET("/hello", handler.Hello)
	e.GET("/health", healthHandler.Check)
	e.GET("/merchants/:id", merchantHandler.Get)

	// Secured routes - require authentication
	auth := middleware.JWTAuthMiddleware(jwt)

	scans := e.Group("/scan", auth)
	scans.POST("/process", scanHandler.Process)

	user := e.Group("/user", auth)
	user.GET("/credits", creditHandler.List)
	user.GET("/vouchers", voucherHandler.List)

	e.GET("/partners", partnerHandler.List, auth)

	// Admin routes - require authentication and the admin role
	admin := e.Group("/admin", auth, middleware.RequireAdmin())
	admin.GET("/merchants", merchantHandler.List)
	admin.POST("/merchants", merchantHandler.Create)
	admin.GET("/stats", statsHandler.Get)

	// Start server
	log.Info("Starting fidelisation service on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
