package main

import (
	"context"
	"fmt"
	"os"

	"insight-service/internal/billing"
	"insight-service/internal/handler"
	"insight-service/internal/llm"
	localmw "insight-service/internal/middleware"
	"insight-service/internal/model"
	"insight-service/internal/store"
	"insight-service/pkg/config"
	"insight-service/pkg/database"
	"insight-service/pkg/jwtutil"
	"insight-service/pkg/logger"
	"insight-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	conf, err := config.Load("insight")
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
	log.Info("Configuration loaded", conf.LogConfig()...)

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Run migrations: reports, users, and one table per brand kind
	if err := database.MigrateModels(&model.Report{}, &model.User{}); err != nil {
		log.Fatal("Failed to migrate database models", zap.Error(err))
	}
	for _, kind := range model.BrandKinds {
		if err := db.Table(kind.Table).AutoMigrate(&model.BrandStatement{}); err != nil {
			log.Fatal("Failed to migrate brand table", zap.String("table", kind.Table), zap.Error(err))
		}
	}

	// Guarantee the demo report exists
	if err := store.SeedDemoReport(context.Background(), db); err != nil {
		log.Fatal("Failed to seed demo report", zap.Error(err))
	}

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})

	// Generators and stores
	llmClient := llm.NewClient(&conf.OpenAI)
	reportHandler := handler.NewReportHandler(
		store.NewReportStore(db),
		llm.NewAnalysisGenerator(llmClient),
		llm.NewLiveInsightGenerator(llmClient),
	)
	brandHandler := handler.NewBrandHandler(
		store.NewBrandStore(db),
		llm.NewBrandGenerator(llmClient),
	)
	userStore := store.NewUserStore(db)
	authHandler := handler.NewAuthHandler(userStore)
	billingHandler := handler.NewBillingHandler(
		billing.NewClient(&conf.Stripe, log),
		userStore,
	)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply middleware
	e.Use(localmw.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public endpoints
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	billingHandler.RegisterWebhook(e)

	// Authenticated API
	api := e.Group("/api")
	api.Use(localmw.JWTAuthMiddleware(jwt))
	reportHandler.Register(api)
	brandHandler.Register(api)
	authHandler.Register(api)
	billingHandler.Register(api)

	// Start server
	log.Info("Starting insight-service on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
