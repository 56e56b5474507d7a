package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-api/config"
	"marketplace-api/internal/api"
	"marketplace-api/internal/auth"
	"marketplace-api/internal/broker"
	"marketplace-api/internal/delivery"
	"marketplace-api/internal/importer"
	"marketplace-api/internal/redisclient"
	"marketplace-api/internal/service"
	"marketplace-api/internal/store"
	"marketplace-api/internal/util"
	"marketplace-api/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting marketplace API")

	tp, err := util.InitTracer("marketplace-api", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicImport)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	calculator := delivery.NewCalculator(
		cfg.Delivery.Cities,
		cfg.Delivery.SameCityFee,
		cfg.Delivery.PerHopFee,
		cfg.Delivery.FallbackFee,
	)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	orderService := service.NewOrderService(db, calculator, eventPublisher)
	catalogService := service.NewCatalogService(db, redisClient, eventPublisher)
	userService := service.NewUserService(db, tokens)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	importConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicImport, cfg.Kafka.ConsumerGroup)
	importWorker := worker.NewImportWorker(importConsumer, importer.NewImporter(db), eventPublisher, redisClient)
	go func() {
		if err := importWorker.Start(workerCtx); err != nil {
			log.Printf("Import worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, catalogService, userService, tokens)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	importWorker.Stop()

	log.Println("Server exited")
}
