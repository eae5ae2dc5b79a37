package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autorepair/config"
	"autorepair/internal/api"
	"autorepair/internal/backup"
	"autorepair/internal/broker"
	"autorepair/internal/redisclient"
	"autorepair/internal/service"
	"autorepair/internal/store"
	"autorepair/internal/util"
	"autorepair/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting auto repair shop service")

	tp, err := util.InitTracer("autorepair", cfg.Observ.JaegerEndpoint)
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

	db, err := store.NewStore(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	logger.Info("Database ready", zap.String("driver", db.Driver()))

	var idempotency api.IdempotencyStore
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		idempotency = redisClient
		logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()
	if producer != nil {
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	eventPublisher := broker.NewEventPublisher(producer)

	services := api.Services{
		Parts:     service.NewPartService(db, cfg.Business.DefaultMinStock),
		Customers: service.NewCustomerService(db),
		Orders:    service.NewRepairOrderService(db, eventPublisher, cfg.Business.OrderListLimit),
		Purchases: service.NewPurchaseService(db, eventPublisher, cfg.Business.OrderListLimit),
		Reports:   service.NewReportService(db),
	}

	var (
		backups      api.Backups
		backupWorker *worker.BackupWorker
	)
	if db.Driver() == config.DriverSQLite {
		manager := backup.NewManager(db.Path(), cfg.Backup.Dir)
		backups = manager
		if cfg.Backup.Interval > 0 {
			backupWorker = worker.NewBackupWorker(manager, cfg.Backup.Interval, cfg.Backup.Keep)
		}
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if backupWorker != nil {
		go func() {
			if err := backupWorker.Start(workerCtx); err != nil {
				log.Printf("Backup worker error: %v", err)
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(services, db, backups, idempotency)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on %s", cfg.Server.Addr)
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
	if backupWorker != nil {
		backupWorker.Stop()
	}

	log.Println("Server exited")
}
