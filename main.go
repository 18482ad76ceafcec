package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"trainer-workload-service/internal/api"
	"trainer-workload-service/internal/cache"
	"trainer-workload-service/internal/config"
	"trainer-workload-service/internal/consumer"
	"trainer-workload-service/internal/database"
	"trainer-workload-service/internal/logger"
	"trainer-workload-service/internal/repository"
	"trainer-workload-service/internal/workload"
)

func main() {
	memory := flag.Bool("memory", false, "use in-memory stores instead of PostgreSQL")
	flag.Parse()

	log := logger.New()
	cfg := config.Load()

	// Initialize stores
	var store repository.LedgerStore
	var journal repository.EventJournal
	if *memory {
		log.Info("using in-memory stores")
		store = repository.NewMemoryLedgerStore()
		journal = repository.NewMemoryEventJournal()
	} else {
		db, err := database.New(cfg.Database, log)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize database")
		}
		sqlDB, _ := db.DB.DB()
		defer sqlDB.Close()

		store = repository.NewGormLedgerStore(db.DB, log)
		journal = repository.NewGormEventJournal(db.DB, log)
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Query cache with background eviction
	queryCache := cache.New(cfg.Cache.TTL)
	go queryCache.Sweep(ctx, cfg.Cache.SweepInterval)

	service := workload.New(store, queryCache, log, workload.Limits{
		DailyHourCap: cfg.Limits.DailyHourCap,
		MinYear:      cfg.Limits.MinYear,
		MaxYear:      cfg.Limits.MaxYear,
	})

	// Start the read API
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.NewHandler(service, queryCache, log).SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: router,
	}
	go func() {
		log.WithField("port", cfg.HTTP.Port).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server stopped unexpectedly")
		}
	}()

	// Initialize and start RabbitMQ consumer
	rmqConsumer, err := consumer.New(cfg.Rabbit, log, service, journal)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize RabbitMQ consumer")
	}
	defer rmqConsumer.Close()

	if err := rmqConsumer.Start(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("consumer stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown failed")
	}

	log.Info("graceful shutdown complete")
}
