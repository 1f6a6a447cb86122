package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"classroll/internal/attendance"
	"classroll/internal/config"
	"classroll/internal/httpapi"
	"classroll/internal/httpmiddleware"
	"classroll/internal/queue"
	"classroll/internal/store"
)

func main() {
	if err := config.LoadEnvFile(); err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg := config.LoadServer()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.Server) error {
	ctx := context.Background()
	health := map[string]httpapi.HealthCheck{}

	var repo attendance.Repository
	switch cfg.StoreBackend {
	case "postgres":
		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		repo = attendance.NewPostgresRepository(db.Client)
		health["db"] = db.Healthy
	default:
		repo = attendance.NewMemoryRepository()
	}

	var redisClient *store.Redis
	if cfg.RateLimitBackend == "redis" || cfg.QueueBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
		health["redis"] = redisClient.Healthy
	}

	var limiter httpmiddleware.Limiter
	if cfg.RateLimitPerMin > 0 {
		if cfg.RateLimitBackend == "redis" {
			limiter = httpmiddleware.NewRedisFixedWindow(redisClient.Client, cfg.RateLimitPerMin)
		} else {
			limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
		}
	}

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	} else {
		// no separate worker can reach an in-process queue; drain it here
		q = queue.NewInMemory(64)
		consumeCtx, stop := context.WithCancel(ctx)
		defer stop()
		go func() {
			_ = queue.ConsumeSubmissions(consumeCtx, q, func(evt queue.SubmissionEvent) {
				log.Printf("attendance submitted: %s", evt.Summary())
			})
		}()
	}

	if cfg.Seed {
		if err := attendance.Seed(ctx, repo); err != nil {
			return err
		}
	}

	r := httpapi.NewRouter(httpapi.Options{
		Service:    attendance.NewService(repo),
		SigningKey: cfg.JWTSigningKey,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL,
		Events:     q,
		Limiter:    limiter,
		Health:     health,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("api listening on %s (store=%s, queue=%s)", srv.Addr, cfg.StoreBackend, cfg.QueueBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
