package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classroll/internal/config"
	"classroll/internal/queue"
	"classroll/internal/store"
)

// Worker consumes submission events from the Redis queue and logs a summary
// per submission.
func main() {
	if err := config.LoadEnvFile(); err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg := config.LoadServer()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend != "redis" {
		log.Fatalf("worker needs QUEUE_BACKEND=redis (got %q); the memory queue is drained by the api process", cfg.QueueBackend)
	}
	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis at %s not reachable, will keep retrying", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)

	log.Println("worker started, waiting for messages...")
	err := queue.ConsumeSubmissions(ctx, q, func(evt queue.SubmissionEvent) {
		log.Printf("attendance submitted: %s", evt.Summary())
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Println("worker stopped")
}
