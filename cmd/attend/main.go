package main

import (
	"context"
	"errors"
	"log"
	"os"

	"classroll/internal/app"
	"classroll/internal/config"
	"classroll/internal/session"
	"classroll/internal/store"
)

var logger *log.Logger

func main() {
	// diagnostics go to stderr so they never mix with the rendered screen
	logger = log.New(os.Stderr, "ATTEND : ", log.LstdFlags)

	errAndDie(config.LoadEnvFile())
	cfg := config.LoadClient()

	var kv session.KV
	switch cfg.SessionBackend {
	case "redis":
		rdb := store.NewRedis(cfg.RedisAddr)
		defer rdb.Close()
		kv = session.NewRedisKV(rdb.Client, cfg.SessionPrefix)
	default:
		kv = session.NewFileKV(cfg.SessionFile)
	}

	router := app.New(cfg.APIURL, kv, logger)
	errAndDie(router.Restore(context.Background()))

	cli := commandLine{router: router, in: os.Stdin, out: os.Stdout}
	if err := cli.run(os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			logger.Printf("error: %s", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
