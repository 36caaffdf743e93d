// Command sessionsweeper clears live refresh tokens that expired or no longer
// verify. It is meant to run as a periodic job next to the server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vncsmyrnk/tokenauth/internal/config"
	"github.com/vncsmyrnk/tokenauth/internal/core/services"
	"github.com/vncsmyrnk/tokenauth/internal/logger"
	"github.com/vncsmyrnk/tokenauth/internal/store"
)

func main() {
	_ = godotenv.Load()

	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Maximum duration of the sweep")
	flag.Parse()

	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx = logger.Into(ctx, log)

	sessions, closer, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Error("failed to open store", slog.String("driver", cfg.Store.Driver), slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer closer.Close()

	if cfg.Store.Driver == config.StoreMemory {
		log.Warn("memory store holds no sessions outside the server process, nothing to sweep")
		return
	}

	log.Info("starting session sweep", slog.String("store", cfg.Store.Driver))

	n, err := services.NewSweepService(sessions, cfg.Auth.TokenConfig(), nil).SweepExpired(ctx)
	if err != nil {
		log.Error("session sweep failed", slog.Int("cleared", n), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("session sweep completed", slog.Int("cleared", n))
}
