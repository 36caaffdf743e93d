package main

import (
	"context"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vncsmyrnk/tokenauth/internal/adapters/handler/http"
	"github.com/vncsmyrnk/tokenauth/internal/adapters/hasher/bcrypt"
	"github.com/vncsmyrnk/tokenauth/internal/adapters/metrics/prom"
	"github.com/vncsmyrnk/tokenauth/internal/config"
	"github.com/vncsmyrnk/tokenauth/internal/core/services"
	"github.com/vncsmyrnk/tokenauth/internal/logger"
	"github.com/vncsmyrnk/tokenauth/internal/store"
)

func main() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accounts, closer, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Error("failed to open store", slog.String("driver", cfg.Store.Driver), slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer closer.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := prom.NewRecorder(registry)
	if err != nil {
		log.Error("failed to register metrics", slog.String("err", err.Error()))
		os.Exit(1)
	}

	authService := services.NewAuthService(accounts, bcrypt.NewHasher(cfg.Auth.BcryptCost), cfg.Auth.TokenConfig(), nil)
	authService.SetMetrics(recorder)
	accountService := services.NewAccountService(accounts)

	authHandler := http.NewAuthHandler(authService, http.CookieOptions{
		Domain:   cfg.Auth.CookieDomain,
		Secure:   cfg.Auth.CookieSecure,
		SameSite: cfg.Auth.SameSite(),
	})
	accountHandler := http.NewAccountHandler(accountService)

	handler := http.NewHandler(authService, authHandler, accountHandler, http.RouterOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         log,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	server := &stdhttp.Server{Addr: cfg.HTTP.Addr(), Handler: handler}

	go func() {
		log.Info("listening", slog.String("addr", server.Addr), slog.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Error("server stopped", slog.String("err", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", slog.String("err", err.Error()))
	}
}
