package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgersync/internal/app"
	"github.com/MrJamesThe3rd/ledgersync/internal/config"
	"github.com/MrJamesThe3rd/ledgersync/internal/database"
	ledgerHttp "github.com/MrJamesThe3rd/ledgersync/internal/http"
	syncHandler "github.com/MrJamesThe3rd/ledgersync/internal/http/banksync"
	txHandler "github.com/MrJamesThe3rd/ledgersync/internal/http/transaction"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.Secret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.MigrateUp(cfg.ConnectionString()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var (
		transactionH = txHandler.NewHandler(a.Transactions, a.Accounts)
		syncH        = syncHandler.NewHandler(a.Sync, a.Cache)
	)

	router := ledgerHttp.New(ledgerHttp.Options{
		JWTSecret:      []byte(cfg.Auth.Secret),
		AllowedOrigins: cfg.App.AllowedOrigins,
	}, transactionH, syncH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// A sync request may run for the whole batch timeout.
		WriteTimeout: cfg.Sync.BatchTimeout + cfg.Server.Timeout,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
