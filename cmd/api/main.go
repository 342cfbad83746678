package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tally/internal/auth"
	"github.com/MrJamesThe3rd/tally/internal/backend"
	"github.com/MrJamesThe3rd/tally/internal/cart"
	"github.com/MrJamesThe3rd/tally/internal/catalog"
	"github.com/MrJamesThe3rd/tally/internal/config"
	"github.com/MrJamesThe3rd/tally/internal/expense"
	tallyHttp "github.com/MrJamesThe3rd/tally/internal/http"
	authHandler "github.com/MrJamesThe3rd/tally/internal/http/auth"
	cartHandler "github.com/MrJamesThe3rd/tally/internal/http/cart"
	catalogHandler "github.com/MrJamesThe3rd/tally/internal/http/catalog"
	expenseHandler "github.com/MrJamesThe3rd/tally/internal/http/expense"
	reportHandler "github.com/MrJamesThe3rd/tally/internal/http/report"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open backend", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer b.Close()

	var (
		authService    = auth.NewService(b.Users, b.Denylist, auth.Config{Secret: []byte(cfg.Auth.Secret), TokenTTL: cfg.Auth.TokenTTL})
		expenseService = expense.NewService(b.Store)
		expenseStream  = expense.NewStream(b.Store, slog.Default())
		catalogService = catalog.NewService(b.Store, slog.Default())
	)

	var (
		authH    = authHandler.NewHandler(authService)
		expenseH = expenseHandler.NewHandler(expenseService, expenseStream)
		reportH  = reportHandler.NewHandler(expenseService)
		catalogH = catalogHandler.NewHandler(catalogService)
		cartH    = cartHandler.NewHandler(cart.NewRegistry(), catalogService)
	)

	router := tallyHttp.New(
		tallyHttp.Options{CORSOrigins: cfg.Server.CORSOrigins, Timeout: cfg.Server.Timeout},
		authService, authH, expenseH, reportH, catalogH, cartH,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr, "backend", cfg.Store.Backend)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
