package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auction "auction-lifecycle/internal/auctionService"
	"auction-lifecycle/internal/config"
	"auction-lifecycle/internal/events"
	"auction-lifecycle/internal/identity"
	"auction-lifecycle/internal/repository"
	"auction-lifecycle/internal/server"
	"auction-lifecycle/utils"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// store is what both services need from persistence
type store interface {
	repository.AuctionDB
	repository.UserDB
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	utils.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openStore(ctx, cfg)
	if err != nil {
		utils.Fatal("Failed to open store", map[string]any{"driver": cfg.Database.Driver, "error": err.Error()})
	}
	defer closeRepo()

	bus := events.NewBus()
	defer bus.Close()

	auctionSvc := auction.NewAuctionService(repo, bus,
		auction.WithBackendTimeout(cfg.Auction.BackendTimeout.Duration),
		auction.WithMaxAttempts(cfg.Auction.MaxConflictRetries),
	)

	tokens := identity.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)
	identitySvc := identity.NewIdentityService(repo, tokens)
	if cfg.Auth.AdminEmail != "" {
		if err := identitySvc.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			utils.Fatal("Failed to seed admin account", map[string]any{"email": cfg.Auth.AdminEmail, "error": err.Error()})
		}
	}

	router := server.SetupRouter(auctionSvc, identitySvc, tokens, bus, cfg.Auth.PaymentKey)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Info("Starting auction server", map[string]any{
			"addr":   srv.Addr,
			"driver": cfg.Database.Driver,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.Info("Shutting down auction server", nil)

		// close event streams first so SSE handlers return
		bus.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.Error("Server stopped with error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	utils.Info("Server stopped", nil)
}

// openStore returns the configured store and a func that releases it
func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := config.SetupDatabase(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresRepo(db), func() { db.Close() }, nil
	default:
		return repository.NewMemoryRepo(), func() {}, nil
	}
}
