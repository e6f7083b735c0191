package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/chat-service/config"
	"github.com/cwrk-planet/chat-service/internal/broadcast"
	"github.com/cwrk-planet/chat-service/internal/pg"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/repository/memory"
	pgrepo "github.com/cwrk-planet/chat-service/internal/repository/postgres"
	"github.com/cwrk-planet/chat-service/internal/security"
	"github.com/cwrk-planet/chat-service/internal/service"
	httpx "github.com/cwrk-planet/chat-service/internal/transport/http"
	"github.com/cwrk-planet/chat-service/internal/transport/ws"
	"github.com/cwrk-planet/logger/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

	// --- storage ---
	ctx := context.Background()

	var (
		users    repository.UserRepository
		rooms    repository.RoomRepository
		messages repository.MessageRepository
	)
	switch cfg.Storage.Driver {
	case "memory":
		store := memory.NewStore()
		users, rooms, messages = store.Users(), store.Rooms(), store.Messages()
	default:
		pool, err := pg.NewPool(ctx, cfg.Postgres.ToPGConfig())
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		slog.Info("connected to postgres")

		users = pgrepo.NewUserRepoFromPool(pool)
		rooms = pgrepo.NewRoomRepoFromPool(pool)
		messages = pgrepo.NewMessageRepoFromPool(pool)
	}

	// --- live topology & broadcaster ---
	hub := ws.NewHub()
	events := broadcast.New(hub)

	// --- services ---
	tokens := security.NewTokenIssuer([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL)
	passPolicy := security.BcryptConfig{
		Cost:      cfg.Auth.Password.BcryptCost,
		MinLength: cfg.Auth.Password.MinLength,
	}
	authSvc := service.NewAuthService(users, tokens, passPolicy, nil)
	memberSvc := service.NewMembershipService(users, rooms, events, nil)
	msgSvc := service.NewMessageService(users, rooms, messages, events, nil)

	// --- transports ---
	wsServer := ws.NewServer(hub, tokens, memberSvc)
	handler := httpx.NewHandler(authSvc, memberSvc, msgSvc)
	router := httpx.NewRouter(handler, tokens, wsServer)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	timeout := cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctxShutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
