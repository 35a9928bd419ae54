package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkozlov/converse/internal/adapters/http"
	"github.com/dkozlov/converse/internal/adapters/ws"
	"github.com/dkozlov/converse/internal/app"
	"github.com/dkozlov/converse/internal/auth"
	"github.com/dkozlov/converse/internal/config"
	"github.com/dkozlov/converse/internal/store/gormstore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// A store that cannot be opened at startup is a process-wide fault.
	db, err := gormstore.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	messages := gormstore.NewMessageStore(db)
	groups := gormstore.NewGroupStore(db, cfg.MaxGroupMembers)
	users := gormstore.NewUserStore(db)

	presence := app.NewPresence()
	rooms := app.NewRooms()

	gw := &ws.Gateway{
		Verifier:  auth.NewVerifier(cfg.Secret),
		Users:     users,
		Lifecycle: &app.Lifecycle{Presence: presence, Rooms: rooms, Groups: groups, Users: users},
		Dispatch:  &app.Dispatch{Presence: presence, Rooms: rooms, Messages: messages, Groups: groups},
		Ephemeral: &app.Ephemeral{Presence: presence, Rooms: rooms},
		Receipts:  &app.Receipts{Presence: presence, Messages: messages},
		GroupSvc: &app.GroupService{
			Presence: presence, Rooms: rooms,
			Groups: groups, Messages: messages,
			MaxMembers: cfg.MaxGroupMembers,
		},
		Cfg: cfg,
	}

	r := router.SetupRouter(ctx, cfg, gw)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("converse server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited gracefully")
}
