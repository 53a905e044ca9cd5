package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Wyydra/signalhub/internal/adapter/driven/trust"
	handler "github.com/Wyydra/signalhub/internal/adapter/driving/http"
	"github.com/Wyydra/signalhub/internal/config"
	"github.com/Wyydra/signalhub/internal/core/service"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	w := zerolog.ConsoleWriter{Out: os.Stdout}
	l := zerolog.New(w).With().Timestamp().Caller().Logger()
	zlog.Logger = l

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			l.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
		}
		cfg = loaded
	}

	registry := service.NewRegistry()
	tracker := service.NewTracker()
	router := service.NewRouter(registry, tracker)
	rooms := service.NewRooms(registry, tracker)
	pool := service.NewPool()
	auth := service.NewAuthenticator(trust.NewBackend(), registry, cfg.Protocol.Versions, !cfg.Protocol.RequireToken)
	gateway := service.NewGateway(auth, registry, router, tracker, rooms, pool)

	h := handler.NewHandler(gateway, cfg.Server.ReadLimit, cfg.Server.WriteTimeout)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().Str("addr", cfg.Server.Addr).Msg("Starting signaling server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	l.Info().Msg("Server exited")
}
