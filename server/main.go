package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chexy-balloons/shared/protocol"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer SyncLogger()

	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		Log.Fatalw("open database", "path", cfg.DBPath, "err", err)
	}
	defer db.Close()

	journal := NewJournal(db)
	metrics := &Metrics{}

	game := NewGame(cfg.GameConfig(), journal, metrics)
	go game.Run()

	hub := NewHub(game, metrics, cfg.MaxClients)
	go hub.Run()

	router := SetupRoutes(&Server{
		hub:       hub,
		game:      game,
		auth:      NewAuth(cfg.TokenSecret, cfg.AdminHash, cfg.Secure),
		db:        db,
		metrics:   metrics,
		publicURL: cfg.PublicURL,
	})

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: router}

	go func() {
		Log.Infow("server starting", "addr", cfg.Addr, "protocol", protocol.ProtocolID, "secure", cfg.Secure, "round_seconds", cfg.RoundSeconds)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			Log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	<-stop
	Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
	game.Stop()
	<-game.Done()
	journal.Stop()
}
