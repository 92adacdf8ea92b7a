package main

import (
	"context"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ludo/auth"
	"ludo/config"
	"ludo/game"
	httpserver "ludo/http"
	"ludo/store"
	"ludo/ws"
)

func main() {
	log.Println("Starting Ludo server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded - Listen addr: %s, DB path: %s", cfg.Addr, cfg.DBPath)

	// Initialize database
	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	log.Println("Database initialized successfully")

	hashKey, blockKey, err := cfg.CookieKeys()
	if err != nil {
		log.Fatalf("Failed to decode cookie keys: %v", err)
	}

	dice, err := game.NewDice()
	if err != nil {
		log.Fatalf("Failed to initialize dice: %v", err)
	}

	// Initialize services
	sessionManager := auth.NewSessionManager(hashKey, blockKey)
	authService := auth.NewService(db, sessionManager)
	lobby := game.NewLobby(db)
	engine := game.NewEngine(db, dice)
	wsManager := ws.NewManager(engine)
	lobbyManager := ws.NewLobbyManager()

	// Initialize HTTP server
	server := httpserver.NewServer(authService, lobby, engine, wsManager, lobbyManager, db)
	srv := server.GetHTTPServer(cfg.Addr)

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
