package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nwah/looprun-server/nav"
)

var configFile = flag.String("config", "config.toml", "Path to the TOML config file")

func main() {
	flag.Parse()

	// Load configuration
	if err := LoadConfig(*configFile); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set nav config for the nav package
	nav.SetConfig(GetNavConfig())
	defer nav.Shutdown()

	// Register handlers under /nav path
	mux := http.NewServeMux()
	mux.HandleFunc("/nav/loop", nav.HandleLoop)
	mux.HandleFunc("/nav/session", nav.HandleSession)
	mux.HandleFunc("/nav/session/fix", nav.HandleFix)
	mux.HandleFunc("/nav/export", nav.HandleExport)

	config := GetConfig()
	server := &http.Server{Addr: config.Port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	// Start server
	log.Printf("Starting server on port %s", config.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed to start: %v", err)
	}
}
