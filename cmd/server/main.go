// File: cmd/server/main.go
package main

import (
	"context"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"syscall"

	"wlm_backend/internal/config"
	platformES "wlm_backend/internal/platform/elasticsearch"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	if server.ESClient != nil {
		if err := platformES.CreateUsersIndexIfNotExists(server.ESClient, server.AppLogger); err != nil {
			server.AppLogger.Error("Failed to create Elasticsearch users index; handle search will fall back to the database.", zap.Error(err))
		}
	} else {
		server.AppLogger.Info("Elasticsearch client not initialized, skipping index creation.")
	}

	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}
