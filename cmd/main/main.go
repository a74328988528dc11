package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"trading-simulator/src/backtest"
	"trading-simulator/src/config"
	"trading-simulator/src/engine"
	"trading-simulator/src/interfaces"
	"trading-simulator/src/logger"
	"trading-simulator/src/server"
	"trading-simulator/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config, config.Name)

	// Setup storage
	var db interfaces.IDatabase

	switch config.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(config.MConfig, appLogger)
	default:
		// Default to SQLite
		db, err = storage.NewSQLiteDB(config.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer db.Close()

	// Setup the compute engine client and the orchestration pipeline
	engineClient := engine.NewClient(config.MConfig, appLogger)
	orchestrator := backtest.NewOrchestrator(db, engineClient, appLogger)

	// Start the server (HTTP API + websocket feed)
	srv := server.NewServer(config.MConfig, appLogger, db, orchestrator)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	if err := srv.Stop(); err != nil {
		appLogger.Error("Server stop failed: %v", err)
	}
}
