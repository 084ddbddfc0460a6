package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"invoicer/cmd"
	"invoicer/internal/config"
	"invoicer/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	loader, err := config.NewLoader()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger with configuration
	if err := logger.Setup(loader.Get().GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.WithComponent("main")
	log.Debug().
		Str("config_file", loader.File()).
		Msg("Starting invoicer")

	// Execute CLI commands
	cmd.Execute(loader)
}
