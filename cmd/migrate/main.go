// Command migrate applies the PostgreSQL feedback schema.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nursing-narrative-mcp-server/internal/config"
	"github.com/nursing-narrative-mcp-server/internal/database"
	"github.com/nursing-narrative-mcp-server/internal/logging"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [up|down|version]\n", os.Args[0])
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := configManager.GetDatabaseConfig()
	logger := logging.New(configManager.GetConfig().Logging.Level, configManager.GetConfig().Logging.Format)

	if cfg.URL == "" {
		logger.Fatal("database.url is required; set NARRATIVE_DATABASE_URL")
	}

	runner, err := database.NewMigrationRunner(cfg.URL, cfg.MigrationsPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create migration runner")
	}
	defer runner.Close()

	switch command {
	case "up":
		err = runner.Up()
	case "down":
		err = runner.Down()
	case "version":
		version, dirty, verr := runner.Version()
		if verr == nil {
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		}
		err = verr
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.WithError(err).Fatalf("Migration %s failed", command)
	}
}
