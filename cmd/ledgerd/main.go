package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/positionledger/positionledger/config"
	"github.com/positionledger/positionledger/database"
	"github.com/positionledger/positionledger/engine"
	gctlog "github.com/positionledger/positionledger/log"
	"github.com/positionledger/positionledger/signaler"
)

func main() {
	var (
		configFile   string
		migrate      bool
		migrationDir string
	)
	flag.StringVar(&configFile, "config", config.DefaultFilePath(), "config file to load")
	flag.BoolVar(&migrate, "migrate", false, "apply pending database migrations before starting")
	flag.StringVar(&migrationDir, "migrationdir", database.MigrationDir, "override migration folder")
	flag.Parse()

	var cfg config.Config
	if err := cfg.LoadConfig(configFile); err != nil {
		log.Fatalf("Failed to load config. Err: %s", err)
	}
	if err := gctlog.SetupGlobalLogger(); err != nil {
		log.Printf("Failed to setup global logger. Err: %s", err)
	}
	if err := gctlog.SetupSubLoggers(cfg.Logging.SubLoggers); err != nil {
		log.Printf("Failed to setup sub loggers. Err: %s", err)
	}

	bot, err := engine.New(&cfg)
	if err != nil {
		log.Fatalf("Unable to initialise engine. Err: %s", err)
	}
	if migrate {
		if err = bot.MigrateDatabase(migrationDir); err != nil {
			log.Fatalf("Unable to migrate database. Err: %s", err)
		}
	}
	if err = bot.Start(); err != nil {
		log.Fatalf("Unable to start engine. Err: %s", err)
	}

	interrupt := signaler.WaitForInterrupt()
	gctlog.Infof(gctlog.Global, "Captured %v, shutdown requested.", <-interrupt)
	bot.Stop()
	if err = gctlog.CloseLogger(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close logger. Err: %s\n", err)
	}
}
