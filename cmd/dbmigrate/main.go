package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/positionledger/positionledger/config"
	"github.com/positionledger/positionledger/database"
	dbPSQL "github.com/positionledger/positionledger/database/drivers/postgres"
	dbsqlite3 "github.com/positionledger/positionledger/database/drivers/sqlite3"
	"github.com/positionledger/positionledger/database/repository"
	"github.com/thrasher-corp/goose"
)

var (
	dbConn       *database.Instance
	configFile   string
	migrationDir string
	command      string
	args         string
)

func openDBConnection(cfg *database.Config) (err error) {
	switch cfg.Driver {
	case database.DBPostgreSQL:
		dbConn, err = dbPSQL.Connect(cfg)
	case database.DBSQLite, database.DBSQLite3:
		dbConn, err = dbsqlite3.Connect(cfg.Database)
	default:
		return fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
	if err != nil {
		return fmt.Errorf("database failed to connect: %w", err)
	}
	return nil
}

func main() {
	fmt.Println("Position ledger database migration tool")
	fmt.Println()

	flag.StringVar(&command, "command", "", "command to run status|up|up-by-one|up-to|down|create")
	flag.StringVar(&args, "args", "", "arguments to pass to goose")
	flag.StringVar(&configFile, "config", config.DefaultFilePath(), "config file to load")
	flag.StringVar(&migrationDir, "migrationdir", database.MigrationDir, "override migration folder")
	flag.Parse()

	var conf config.Config
	if err := conf.LoadConfig(configFile); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if !conf.Database.Enabled {
		fmt.Println("Database support is disabled")
		os.Exit(1)
	}
	if err := openDBConnection(&conf.Database); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.CloseConnection(); err != nil {
			fmt.Println(err)
		}
	}()

	drv := repository.GetSQLDialect()
	if drv == database.DBSQLite || drv == database.DBSQLite3 {
		fmt.Printf("Database file: %s\n", conf.Database.Database)
	} else {
		fmt.Printf("Connected to: %s\n", conf.Database.Host)
	}

	goose.SetLogger(database.MigrationLogger{})
	if command == "" {
		_ = goose.Run("status", dbConn.SQL, drv, migrationDir, "")
		fmt.Println()
		flag.Usage()
		return
	}
	if err := goose.Run(command, dbConn.SQL, drv, migrationDir, args); err != nil {
		fmt.Println(err)
	}
}
