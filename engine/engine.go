package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/positionledger/positionledger/config"
	"github.com/positionledger/positionledger/database"
	dbpsql "github.com/positionledger/positionledger/database/drivers/postgres"
	dbsqlite3 "github.com/positionledger/positionledger/database/drivers/sqlite3"
	"github.com/positionledger/positionledger/database/repository"
	"github.com/positionledger/positionledger/database/repository/position"
	dbtransaction "github.com/positionledger/positionledger/database/repository/transaction"
	"github.com/positionledger/positionledger/log"
	"github.com/positionledger/positionledger/pricing"
	"github.com/thrasher-corp/goose"
)

// New builds an engine from a checked config. Transactions are held in
// memory unless the database is enabled
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w engine", errNilConfig)
	}
	bot := &Engine{Config: cfg}

	contracts, err := cfg.GetContractTable()
	if err != nil {
		return nil, err
	}
	prices, err := NewPriceSource(cfg)
	if err != nil {
		return nil, err
	}

	var (
		store TransactionStore
		sink  SnapshotSink
	)
	if cfg.Database.Enabled {
		if err = database.DB.SetConfig(&cfg.Database); err != nil {
			return nil, err
		}
		if bot.DB, err = openDBConnection(&cfg.Database); err != nil {
			return nil, err
		}
		if store, err = dbtransaction.New(bot.DB); err != nil {
			return nil, err
		}
		if cfg.PositionManager.PersistSnapshots {
			if sink, err = position.New(bot.DB); err != nil {
				return nil, err
			}
		}
	} else {
		log.Warnln(log.Global, "Database support disabled, transactions will not survive a restart")
		store = NewMemoryStore()
	}

	bot.PositionManager, err = SetupPositionManager(store, contracts, prices, sink, &bot.wg, &cfg.PositionManager)
	if err != nil {
		return nil, err
	}
	return bot, nil
}

// NewPriceSource builds the configured current price source. Static prices
// back up the HTTP source when both are configured
func NewPriceSource(cfg *config.Config) (pricing.Source, error) {
	static, err := pricing.NewStatic(cfg.GetStaticPrices())
	if err != nil {
		return nil, err
	}
	if cfg.Pricing.Source != config.PricingSourceHTTP {
		return static, nil
	}
	h, err := pricing.NewHTTPSource(&pricing.HTTPConfig{
		Endpoint:            cfg.Pricing.HTTP.Endpoint,
		PricePath:           cfg.Pricing.HTTP.PricePath,
		RequestsPerInterval: cfg.Pricing.HTTP.RequestsPerInterval,
		Interval:            cfg.Pricing.HTTP.Interval,
		Timeout:             cfg.Pricing.HTTP.Timeout,
		Verbose:             cfg.PositionManager.Verbose,
	})
	if err != nil {
		return nil, err
	}
	if len(cfg.Pricing.Static) == 0 {
		return h, nil
	}
	return pricing.NewFallback(h, static)
}

func openDBConnection(cfg *database.Config) (db *database.Instance, err error) {
	switch cfg.Driver {
	case database.DBPostgreSQL:
		db, err = dbpsql.Connect(cfg)
	case database.DBSQLite, database.DBSQLite3:
		db, err = dbsqlite3.Connect(cfg.Database)
	default:
		return nil, fmt.Errorf("%w: %q", database.ErrDatabaseSupportDisabled, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("database failed to connect: %w", err)
	}
	return db, nil
}

// MigrateDatabase applies every pending migration found in dir
func (bot *Engine) MigrateDatabase(dir string) error {
	if bot == nil || bot.DB == nil {
		return database.ErrDatabaseNotConnected
	}
	sqlDB, err := bot.DB.GetSQL()
	if err != nil {
		return err
	}
	goose.SetLogger(database.MigrationLogger{})
	return goose.Run("up", sqlDB, repository.GetSQLDialect(), dir, "")
}

// Start starts the enabled subsystems
func (bot *Engine) Start() error {
	if bot == nil {
		return errors.New("engine instance is nil")
	}
	log.Debugf(log.Global, "Ledger '%s' started.", bot.Config.Name)
	log.Debugf(log.Global, "Using data dir: %s", bot.Config.GetDataPath())
	log.Debugf(log.Global,
		"Using %d out of %d logical processors for runtime performance",
		runtime.GOMAXPROCS(-1), runtime.NumCPU())

	if bot.Config.PositionManager.Enabled {
		if err := bot.PositionManager.Start(); err != nil {
			log.Errorf(log.Global, "Position manager unable to start: %v", err)
		}
	}
	if bot.Config.RemoteControl.Enabled {
		if err := bot.startAPIServer(); err != nil {
			return err
		}
	}
	return nil
}

func (bot *Engine) startAPIServer() error {
	router, err := NewRouter(bot.PositionManager)
	if err != nil {
		return err
	}
	rc := bot.Config.RemoteControl
	bot.apiServer = &http.Server{
		Addr:              rc.ListenAddress,
		Handler:           router,
		ReadTimeout:       rc.ReadTimeout,
		ReadHeaderTimeout: rc.ReadTimeout,
		WriteTimeout:      rc.WriteTimeout,
	}
	log.Debugf(log.RESTSys, "HTTP REST server support enabled. Listen URL: http://%s", rc.ListenAddress)
	bot.wg.Add(1)
	go func() {
		defer bot.wg.Done()
		if err := bot.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf(log.RESTSys, "REST server stopped: %v", err)
		}
	}()
	return nil
}

// Stop shuts down every running subsystem and closes the database
func (bot *Engine) Stop() {
	log.Debugln(log.Global, "Engine shutting down..")
	if bot.apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), bot.Config.RemoteControl.WriteTimeout)
		if err := bot.apiServer.Shutdown(ctx); err != nil {
			log.Errorf(log.Global, "REST server unable to stop. Error: %v", err)
		}
		cancel()
	}
	if bot.PositionManager.IsRunning() {
		if err := bot.PositionManager.Stop(); err != nil {
			log.Errorf(log.Global, "Position manager unable to stop. Error: %v", err)
		}
	}
	bot.wg.Wait()
	if bot.DB != nil && bot.DB.IsConnected() {
		if err := bot.DB.CloseConnection(); err != nil {
			log.Errorf(log.Global, "Database connection unable to close. Error: %v", err)
		}
	}
	log.Debugln(log.Global, "Exiting.")
}
