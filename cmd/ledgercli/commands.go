package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/positionledger/positionledger/contract"
	"github.com/positionledger/positionledger/database"
	dbpsql "github.com/positionledger/positionledger/database/drivers/postgres"
	dbsqlite3 "github.com/positionledger/positionledger/database/drivers/sqlite3"
	"github.com/positionledger/positionledger/database/repository/position"
	"github.com/positionledger/positionledger/encoding/json"
	"github.com/positionledger/positionledger/ledger"
	"github.com/positionledger/positionledger/transaction"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

var errDatabaseDisabled = errors.New("database support is disabled in config")

var replayCommand = &cli.Command{
	Name:      "replay",
	Usage:     "replays a JSON file of transactions and prints a snapshot per instrument",
	ArgsUsage: "<file>",
	Action:    replayFile,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "the JSON array of transactions to replay, - reads stdin",
		},
		&cli.BoolFlag{
			Name:    "open",
			Aliases: []string{"o"},
			Usage:   "only print instruments with an open position",
		},
	},
}

var positionsCommand = &cli.Command{
	Name:   "positions",
	Usage:  "prints the stored position snapshots",
	Action: getPositions,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "all",
			Aliases: []string{"a"},
			Usage:   "include flat positions",
		},
	},
}

var realisedCommand = &cli.Command{
	Name:      "realised",
	Usage:     "prints the stored realisation events of an instrument",
	ArgsUsage: "<instrument>",
	Action:    getRealised,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "instrument",
			Aliases: []string{"i"},
			Usage:   "the instrument to print events for",
		},
	},
}

func replayFile(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	file := c.String("file")
	if !c.IsSet("file") {
		file = c.Args().First()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	contracts, err := cfg.GetContractTable()
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	txs, err := decodeTransactions(r)
	if err != nil {
		return err
	}
	snapshots, err := replay(txs, contracts, cfg.GetStaticPrices())
	if c.Bool("open") {
		snapshots = ledger.ActiveSnapshots(snapshots)
	}
	if !verbose {
		for i := range snapshots {
			snapshots[i].State.Trace = nil
		}
	}
	jsonOutput(snapshots)
	return err
}

// decodeTransactions reads a JSON array of transactions. When no sequence is
// supplied the file order is taken as the insertion order
func decodeTransactions(r io.Reader) ([]transaction.Transaction, error) {
	var txs []transaction.Transaction
	if err := json.NewDecoder(r).Decode(&txs); err != nil {
		return nil, fmt.Errorf("%w: %w", transaction.ErrInvalidTransaction, err)
	}
	for i := range txs {
		if txs[i].Sequence != 0 {
			return txs, nil
		}
	}
	transaction.AssignSequence(txs, 1)
	return txs, nil
}

// replay aggregates every instrument in the set. Instruments that fail are
// reported in the error while the rest are still returned
func replay(txs []transaction.Transaction, contracts contract.Lookup, prices map[string]decimal.Decimal) ([]*ledger.Snapshot, error) {
	states, errs := ledger.Aggregate(txs, contracts)
	instruments := ledger.Instruments(states)
	resp := make([]*ledger.Snapshot, 0, len(instruments))
	for _, instrument := range instruments {
		spec, err := contracts.Get(instrument)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		var snap *ledger.Snapshot
		if p, ok := prices[instrument]; ok {
			snap, err = ledger.BuildSnapshot(states[instrument], spec, decimal.NewNullDecimal(p))
		} else {
			snap, err = ledger.BuildUnvaluedSnapshot(states[instrument], spec)
		}
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%v: %w", instrument, err))
			continue
		}
		resp = append(resp, snap)
	}
	return resp, errs
}

func openDatabase() (*database.Instance, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Database.Enabled {
		return nil, errDatabaseDisabled
	}
	switch cfg.Database.Driver {
	case database.DBPostgreSQL:
		return dbpsql.Connect(&cfg.Database)
	case database.DBSQLite, database.DBSQLite3:
		return dbsqlite3.Connect(cfg.Database.Database)
	}
	return nil, fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
}

func getPositions(c *cli.Context) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.CloseConnection()
	repo, err := position.New(db)
	if err != nil {
		return err
	}
	var resp []position.Data
	if c.Bool("all") {
		resp, err = repo.All(c.Context)
	} else {
		resp, err = repo.Open(c.Context)
	}
	if err != nil {
		return err
	}
	jsonOutput(resp)
	return nil
}

func getRealised(c *cli.Context) error {
	if c.NArg() == 0 && c.NumFlags() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	instrument := c.String("instrument")
	if !c.IsSet("instrument") {
		instrument = c.Args().First()
	}
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.CloseConnection()
	repo, err := position.New(db)
	if err != nil {
		return err
	}
	resp, err := repo.Events(c.Context, contract.FormatInstrument(instrument))
	if err != nil {
		return err
	}
	jsonOutput(resp)
	return nil
}
