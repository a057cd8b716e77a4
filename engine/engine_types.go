package engine

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/positionledger/positionledger/config"
	"github.com/positionledger/positionledger/database"
	"github.com/positionledger/positionledger/ledger"
	"github.com/positionledger/positionledger/transaction"
)

// Subsystem lifecycle errors
var (
	ErrNilSubsystem            = errors.New("subsystem not setup")
	ErrSubSystemAlreadyStarted = errors.New("subsystem already started")
	ErrSubSystemNotStarted     = errors.New("subsystem not started")

	errNilConfig   = errors.New("received nil config")
	errNilStore    = errors.New("transaction store is nil")
	errNilLookup   = errors.New("contract lookup is nil")
	errNilManager  = errors.New("position manager is nil")
	errNilWG       = errors.New("nil wait group received")
	errEmptyParams = errors.New("required parameter is empty")
)

// TransactionStore holds the ledger's input transactions
type TransactionStore interface {
	Insert(ctx context.Context, txs ...transaction.Transaction) error
	Delete(ctx context.Context, instrument, sourceID string) error
	ForInstrument(ctx context.Context, instrument string) ([]transaction.Transaction, error)
	Instruments(ctx context.Context) ([]string, error)
}

// SnapshotSink receives every recomputed snapshot
type SnapshotSink interface {
	Upsert(ctx context.Context, snapshots ...*ledger.Snapshot) error
}

// Engine wires the configured subsystems together
type Engine struct {
	Config          *config.Config
	DB              *database.Instance
	PositionManager *PositionManager
	apiServer       *http.Server
	wg              sync.WaitGroup
}
