package engine

import (
	"crypto/sha256"
	"sync"
	"time"

	"github.com/positionledger/positionledger/common/cache"
	"github.com/positionledger/positionledger/contract"
	"github.com/positionledger/positionledger/ledger"
	"github.com/positionledger/positionledger/pricing"
)

// PositionManager owns the replay of every instrument. Mutations of an
// instrument are serialised and always followed by a full replay of its
// stored transactions
type PositionManager struct {
	started   int32
	shutdown  chan struct{}
	wg        *sync.WaitGroup
	store     TransactionStore
	sink      SnapshotSink
	contracts contract.Lookup
	prices    pricing.Source
	interval  time.Duration
	verbose   bool

	locksMtx sync.Mutex
	locks    map[string]*sync.Mutex

	cache *cache.LRU[string, *replayEntry]
}

// replayEntry memoises the last replay of an instrument keyed by the hash of
// its ordered transactions and contract multiplier
type replayEntry struct {
	hash     [sha256.Size]byte
	spec     contract.Spec
	state    *ledger.PositionState
	snapshot *ledger.Snapshot
}
