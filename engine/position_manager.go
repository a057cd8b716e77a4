package engine

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/positionledger/positionledger/common/cache"
	"github.com/positionledger/positionledger/config"
	"github.com/positionledger/positionledger/contract"
	dbtransaction "github.com/positionledger/positionledger/database/repository/transaction"
	"github.com/positionledger/positionledger/ledger"
	"github.com/positionledger/positionledger/log"
	"github.com/positionledger/positionledger/pricing"
	"github.com/positionledger/positionledger/transaction"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// SetupPositionManager will boot up the PositionManager. prices and sink
// are optional, without prices every open position is reported unvalued
func SetupPositionManager(store TransactionStore, contracts contract.Lookup, prices pricing.Source, sink SnapshotSink, wg *sync.WaitGroup, cfg *config.PositionManagerConfig) (*PositionManager, error) {
	if store == nil {
		return nil, errNilStore
	}
	if contracts == nil {
		return nil, errNilLookup
	}
	if wg == nil {
		return nil, errNilWG
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w PositionManager", errNilConfig)
	}
	interval := cfg.RevaluationInterval
	if interval <= 0 {
		interval = config.DefaultRevaluationInterval
	}
	cacheSize := cfg.ReplayCacheSize
	if cacheSize == 0 {
		cacheSize = config.DefaultReplayCacheSize
	}
	return &PositionManager{
		shutdown:  make(chan struct{}),
		wg:        wg,
		store:     store,
		sink:      sink,
		contracts: contracts,
		prices:    prices,
		interval:  interval,
		verbose:   cfg.Verbose,
		locks:     make(map[string]*sync.Mutex),
		cache:     cache.NewLRUCache[string, *replayEntry](cacheSize),
	}, nil
}

// IsRunning safely checks whether the subsystem is running
func (m *PositionManager) IsRunning() bool {
	return m != nil && atomic.LoadInt32(&m.started) == 1
}

// Start runs the subsystem
func (m *PositionManager) Start() error {
	if m == nil {
		return fmt.Errorf("position manager %w", ErrNilSubsystem)
	}
	if !atomic.CompareAndSwapInt32(&m.started, 0, 1) {
		return fmt.Errorf("position manager %w", ErrSubSystemAlreadyStarted)
	}
	log.Debugln(log.PositionMgr, "Position manager starting...")
	shutdown := make(chan struct{})
	m.shutdown = shutdown
	m.wg.Add(1)
	go m.run(shutdown)
	return nil
}

// Stop attempts to shutdown the subsystem
func (m *PositionManager) Stop() error {
	if m == nil {
		return fmt.Errorf("position manager %w", ErrNilSubsystem)
	}
	if atomic.LoadInt32(&m.started) == 0 {
		return fmt.Errorf("position manager %w", ErrSubSystemNotStarted)
	}
	log.Debugln(log.PositionMgr, "Position manager shutting down...")
	close(m.shutdown)
	atomic.CompareAndSwapInt32(&m.started, 1, 0)
	return nil
}

// run replays every stored instrument once and then periodically revalues
// the open positions against the current price source until shutdown is closed
func (m *PositionManager) run(shutdown <-chan struct{}) {
	log.Debugln(log.PositionMgr, "Position manager started.")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := m.RecomputeAll(ctx); err != nil {
		log.Errorf(log.PositionMgr, "Position manager initial replay: %v", err)
	}
	tick := time.NewTicker(m.interval)
	defer tick.Stop()
	for {
		select {
		case <-shutdown:
			m.wg.Done()
			log.Debugln(log.PositionMgr, "Position manager shutdown.")
			return
		case <-tick.C:
			if err := m.Revalue(ctx); err != nil {
				log.Errorf(log.PositionMgr, "Position manager revaluation: %v", err)
			}
		}
	}
}

// SubmitTransaction stores a new transaction and returns the instrument's
// snapshot after a full replay. The transaction is rejected without being
// stored when the resulting history cannot be replayed
func (m *PositionManager) SubmitTransaction(ctx context.Context, tx *transaction.Transaction) (*ledger.Snapshot, error) {
	if m == nil {
		return nil, fmt.Errorf("position manager %w", ErrNilSubsystem)
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction", errEmptyParams)
	}
	tx.Instrument = contract.FormatInstrument(tx.Instrument)
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	spec, err := m.contracts.Get(tx.Instrument)
	if err != nil {
		return nil, err
	}

	unlock := m.lockInstrument(tx.Instrument)
	defer unlock()

	existing, err := m.store.ForInstrument(ctx, tx.Instrument)
	if err != nil {
		return nil, err
	}
	var next uint64 = 1
	for i := range existing {
		if existing[i].SourceID == tx.SourceID {
			return nil, fmt.Errorf("%w %v %v", dbtransaction.ErrDuplicateTransaction, tx.Instrument, tx.SourceID)
		}
		if existing[i].Sequence >= next {
			next = existing[i].Sequence + 1
		}
	}
	if tx.Sequence == 0 {
		tx.Sequence = next
	}

	candidate := append(transaction.Copy(existing), *tx)
	transaction.Sort(candidate)
	if _, err = ledger.Reduce(tx.Instrument, candidate, spec); err != nil {
		return nil, fmt.Errorf("transaction %v rejected: %w", tx.SourceID, err)
	}
	if err = m.store.Insert(ctx, *tx); err != nil {
		return nil, err
	}
	if m.verbose {
		log.Debugf(log.PositionMgr, "Stored transaction %v %v %v %d @ %v",
			tx.Instrument, tx.SourceID, tx.Side, tx.Quantity, tx.Price)
	}
	return m.recompute(ctx, tx.Instrument)
}

// RemoveTransaction deletes a stored transaction and returns the
// instrument's snapshot after a full replay
func (m *PositionManager) RemoveTransaction(ctx context.Context, instrument, sourceID string) (*ledger.Snapshot, error) {
	if m == nil {
		return nil, fmt.Errorf("position manager %w", ErrNilSubsystem)
	}
	instrument = contract.FormatInstrument(instrument)
	if instrument == "" || sourceID == "" {
		return nil, fmt.Errorf("%w: instrument and source id", errEmptyParams)
	}
	if _, err := m.contracts.Get(instrument); err != nil {
		return nil, err
	}
	unlock := m.lockInstrument(instrument)
	defer unlock()
	if err := m.store.Delete(ctx, instrument, sourceID); err != nil {
		return nil, err
	}
	return m.recompute(ctx, instrument)
}

// Recompute replays an instrument and returns its current snapshot
func (m *PositionManager) Recompute(ctx context.Context, instrument string) (*ledger.Snapshot, error) {
	if m == nil {
		return nil, fmt.Errorf("position manager %w", ErrNilSubsystem)
	}
	instrument = contract.FormatInstrument(instrument)
	if instrument == "" {
		return nil, fmt.Errorf("%w: instrument", errEmptyParams)
	}
	unlock := m.lockInstrument(instrument)
	defer unlock()
	return m.recompute(ctx, instrument)
}

// RecomputeAll replays every stored instrument concurrently. A failing
// instrument does not prevent the others from being returned, all failures
// are joined into the returned error
func (m *PositionManager) RecomputeAll(ctx context.Context) ([]*ledger.Snapshot, error) {
	if m == nil {
		return nil, fmt.Errorf("position manager %w", ErrNilSubsystem)
	}
	instruments, err := m.store.Instruments(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]*ledger.Snapshot, len(instruments))
	var (
		errs   error
		errMtx sync.Mutex
	)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range instruments {
		g.Go(func() error {
			unlock := m.lockInstrument(instruments[i])
			defer unlock()
			snap, err := m.recompute(ctx, instruments[i])
			if err != nil {
				errMtx.Lock()
				errs = errors.Join(errs, fmt.Errorf("%v: %w", instruments[i], err))
				errMtx.Unlock()
				return nil
			}
			resp[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.DeleteFunc(resp, func(s *ledger.Snapshot) bool { return s == nil }), errs
}

// OpenPositions returns the snapshots of every instrument with a non zero
// position
func (m *PositionManager) OpenPositions(ctx context.Context) ([]*ledger.Snapshot, error) {
	all, err := m.RecomputeAll(ctx)
	return ledger.ActiveSnapshots(all), err
}

// RealisedReports returns the realisation reports of an instrument's
// position cycles
func (m *PositionManager) RealisedReports(ctx context.Context, instrument string) ([]ledger.RealisationReport, error) {
	snap, err := m.Recompute(ctx, instrument)
	if err != nil {
		return nil, err
	}
	return snap.Reports, nil
}

// Revalue marks every cached open position to the current price without
// replaying its transactions
func (m *PositionManager) Revalue(ctx context.Context) error {
	if m == nil {
		return fmt.Errorf("position manager %w", ErrNilSubsystem)
	}
	instruments := m.cache.Keys()
	slices.Sort(instruments)

	var errs error
	for i := range instruments {
		if err := m.revalue(ctx, instruments[i]); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%v: %w", instruments[i], err))
		}
	}
	return errs
}

func (m *PositionManager) revalue(ctx context.Context, instrument string) error {
	unlock := m.lockInstrument(instrument)
	defer unlock()
	entry, ok := m.cache.Peek(instrument)
	if !ok || entry.state.IsFlat() {
		return nil
	}
	spec := entry.spec
	snap, err := m.buildSnapshot(ctx, entry.state, &spec)
	if err != nil {
		return err
	}
	m.cache.Add(instrument, &replayEntry{
		hash:     entry.hash,
		spec:     entry.spec,
		state:    entry.state,
		snapshot: snap,
	})
	return m.persist(ctx, snap)
}

// recompute replays an instrument from its stored transactions. The caller
// must hold the instrument lock
func (m *PositionManager) recompute(ctx context.Context, instrument string) (*ledger.Snapshot, error) {
	spec, err := m.contracts.Get(instrument)
	if err != nil {
		return nil, err
	}
	txs, err := m.store.ForInstrument(ctx, instrument)
	if err != nil {
		return nil, err
	}
	transaction.Sort(txs)
	hash := replayHash(spec, txs)

	entry, ok := m.cache.Get(instrument)

	var state *ledger.PositionState
	if ok && entry.hash == hash {
		state = entry.state
		if m.verbose {
			log.Debugf(log.PositionMgr, "%v replay unchanged, reusing cached state", instrument)
		}
	} else {
		state, err = ledger.Reduce(instrument, txs, spec)
		if err != nil {
			return nil, err
		}
		if m.verbose {
			log.Debugf(log.PositionMgr, "%v replayed %d transactions, position %d", instrument, len(txs), state.SignedQuantity)
		}
	}

	snap, err := m.buildSnapshot(ctx, state, spec)
	if err != nil {
		return nil, err
	}
	m.cache.Add(instrument, &replayEntry{
		hash:     hash,
		spec:     *spec,
		state:    state,
		snapshot: snap,
	})
	if err := m.persist(ctx, snap); err != nil {
		return nil, err
	}
	return cloneSnapshot(snap), nil
}

func (m *PositionManager) buildSnapshot(ctx context.Context, state *ledger.PositionState, spec *contract.Spec) (*ledger.Snapshot, error) {
	var price decimal.NullDecimal
	if m.prices != nil && !state.IsFlat() {
		var err error
		price, err = m.prices.CurrentPrice(ctx, state.Instrument)
		if err != nil {
			log.Warnf(log.PositionMgr, "%v current price unavailable: %v", state.Instrument, err)
			price = decimal.NullDecimal{}
		}
	}
	if price.Valid || state.IsFlat() {
		return ledger.BuildSnapshot(state, spec, price)
	}
	return ledger.BuildUnvaluedSnapshot(state, spec)
}

func (m *PositionManager) persist(ctx context.Context, snap *ledger.Snapshot) error {
	if m.sink == nil {
		return nil
	}
	if err := m.sink.Upsert(ctx, snap); err != nil {
		return fmt.Errorf("persisting %v snapshot: %w", snap.Net.Instrument, err)
	}
	return nil
}

func (m *PositionManager) lockInstrument(instrument string) func() {
	m.locksMtx.Lock()
	l, ok := m.locks[instrument]
	if !ok {
		l = new(sync.Mutex)
		m.locks[instrument] = l
	}
	m.locksMtx.Unlock()
	l.Lock()
	return l.Unlock
}

// replayHash fingerprints everything a replay depends on
func replayHash(spec *contract.Spec, txs []transaction.Transaction) [sha256.Size]byte {
	h := sha256.New()
	var buf [8]byte
	writeInt := func(v int64) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeString := func(s string) {
		writeInt(int64(len(s)))
		h.Write([]byte(s))
	}
	writeString(contract.FormatInstrument(spec.Instrument))
	writeInt(spec.Multiplier)
	for i := range txs {
		writeString(txs[i].Instrument)
		writeInt(int64(txs[i].Side))
		writeInt(txs[i].Quantity)
		writeString(txs[i].Price.String())
		writeInt(txs[i].Timestamp.UnixNano())
		writeString(txs[i].SourceID)
		writeInt(int64(txs[i].Sequence))
	}
	var resp [sha256.Size]byte
	copy(resp[:], h.Sum(nil))
	return resp
}

// cloneSnapshot hands callers a snapshot they cannot use to alter the cache
func cloneSnapshot(s *ledger.Snapshot) *ledger.Snapshot {
	cpy := *s
	cpy.State = s.State.Copy()
	cpy.Reports = slices.Clone(s.Reports)
	return &cpy
}
