package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/positionledger/positionledger/contract"
	dbtransaction "github.com/positionledger/positionledger/database/repository/transaction"
	"github.com/positionledger/positionledger/transaction"
)

// MemoryStore is a TransactionStore used when no database is configured.
// Its contents are lost on shutdown
type MemoryStore struct {
	m            sync.RWMutex
	transactions map[string][]transaction.Transaction
}

// NewMemoryStore returns an empty in memory transaction store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{transactions: make(map[string][]transaction.Transaction)}
}

// Insert stores the transactions. Nothing is stored if any transaction is
// invalid or already present
func (s *MemoryStore) Insert(_ context.Context, txs ...transaction.Transaction) error {
	s.m.Lock()
	defer s.m.Unlock()
	seen := make(map[string]struct{}, len(txs))
	for i := range txs {
		txs[i].Instrument = contract.FormatInstrument(txs[i].Instrument)
		if err := txs[i].Validate(); err != nil {
			return err
		}
		key := txs[i].Instrument + "/" + txs[i].SourceID
		if _, ok := seen[key]; ok || s.contains(txs[i].Instrument, txs[i].SourceID) {
			return fmt.Errorf("%w %v %v", dbtransaction.ErrDuplicateTransaction, txs[i].Instrument, txs[i].SourceID)
		}
		seen[key] = struct{}{}
	}
	for i := range txs {
		s.transactions[txs[i].Instrument] = append(s.transactions[txs[i].Instrument], txs[i])
	}
	return nil
}

func (s *MemoryStore) contains(instrument, sourceID string) bool {
	for i := range s.transactions[instrument] {
		if s.transactions[instrument][i].SourceID == sourceID {
			return true
		}
	}
	return false
}

// Delete removes a stored transaction
func (s *MemoryStore) Delete(_ context.Context, instrument, sourceID string) error {
	instrument = contract.FormatInstrument(instrument)
	s.m.Lock()
	defer s.m.Unlock()
	stored := s.transactions[instrument]
	for i := range stored {
		if stored[i].SourceID != sourceID {
			continue
		}
		stored = slices.Delete(stored, i, i+1)
		if len(stored) == 0 {
			delete(s.transactions, instrument)
		} else {
			s.transactions[instrument] = stored
		}
		return nil
	}
	return fmt.Errorf("%w %v %v", dbtransaction.ErrTransactionNotFound, instrument, sourceID)
}

// ForInstrument returns a sorted copy of an instrument's transactions
func (s *MemoryStore) ForInstrument(_ context.Context, instrument string) ([]transaction.Transaction, error) {
	s.m.RLock()
	resp := transaction.Copy(s.transactions[contract.FormatInstrument(instrument)])
	s.m.RUnlock()
	transaction.Sort(resp)
	return resp, nil
}

// Instruments returns every instrument with at least one transaction
func (s *MemoryStore) Instruments(context.Context) ([]string, error) {
	s.m.RLock()
	resp := make([]string, 0, len(s.transactions))
	for k := range s.transactions {
		resp = append(resp, k)
	}
	s.m.RUnlock()
	slices.Sort(resp)
	return resp, nil
}
