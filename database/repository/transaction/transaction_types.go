package transaction

import (
	"errors"

	"github.com/positionledger/positionledger/database"
)

var (
	// ErrDuplicateTransaction is returned when a source id is already stored
	// for the instrument
	ErrDuplicateTransaction = errors.New("transaction already stored")
	// ErrTransactionNotFound is returned when deleting an unknown transaction
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Repository stores the ledger's input transactions
type Repository struct {
	db *database.Instance
}

type row struct {
	ID         string `boil:"id"`
	Instrument string `boil:"instrument"`
	Side       string `boil:"side"`
	Quantity   int64  `boil:"quantity"`
	Price      string `boil:"price"`
	Timestamp  int64  `boil:"timestamp"`
	SourceID   string `boil:"source_id"`
	Sequence   int64  `boil:"sequence"`
}
