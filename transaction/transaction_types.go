package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Public transaction errors
var (
	// ErrInvalidTransaction is the umbrella error for any transaction that
	// cannot be replayed into a position
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrInstrumentEmpty     = errors.New("instrument empty")
	ErrSideIsInvalid       = errors.New("transaction side is invalid")
	ErrQuantityNotPositive = errors.New("quantity must be positive")
	ErrPriceNotPositive    = errors.New("price must be positive")
	ErrTimeUnset           = errors.New("timestamp unset")
	ErrSourceIDUnset       = errors.New("source id unset")
)

// Side enforces a standard for transaction direction. Direction is never
// encoded in the quantity
type Side uint8

// Side types
const (
	UnknownSide Side = iota
	Buy
	Sell
)

// Transaction is a single executed buy or sell for one instrument. It is
// immutable once sourced from the transaction store
type Transaction struct {
	Instrument string          `json:"instrument"`
	Side       Side            `json:"side"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Timestamp  time.Time       `json:"timestamp"`
	SourceID   string          `json:"sourceId"`
	// Sequence is the insertion order of the transaction and breaks ties
	// between transactions sharing a timestamp
	Sequence uint64 `json:"sequence"`
}
