package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/positionledger/positionledger/transaction"
	"github.com/shopspring/decimal"
)

// Public ledger errors
var (
	// ErrOrderingAmbiguity is returned when two transactions share a timestamp
	// and an insertion sequence, so their replay order cannot be determined
	ErrOrderingAmbiguity = errors.New("ordering ambiguity")
	// ErrUnsortedTransactions is returned when a reducer receives
	// transactions out of replay order
	ErrUnsortedTransactions = errors.New("transactions are not in replay order")
	// ErrInvalidValuation is returned when an open position is valued without
	// a usable current price
	ErrInvalidValuation = errors.New("invalid valuation")
	// ErrInvalidAveragePrice is returned if an open position would carry a
	// non-positive average price
	ErrInvalidAveragePrice = errors.New("average price must be positive while a position is open")
	// ErrInstrumentMismatch is returned when a transaction does not belong to
	// the instrument being reduced
	ErrInstrumentMismatch = errors.New("transaction instrument does not match")
	// ErrQuantityOverflow is returned when a transaction would take the signed
	// quantity outside of +/- math.MaxInt64
	ErrQuantityOverflow = fmt.Errorf("%w: position quantity overflow", transaction.ErrInvalidTransaction)

	errNilState = errors.New("nil position state")
)

// TransactionKind classifies how a transaction affects the standing position
type TransactionKind uint8

// Transaction kinds
const (
	UnknownKind TransactionKind = iota
	Opening
	Reinforcement
	Reduction
	Inversion
)

// EventKind describes a realisation event. A full close is a reduction or
// inversion that drives the standing quantity to exactly zero
type EventKind uint8

// Realisation event kinds
const (
	UnknownEvent EventKind = iota
	PartialReduction
	FullClose
)

// Direction is the net direction of a position
type Direction uint8

// Directions
const (
	Flat Direction = iota
	Long
	Short
)

// ReportStatus is the state of a position cycle at the time of reporting
type ReportStatus uint8

// Report statuses
const (
	UnknownStatus ReportStatus = iota
	PartiallyReduced
	FullyClosed
)

// PositionState is the result of replaying an instrument's full transaction
// history. It is rebuilt from scratch on every replay and never patched
type PositionState struct {
	Instrument     string          `json:"instrument"`
	SignedQuantity int64           `json:"signedQuantity"`
	AveragePrice   decimal.Decimal `json:"averagePrice"`
	RealisedPNL    decimal.Decimal `json:"realisedPNL"`
	// Cycle counts how many times a position has been opened from flat,
	// an inversion opens a new cycle
	Cycle       int                `json:"cycle"`
	OpenedAt    time.Time          `json:"openedAt"`
	LastUpdated time.Time          `json:"lastUpdated"`
	Events      []RealisationEvent `json:"events"`
	Trace       []Step             `json:"trace"`

	// cycleClosed is the quantity realised so far in the current cycle
	cycleClosed int64
}

// RealisationEvent is recorded every time a transaction reduces the
// magnitude of the standing position
type RealisationEvent struct {
	Time     time.Time `json:"time"`
	SourceID string    `json:"sourceId"`
	Cycle    int       `json:"cycle"`
	Kind     EventKind `json:"kind"`
	// Trigger is the kind of transaction that caused the event, either a
	// reduction or an inversion
	Trigger        TransactionKind `json:"trigger"`
	Direction      Direction       `json:"direction"`
	QuantityClosed int64           `json:"quantityClosed"`
	EntryPrice     decimal.Decimal `json:"entryPrice"`
	ExitPrice      decimal.Decimal `json:"exitPrice"`
	PNL            decimal.Decimal `json:"pnl"`
}

// Step records how a single transaction was classified and what it did
type Step struct {
	Time              time.Time       `json:"time"`
	SourceID          string          `json:"sourceId"`
	Sequence          uint64          `json:"sequence"`
	Kind              TransactionKind `json:"kind"`
	Signed            int64           `json:"signed"`
	Price             decimal.Decimal `json:"price"`
	QuantityBefore    int64           `json:"quantityBefore"`
	QuantityAfter     int64           `json:"quantityAfter"`
	AveragePriceAfter decimal.Decimal `json:"averagePriceAfter"`
	RealisedPNL       decimal.Decimal `json:"realisedPNL"`
}

// RealisationReport summarises the consecutive realisation events of one
// position cycle
type RealisationReport struct {
	Instrument         string          `json:"instrument"`
	Cycle              int             `json:"cycle"`
	Direction          Direction       `json:"direction"`
	Status             ReportStatus    `json:"status"`
	QuantityLiquidated int64           `json:"quantityLiquidated"`
	RealisedPNL        decimal.Decimal `json:"realisedPNL"`
	AverageEntryPrice  decimal.Decimal `json:"averageEntryPrice"`
	AverageExitPrice   decimal.Decimal `json:"averageExitPrice"`
	FirstRealisedAt    time.Time       `json:"firstRealisedAt"`
	LastRealisedAt     time.Time       `json:"lastRealisedAt"`
	Events             int             `json:"events"`
}

// Valuation holds the mark to market figures of a position
type Valuation struct {
	CurrentPrice  decimal.NullDecimal `json:"currentPrice"`
	UnrealisedPNL decimal.Decimal     `json:"unrealisedPNL"`
	Exposure      decimal.Decimal     `json:"exposure"`
}

// NetPosition is the point in time view of an instrument's position
type NetPosition struct {
	Instrument     string              `json:"instrument"`
	SignedQuantity int64               `json:"signedQuantity"`
	Direction      Direction           `json:"direction"`
	AveragePrice   decimal.Decimal     `json:"averagePrice"`
	RealisedPNL    decimal.Decimal     `json:"realisedPNL"`
	CurrentPrice   decimal.NullDecimal `json:"currentPrice"`
	UnrealisedPNL  decimal.Decimal     `json:"unrealisedPNL"`
	Exposure       decimal.Decimal     `json:"exposure"`
}

// Snapshot is the complete computed output for one instrument, ready to be
// persisted or rendered by the caller
type Snapshot struct {
	State   *PositionState      `json:"state"`
	Net     NetPosition         `json:"net"`
	Reports []RealisationReport `json:"reports"`
}
