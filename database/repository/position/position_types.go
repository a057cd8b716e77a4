package position

import (
	"errors"
	"time"

	"github.com/positionledger/positionledger/database"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"
)

// ErrPositionNotFound is returned when no snapshot is stored for an instrument
var ErrPositionNotFound = errors.New("position snapshot not found")

// Repository persists computed position snapshots. Rows are derived output
// and are fully rewritten on every upsert
type Repository struct {
	db *database.Instance
}

// Data is a stored position snapshot
type Data struct {
	Instrument     string
	SignedQuantity int64
	Direction      string
	AveragePrice   decimal.NullDecimal
	RealisedPNL    decimal.Decimal
	CurrentPrice   decimal.NullDecimal
	UnrealisedPNL  decimal.Decimal
	Exposure       decimal.Decimal
	Cycle          int
	OpenedAt       time.Time
	UpdatedAt      time.Time
}

// Event is a stored realisation event. Index is the event's position in the
// instrument's replay
type Event struct {
	Instrument     string
	Index          int
	Cycle          int
	Kind           string
	Trigger        string
	Direction      string
	QuantityClosed int64
	EntryPrice     decimal.Decimal
	ExitPrice      decimal.Decimal
	PNL            decimal.Decimal
	SourceID       string
	RealisedAt     time.Time
}

type snapshotRow struct {
	Instrument     string      `boil:"instrument"`
	SignedQuantity int64       `boil:"signed_quantity"`
	Direction      string      `boil:"direction"`
	AveragePrice   null.String `boil:"average_price"`
	RealisedPNL    string      `boil:"realised_pnl"`
	CurrentPrice   null.String `boil:"current_price"`
	UnrealisedPNL  string      `boil:"unrealised_pnl"`
	Exposure       string      `boil:"exposure"`
	Cycle          int         `boil:"cycle"`
	OpenedAt       null.Int64  `boil:"opened_at"`
	UpdatedAt      int64       `boil:"updated_at"`
}

type eventRow struct {
	Instrument     string `boil:"instrument"`
	Index          int    `boil:"event_index"`
	Cycle          int    `boil:"cycle"`
	Kind           string `boil:"kind"`
	Trigger        string `boil:"trigger_kind"`
	Direction      string `boil:"direction"`
	QuantityClosed int64  `boil:"quantity_closed"`
	EntryPrice     string `boil:"entry_price"`
	ExitPrice      string `boil:"exit_price"`
	PNL            string `boil:"pnl"`
	SourceID       string `boil:"source_id"`
	RealisedAt     int64  `boil:"realised_at"`
}
