package contract

import "errors"

// Public contract errors
var (
	// ErrMissingContractSpec is returned when an instrument has no registered
	// multiplier. A multiplier is never defaulted
	ErrMissingContractSpec = errors.New("missing contract specification")
	ErrInvalidMultiplier   = errors.New("contract multiplier must be positive")
	ErrInstrumentEmpty     = errors.New("contract instrument empty")
	ErrDuplicateContract   = errors.New("contract specification already registered")
	ErrInvalidContractType = errors.New("invalid contract type")
)

// Lookup resolves the contract specification for an instrument
type Lookup interface {
	Get(instrument string) (*Spec, error)
}

// Spec holds the fixed details of a futures contract. The multiplier converts
// a per unit price multiplied by a number of contracts into monetary value
type Spec struct {
	Instrument string       `json:"instrument"`
	Name       string       `json:"name,omitempty"`
	Exchange   string       `json:"exchange,omitempty"`
	Underlying string       `json:"underlying,omitempty"`
	Unit       string       `json:"unit,omitempty"`
	Type       ContractType `json:"type"`
	Multiplier int64        `json:"multiplier"`
}

// Table is an immutable instrument to specification lookup
type Table struct {
	specs map[string]Spec
}

// ContractType holds the various style of contracts offered by futures exchanges
type ContractType uint8

// Contract type definitions
const (
	UnsetContractType ContractType = iota
	Daily
	Weekly
	Monthly
	BiMonthly
	Quarterly
	SemiAnnually
	Yearly
	Perpetual
	Unknown
)
