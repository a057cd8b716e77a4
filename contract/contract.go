package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatInstrument standardises an instrument symbol so that lookups and
// grouping are not sensitive to case or padding
func FormatInstrument(instrument string) string {
	return strings.ToUpper(strings.TrimSpace(instrument))
}

// Validate checks the specification can be used for position maths
func (s *Spec) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil spec", ErrMissingContractSpec)
	}
	if FormatInstrument(s.Instrument) == "" {
		return ErrInstrumentEmpty
	}
	if s.Multiplier <= 0 {
		return fmt.Errorf("%w %v multiplier: %v", ErrInvalidMultiplier, s.Instrument, s.Multiplier)
	}
	return nil
}

// MultiplierDecimal returns the unit multiplier as a decimal
func (s *Spec) MultiplierDecimal() decimal.Decimal {
	return decimal.NewFromInt(s.Multiplier)
}

// NewTable creates a lookup table from contract specifications. Each
// instrument may only be registered once
func NewTable(specs ...Spec) (*Table, error) {
	t := &Table{specs: make(map[string]Spec, len(specs))}
	for i := range specs {
		if err := specs[i].Validate(); err != nil {
			return nil, err
		}
		k := FormatInstrument(specs[i].Instrument)
		if _, ok := t.specs[k]; ok {
			return nil, fmt.Errorf("%w %v", ErrDuplicateContract, k)
		}
		s := specs[i]
		s.Instrument = k
		t.specs[k] = s
	}
	return t, nil
}

// Get returns a copy of the specification for the instrument
func (t *Table) Get(instrument string) (*Spec, error) {
	if t == nil {
		return nil, fmt.Errorf("%w %v", ErrMissingContractSpec, instrument)
	}
	s, ok := t.specs[FormatInstrument(instrument)]
	if !ok {
		return nil, fmt.Errorf("%w %v", ErrMissingContractSpec, instrument)
	}
	return &s, nil
}

// Instruments returns every registered instrument in alphabetical order
func (t *Table) Instruments() []string {
	if t == nil {
		return nil
	}
	resp := make([]string, 0, len(t.specs))
	for k := range t.specs {
		resp = append(resp, k)
	}
	sort.Strings(resp)
	return resp
}

// Len returns the number of registered contracts
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.specs)
}

// String returns the string representation of the contract type
func (c ContractType) String() string {
	switch c {
	case Daily:
		return "day"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case BiMonthly:
		return "bi-monthly"
	case Quarterly:
		return "quarterly"
	case SemiAnnually:
		return "semi-annually"
	case Yearly:
		return "yearly"
	case Perpetual:
		return "perpetual"
	case Unknown:
		return "unknown"
	default:
		return "unset"
	}
}

// StringToContractType converts a string to a contract type
func StringToContractType(s string) (ContractType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unset":
		return UnsetContractType, nil
	case "day", "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "bi-monthly", "bimonthly":
		return BiMonthly, nil
	case "quarterly":
		return Quarterly, nil
	case "semi-annually", "semiannually":
		return SemiAnnually, nil
	case "yearly":
		return Yearly, nil
	case "perpetual":
		return Perpetual, nil
	case "unknown":
		return Unknown, nil
	}
	return UnsetContractType, fmt.Errorf("%w %q", ErrInvalidContractType, s)
}

// MarshalText implements encoding.TextMarshaler
func (c ContractType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *ContractType) UnmarshalText(data []byte) error {
	ct, err := StringToContractType(string(data))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}
