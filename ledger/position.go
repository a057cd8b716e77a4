package ledger

import "strings"

// Direction returns the net direction of the position
func (p *PositionState) Direction() Direction {
	switch {
	case p == nil || p.SignedQuantity == 0:
		return Flat
	case p.SignedQuantity > 0:
		return Long
	default:
		return Short
	}
}

// IsFlat returns true when the position has no open quantity
func (p *PositionState) IsFlat() bool {
	return p == nil || p.SignedQuantity == 0
}

// Quantity returns the absolute open quantity
func (p *PositionState) Quantity() int64 {
	if p == nil {
		return 0
	}
	return abs(p.SignedQuantity)
}

// Copy returns a deep copy of the position state
func (p *PositionState) Copy() *PositionState {
	if p == nil {
		return nil
	}
	cpy := *p
	if p.Events != nil {
		cpy.Events = make([]RealisationEvent, len(p.Events))
		copy(cpy.Events, p.Events)
	}
	if p.Trace != nil {
		cpy.Trace = make([]Step, len(p.Trace))
		copy(cpy.Trace, p.Trace)
	}
	return &cpy
}

// String implements the stringer interface
func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// String implements the stringer interface
func (k TransactionKind) String() string {
	switch k {
	case Opening:
		return "OPENING"
	case Reinforcement:
		return "REINFORCEMENT"
	case Reduction:
		return "REDUCTION"
	case Inversion:
		return "INVERSION"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k TransactionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// String implements the stringer interface
func (k EventKind) String() string {
	switch k {
	case PartialReduction:
		return "REDUCTION"
	case FullClose:
		return "FULL_CLOSE"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// String implements the stringer interface
func (s ReportStatus) String() string {
	switch s {
	case PartiallyReduced:
		return "PARTIALLY_REDUCED"
	case FullyClosed:
		return "FULLY_CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Lower returns the status in lower case
func (s ReportStatus) Lower() string {
	return strings.ToLower(s.String())
}

// MarshalText implements encoding.TextMarshaler
func (s ReportStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
