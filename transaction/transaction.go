package transaction

import (
	"fmt"
	"sort"
	"strings"
)

// String implements the stringer interface
func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Lower returns the side string in lower case
func (s Side) Lower() string {
	return strings.ToLower(s.String())
}

// IsValid returns whether the side is buy or sell
func (s Side) IsValid() bool {
	return s == Buy || s == Sell
}

// MarshalText implements encoding.TextMarshaler
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Side) UnmarshalText(data []byte) error {
	side, err := StringToSide(string(data))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// StringToSide converts a string to a transaction side
func StringToSide(side string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case "BUY", "BID", "LONG", "B":
		return Buy, nil
	case "SELL", "ASK", "SHORT", "S":
		return Sell, nil
	}
	return UnknownSide, fmt.Errorf("%q %w", side, ErrSideIsInvalid)
}

// Signed returns the quantity with the direction applied, positive for a buy
// and negative for a sell
func (t *Transaction) Signed() int64 {
	if t.Side == Sell {
		return -t.Quantity
	}
	return t.Quantity
}

// Validate checks that a transaction can be replayed. Any failure is wrapped
// in ErrInvalidTransaction
func (t *Transaction) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil transaction", ErrInvalidTransaction)
	}
	var err error
	switch {
	case strings.TrimSpace(t.Instrument) == "":
		err = ErrInstrumentEmpty
	case !t.Side.IsValid():
		err = ErrSideIsInvalid
	case t.Quantity <= 0:
		err = ErrQuantityNotPositive
	case !t.Price.IsPositive():
		err = ErrPriceNotPositive
	case t.Timestamp.IsZero():
		err = ErrTimeUnset
	default:
		return nil
	}
	return fmt.Errorf("%w: %w instrument: %q source: %q", ErrInvalidTransaction, err, t.Instrument, t.SourceID)
}

// Less reports whether t is replayed before o. Transactions are ordered by
// timestamp, then by insertion sequence
func (t *Transaction) Less(o *Transaction) bool {
	if !t.Timestamp.Equal(o.Timestamp) {
		return t.Timestamp.Before(o.Timestamp)
	}
	return t.Sequence < o.Sequence
}

// Sort orders transactions for replay, in place
func Sort(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Less(&txs[j])
	})
}

// AssignSequence stamps the current slice order as the insertion sequence,
// starting at start. Only use this when the source already guarantees the
// slice is in insertion order
func AssignSequence(txs []Transaction, start uint64) {
	for i := range txs {
		txs[i].Sequence = start + uint64(i)
	}
}

// Copy returns a copy of the transactions so callers can hand out an
// immutable snapshot
func Copy(txs []Transaction) []Transaction {
	if txs == nil {
		return nil
	}
	cpy := make([]Transaction, len(txs))
	copy(cpy, txs)
	return cpy
}
