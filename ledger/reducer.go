package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/positionledger/positionledger/contract"
	"github.com/positionledger/positionledger/transaction"
	"github.com/shopspring/decimal"
)

// Classify determines how a signed transaction quantity acts on the standing
// signed quantity
func Classify(standing, signed int64) TransactionKind {
	switch {
	case signed == 0:
		return UnknownKind
	case standing == 0:
		return Opening
	case (standing > 0) == (signed > 0):
		return Reinforcement
	case abs(signed) <= abs(standing):
		return Reduction
	default:
		return Inversion
	}
}

// Reduce replays an instrument's transactions into a position. The
// transactions must already be in replay order, see transaction.Sort. Ordering
// is verified rather than repaired: transactions sharing a timestamp and a
// sequence return ErrOrderingAmbiguity
func Reduce(instrument string, sorted []transaction.Transaction, spec *contract.Spec) (*PositionState, error) {
	instrument = contract.FormatInstrument(instrument)
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%v %w", instrument, err)
	}
	if contract.FormatInstrument(spec.Instrument) != instrument {
		return nil, fmt.Errorf("%w spec %v ledger %v", ErrInstrumentMismatch, spec.Instrument, instrument)
	}
	p := &PositionState{
		Instrument: instrument,
		Trace:      make([]Step, 0, len(sorted)),
	}
	multiplier := spec.MultiplierDecimal()
	for i := range sorted {
		tx := &sorted[i]
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		if contract.FormatInstrument(tx.Instrument) != instrument {
			return nil, fmt.Errorf("%w transaction %v instrument %v ledger %v",
				ErrInstrumentMismatch, tx.SourceID, tx.Instrument, instrument)
		}
		if i > 0 {
			if err := checkOrder(&sorted[i-1], tx); err != nil {
				return nil, err
			}
		}
		if err := p.apply(tx, multiplier); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func checkOrder(prev, next *transaction.Transaction) error {
	switch {
	case next.Timestamp.Before(prev.Timestamp):
		return fmt.Errorf("%w %v at %v follows %v at %v",
			ErrUnsortedTransactions, next.SourceID, next.Timestamp, prev.SourceID, prev.Timestamp)
	case !next.Timestamp.Equal(prev.Timestamp):
		return nil
	case next.Sequence == prev.Sequence:
		return fmt.Errorf("%w transactions %v and %v share timestamp %v and sequence %v",
			ErrOrderingAmbiguity, prev.SourceID, next.SourceID, next.Timestamp, next.Sequence)
	case next.Sequence < prev.Sequence:
		return fmt.Errorf("%w %v sequence %v follows %v sequence %v",
			ErrUnsortedTransactions, next.SourceID, next.Sequence, prev.SourceID, prev.Sequence)
	}
	return nil
}

// apply folds a single validated transaction into the position
func (p *PositionState) apply(tx *transaction.Transaction, multiplier decimal.Decimal) error {
	signed := tx.Signed()
	step := Step{
		Time:           tx.Timestamp,
		SourceID:       tx.SourceID,
		Sequence:       tx.Sequence,
		Kind:           Classify(p.SignedQuantity, signed),
		Signed:         signed,
		Price:          tx.Price,
		QuantityBefore: p.SignedQuantity,
	}
	switch step.Kind {
	case Opening:
		p.open(tx, signed)
	case Reinforcement:
		if overflows(p.SignedQuantity, signed) {
			return fmt.Errorf("%w %v transaction %v quantity %v on %v",
				ErrQuantityOverflow, p.Instrument, tx.SourceID, signed, p.SignedQuantity)
		}
		held := decimal.NewFromInt(abs(p.SignedQuantity))
		added := decimal.NewFromInt(abs(signed))
		avg := held.Mul(p.AveragePrice).Add(added.Mul(tx.Price)).Div(held.Add(added))
		if !avg.IsPositive() {
			return fmt.Errorf("%w %v transaction %v", ErrInvalidAveragePrice, p.Instrument, tx.SourceID)
		}
		p.AveragePrice = avg
		p.SignedQuantity += signed
	case Reduction:
		if p.cycleClosed > math.MaxInt64-abs(signed) {
			return fmt.Errorf("%w %v transaction %v liquidated quantity of cycle %v",
				ErrQuantityOverflow, p.Instrument, tx.SourceID, p.Cycle)
		}
		step.RealisedPNL = p.realise(tx, abs(signed), Reduction, multiplier)
		p.SignedQuantity += signed
		if p.SignedQuantity == 0 {
			p.flatten()
		}
	case Inversion:
		if p.cycleClosed > math.MaxInt64-abs(p.SignedQuantity) {
			return fmt.Errorf("%w %v transaction %v liquidated quantity of cycle %v",
				ErrQuantityOverflow, p.Instrument, tx.SourceID, p.Cycle)
		}
		residual := p.SignedQuantity + signed
		step.RealisedPNL = p.realise(tx, abs(p.SignedQuantity), Inversion, multiplier)
		p.flatten()
		p.open(tx, residual)
	default:
		return fmt.Errorf("%w %v cannot classify transaction %v", transaction.ErrInvalidTransaction, p.Instrument, tx.SourceID)
	}
	step.QuantityAfter = p.SignedQuantity
	step.AveragePriceAfter = p.AveragePrice
	p.Trace = append(p.Trace, step)
	p.LastUpdated = tx.Timestamp
	return nil
}

// open starts a new position cycle at the transaction price
func (p *PositionState) open(tx *transaction.Transaction, signed int64) {
	p.Cycle++
	p.cycleClosed = 0
	p.SignedQuantity = signed
	p.AveragePrice = tx.Price
	p.OpenedAt = tx.Timestamp
}

// flatten clears the fields which are meaningless without an open quantity
func (p *PositionState) flatten() {
	p.SignedQuantity = 0
	p.AveragePrice = decimal.Zero
	p.OpenedAt = time.Time{}
}

// realise books the pnl of closing quantity of the standing position at the
// transaction price and records the event. The average price is not changed
func (p *PositionState) realise(tx *transaction.Transaction, closed int64, trigger TransactionKind, multiplier decimal.Decimal) decimal.Decimal {
	diff := tx.Price.Sub(p.AveragePrice)
	direction := p.Direction()
	if direction == Short {
		diff = diff.Neg()
	}
	pnl := decimal.NewFromInt(closed).Mul(multiplier).Mul(diff)
	kind := PartialReduction
	if trigger == Inversion || closed == abs(p.SignedQuantity) {
		kind = FullClose
	}
	p.Events = append(p.Events, RealisationEvent{
		Time:           tx.Timestamp,
		SourceID:       tx.SourceID,
		Cycle:          p.Cycle,
		Kind:           kind,
		Trigger:        trigger,
		Direction:      direction,
		QuantityClosed: closed,
		EntryPrice:     p.AveragePrice,
		ExitPrice:      tx.Price,
		PNL:            pnl,
	})
	p.RealisedPNL = p.RealisedPNL.Add(pnl)
	p.cycleClosed += closed
	return pnl
}

// overflows reports whether standing+signed leaves [-MaxInt64, MaxInt64].
// MinInt64 is excluded so abs never wraps
func overflows(standing, signed int64) bool {
	if signed > 0 {
		return standing > math.MaxInt64-signed
	}
	return standing < -math.MaxInt64-signed
}

func abs(i int64) int64 {
	if i < 0 {
		return -i
	}
	return i
}
