package ledger

import (
	"fmt"

	"github.com/positionledger/positionledger/contract"
	"github.com/shopspring/decimal"
)

// Value marks the open quantity of a position against the current price.
// A flat position values to zero and does not require a price or contract
func Value(state *PositionState, spec *contract.Spec, currentPrice decimal.NullDecimal) (Valuation, error) {
	if state == nil {
		return Valuation{}, errNilState
	}
	resp := Valuation{CurrentPrice: currentPrice}
	if state.IsFlat() {
		return resp, nil
	}
	if err := spec.Validate(); err != nil {
		return Valuation{}, fmt.Errorf("%v %w", state.Instrument, err)
	}
	if !currentPrice.Valid {
		return Valuation{}, fmt.Errorf("%w %v no current price for open %v position",
			ErrInvalidValuation, state.Instrument, state.Direction())
	}
	if !currentPrice.Decimal.IsPositive() {
		return Valuation{}, fmt.Errorf("%w %v current price %v must be positive",
			ErrInvalidValuation, state.Instrument, currentPrice.Decimal)
	}
	notional := decimal.NewFromInt(state.Quantity()).Mul(spec.MultiplierDecimal())
	diff := currentPrice.Decimal.Sub(state.AveragePrice)
	if state.Direction() == Short {
		diff = diff.Neg()
	}
	resp.Exposure = notional.Mul(state.AveragePrice)
	resp.UnrealisedPNL = notional.Mul(diff)
	return resp, nil
}

// NewNetPosition combines a position with its valuation
func NewNetPosition(state *PositionState, spec *contract.Spec, currentPrice decimal.NullDecimal) (NetPosition, error) {
	v, err := Value(state, spec, currentPrice)
	if err != nil {
		return NetPosition{}, err
	}
	return NetPosition{
		Instrument:     state.Instrument,
		SignedQuantity: state.SignedQuantity,
		Direction:      state.Direction(),
		AveragePrice:   state.AveragePrice,
		RealisedPNL:    state.RealisedPNL,
		CurrentPrice:   v.CurrentPrice,
		UnrealisedPNL:  v.UnrealisedPNL,
		Exposure:       v.Exposure,
	}, nil
}
