package ledger

import (
	"fmt"
	"sort"

	"github.com/positionledger/positionledger/contract"
	"github.com/shopspring/decimal"
)

// BuildSnapshot produces the complete output for an instrument
func BuildSnapshot(state *PositionState, spec *contract.Spec, currentPrice decimal.NullDecimal) (*Snapshot, error) {
	net, err := NewNetPosition(state, spec, currentPrice)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		State:   state,
		Net:     net,
		Reports: ExtractRealised(state),
	}, nil
}

// BuildUnvaluedSnapshot produces the output for an instrument when no current
// price is known. Exposure is still reported, unrealised pnl is left at zero
func BuildUnvaluedSnapshot(state *PositionState, spec *contract.Spec) (*Snapshot, error) {
	if state == nil {
		return nil, errNilState
	}
	net := NetPosition{
		Instrument:     state.Instrument,
		SignedQuantity: state.SignedQuantity,
		Direction:      state.Direction(),
		AveragePrice:   state.AveragePrice,
		RealisedPNL:    state.RealisedPNL,
	}
	if !state.IsFlat() {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("%v %w", state.Instrument, err)
		}
		net.Exposure = decimal.NewFromInt(state.Quantity()).Mul(spec.MultiplierDecimal()).Mul(state.AveragePrice)
	}
	return &Snapshot{
		State:   state,
		Net:     net,
		Reports: ExtractRealised(state),
	}, nil
}

// IsValued returns whether unrealised pnl was marked against a current price
func (s *Snapshot) IsValued() bool {
	return s != nil && s.Net.CurrentPrice.Valid
}

// IsActive returns whether the snapshot holds an open position
func (s *Snapshot) IsActive() bool {
	return s != nil && s.Net.SignedQuantity != 0
}

// HasRealisations returns whether any pnl has been realised
func (s *Snapshot) HasRealisations() bool {
	return s != nil && s.State != nil && len(s.State.Events) > 0
}

// ActiveSnapshots returns the snapshots of open positions sorted by
// instrument. Fully neutralised instruments are left out
func ActiveSnapshots(snapshots []*Snapshot) []*Snapshot {
	return filterSnapshots(snapshots, (*Snapshot).IsActive)
}

// RealisedSnapshots returns every snapshot with at least one realisation
// event, whether or not the position is still open
func RealisedSnapshots(snapshots []*Snapshot) []*Snapshot {
	return filterSnapshots(snapshots, (*Snapshot).HasRealisations)
}

func filterSnapshots(snapshots []*Snapshot, keep func(*Snapshot) bool) []*Snapshot {
	resp := make([]*Snapshot, 0, len(snapshots))
	for i := range snapshots {
		if keep(snapshots[i]) {
			resp = append(resp, snapshots[i])
		}
	}
	sort.Slice(resp, func(i, j int) bool {
		return resp[i].Net.Instrument < resp[j].Net.Instrument
	})
	return resp
}
