package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/positionledger/positionledger/contract"
	"github.com/positionledger/positionledger/transaction"
)

// GroupByInstrument splits transactions per instrument and sorts each group
// into replay order. The input slice is not modified
func GroupByInstrument(all []transaction.Transaction) map[string][]transaction.Transaction {
	groups := make(map[string][]transaction.Transaction)
	for i := range all {
		k := contract.FormatInstrument(all[i].Instrument)
		groups[k] = append(groups[k], all[i])
	}
	for k := range groups {
		transaction.Sort(groups[k])
	}
	return groups
}

// Aggregate reduces every instrument in the transaction set into a position.
// Instruments which end flat are kept in the result. A failing instrument is
// left out of the result and its error is joined into the returned error,
// so callers may decide whether a partial result is usable
func Aggregate(all []transaction.Transaction, specs contract.Lookup) (map[string]*PositionState, error) {
	if specs == nil {
		return nil, fmt.Errorf("%w: nil contract lookup", contract.ErrMissingContractSpec)
	}
	groups := GroupByInstrument(all)
	instruments := make([]string, 0, len(groups))
	for k := range groups {
		instruments = append(instruments, k)
	}
	sort.Strings(instruments)

	resp := make(map[string]*PositionState, len(groups))
	var errs error
	for _, instrument := range instruments {
		spec, err := specs.Get(instrument)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		state, err := Reduce(instrument, groups[instrument], spec)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%v: %w", instrument, err))
			continue
		}
		resp[instrument] = state
	}
	return resp, errs
}

// OpenPositions projects the positions which currently hold quantity, sorted
// by instrument
func OpenPositions(states map[string]*PositionState) []*PositionState {
	resp := make([]*PositionState, 0, len(states))
	for _, s := range states {
		if s.IsFlat() {
			continue
		}
		resp = append(resp, s)
	}
	sort.Slice(resp, func(i, j int) bool {
		return resp[i].Instrument < resp[j].Instrument
	})
	return resp
}

// Neutralisations returns the events where the position quantity returned
// to exactly zero
func Neutralisations(state *PositionState) []RealisationEvent {
	if state == nil {
		return nil
	}
	var resp []RealisationEvent
	for i := range state.Events {
		if state.Events[i].Kind == FullClose {
			resp = append(resp, state.Events[i])
		}
	}
	return resp
}

// Instruments returns the keys of a set of positions in alphabetical order
func Instruments(states map[string]*PositionState) []string {
	resp := make([]string, 0, len(states))
	for k := range states {
		resp = append(resp, k)
	}
	sort.Strings(resp)
	return resp
}
