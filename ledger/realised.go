package ledger

import (
	"time"

	"github.com/positionledger/positionledger/common"
	"github.com/shopspring/decimal"
)

// ExtractRealised summarises realisation events per position cycle. A cycle
// which has been reduced but is still open is reported as PartiallyReduced
// so realised pnl is visible before the position returns to flat
func ExtractRealised(state *PositionState) []RealisationReport {
	if state == nil || len(state.Events) == 0 {
		return nil
	}
	var (
		resp              []RealisationReport
		current           *RealisationReport
		entryNum, exitNum decimal.Decimal
	)
	finish := func() {
		if current == nil {
			return
		}
		qty := decimal.NewFromInt(current.QuantityLiquidated)
		current.AverageEntryPrice = entryNum.Div(qty)
		current.AverageExitPrice = exitNum.Div(qty)
		resp = append(resp, *current)
	}
	for i := range state.Events {
		ev := &state.Events[i]
		if current == nil || current.Cycle != ev.Cycle {
			finish()
			current = &RealisationReport{
				Instrument:      state.Instrument,
				Cycle:           ev.Cycle,
				Direction:       ev.Direction,
				Status:          PartiallyReduced,
				FirstRealisedAt: ev.Time,
			}
			entryNum, exitNum = decimal.Zero, decimal.Zero
		}
		qty := decimal.NewFromInt(ev.QuantityClosed)
		entryNum = entryNum.Add(qty.Mul(ev.EntryPrice))
		exitNum = exitNum.Add(qty.Mul(ev.ExitPrice))
		current.QuantityLiquidated += ev.QuantityClosed
		current.RealisedPNL = current.RealisedPNL.Add(ev.PNL)
		current.LastRealisedAt = ev.Time
		current.Events++
		if ev.Kind == FullClose {
			current.Status = FullyClosed
		}
	}
	finish()
	return resp
}

// TotalRealised sums the realised pnl of the reports
func TotalRealised(reports []RealisationReport) decimal.Decimal {
	total := decimal.Zero
	for i := range reports {
		total = total.Add(reports[i].RealisedPNL)
	}
	return total
}

// ReportsBetween filters reports to those whose latest realisation falls
// within start and end inclusive
func ReportsBetween(reports []RealisationReport, start, end time.Time) ([]RealisationReport, error) {
	if err := common.StartEndTimeCheck(start, end); err != nil {
		return nil, err
	}
	var resp []RealisationReport
	for i := range reports {
		if reports[i].LastRealisedAt.Before(start) || reports[i].LastRealisedAt.After(end) {
			continue
		}
		resp = append(resp, reports[i])
	}
	return resp, nil
}
