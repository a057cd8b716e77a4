package position

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/positionledger/positionledger/common"
	"github.com/positionledger/positionledger/contract"
	"github.com/positionledger/positionledger/database"
	"github.com/positionledger/positionledger/database/repository"
	"github.com/positionledger/positionledger/ledger"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/sqlboiler/queries"
	"github.com/volatiletech/null"
)

const (
	selectSnapshots = `SELECT instrument, signed_quantity, direction, average_price, realised_pnl, current_price, unrealised_pnl, exposure, cycle, opened_at, updated_at FROM position_snapshot`
	upsertSnapshot  = `INSERT INTO position_snapshot (instrument, signed_quantity, direction, average_price, realised_pnl, current_price, unrealised_pnl, exposure, cycle, opened_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (instrument) DO UPDATE SET
	signed_quantity = excluded.signed_quantity,
	direction = excluded.direction,
	average_price = excluded.average_price,
	realised_pnl = excluded.realised_pnl,
	current_price = excluded.current_price,
	unrealised_pnl = excluded.unrealised_pnl,
	exposure = excluded.exposure,
	cycle = excluded.cycle,
	opened_at = excluded.opened_at,
	updated_at = excluded.updated_at`
	insertEvent = `INSERT INTO realisation_event (id, instrument, event_index, cycle, kind, trigger_kind, direction, quantity_closed, entry_price, exit_price, pnl, source_id, realised_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// New returns a repository bound to a database instance
func New(db *database.Instance) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database instance", common.ErrNilPointer)
	}
	return &Repository{db: db}, nil
}

// Upsert writes each snapshot and replaces its realisation events
func (r *Repository) Upsert(ctx context.Context, snapshots ...*ledger.Snapshot) (err error) {
	db, err := r.db.GetSQL()
	if err != nil {
		return err
	}
	dialect := r.db.Dialect()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginTx %w", err)
	}
	defer func() {
		err = repository.Rollback(tx, err)
	}()
	for i := range snapshots {
		if snapshots[i] == nil || snapshots[i].State == nil {
			return fmt.Errorf("%w: snapshot", common.ErrNilPointer)
		}
		if err = upsert(ctx, tx, dialect, snapshots[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsert(ctx context.Context, tx *sql.Tx, dialect string, s *ledger.Snapshot) error {
	n := &s.Net
	var averagePrice, currentPrice null.String
	if !n.AveragePrice.IsZero() {
		averagePrice = null.StringFrom(n.AveragePrice.String())
	}
	if n.CurrentPrice.Valid {
		currentPrice = null.StringFrom(n.CurrentPrice.Decimal.String())
	}
	var openedAt null.Int64
	if !s.State.OpenedAt.IsZero() {
		openedAt = null.Int64From(s.State.OpenedAt.UnixNano())
	}
	updatedAt := s.State.LastUpdated
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := repository.Exec(ctx, tx, dialect, upsertSnapshot,
		n.Instrument,
		n.SignedQuantity,
		n.Direction.String(),
		averagePrice,
		n.RealisedPNL.String(),
		currentPrice,
		n.UnrealisedPNL.String(),
		n.Exposure.String(),
		s.State.Cycle,
		openedAt,
		updatedAt.UTC().UnixNano())
	if err != nil {
		return err
	}
	if _, err = repository.Exec(ctx, tx, dialect, `DELETE FROM realisation_event WHERE instrument = ?`, n.Instrument); err != nil {
		return err
	}
	for i := range s.State.Events {
		ev := &s.State.Events[i]
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		_, err = repository.Exec(ctx, tx, dialect, insertEvent,
			id.String(),
			n.Instrument,
			i,
			ev.Cycle,
			ev.Kind.String(),
			ev.Trigger.String(),
			ev.Direction.String(),
			ev.QuantityClosed,
			ev.EntryPrice.String(),
			ev.ExitPrice.String(),
			ev.PNL.String(),
			ev.SourceID,
			ev.Time.UTC().UnixNano())
		if err != nil {
			return err
		}
	}
	return nil
}

// All returns every stored snapshot ordered by instrument
func (r *Repository) All(ctx context.Context) ([]Data, error) {
	return r.query(ctx, selectSnapshots+` ORDER BY instrument`)
}

// Open returns the stored snapshots which hold quantity
func (r *Repository) Open(ctx context.Context) ([]Data, error) {
	return r.query(ctx, selectSnapshots+` WHERE signed_quantity <> 0 ORDER BY instrument`)
}

// Get returns the stored snapshot of an instrument
func (r *Repository) Get(ctx context.Context, instrument string) (*Data, error) {
	instrument = contract.FormatInstrument(instrument)
	resp, err := r.query(ctx, selectSnapshots+` WHERE instrument = ?`, instrument)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("%w %v", ErrPositionNotFound, instrument)
	}
	return &resp[0], nil
}

// Events returns the stored realisation events of an instrument in replay
// order
func (r *Repository) Events(ctx context.Context, instrument string) ([]Event, error) {
	db, err := r.db.GetSQL()
	if err != nil {
		return nil, err
	}
	var rows []eventRow
	err = queries.Raw(repository.Rebind(r.db.Dialect(),
		`SELECT instrument, event_index, cycle, kind, trigger_kind, direction, quantity_closed, entry_price, exit_price, pnl, source_id, realised_at
FROM realisation_event WHERE instrument = ? ORDER BY event_index`),
		contract.FormatInstrument(instrument)).Bind(ctx, db, &rows)
	if err != nil {
		return nil, err
	}
	resp := make([]Event, len(rows))
	for i := range rows {
		if err = rows[i].into(&resp[i]); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Data, error) {
	db, err := r.db.GetSQL()
	if err != nil {
		return nil, err
	}
	var rows []snapshotRow
	if err = queries.Raw(repository.Rebind(r.db.Dialect(), query), args...).Bind(ctx, db, &rows); err != nil {
		return nil, err
	}
	resp := make([]Data, len(rows))
	for i := range rows {
		if err = rows[i].into(&resp[i]); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (s *snapshotRow) into(d *Data) error {
	averagePrice, err := nullDecimal(s.AveragePrice)
	if err != nil {
		return fmt.Errorf("%v average price: %w", s.Instrument, err)
	}
	currentPrice, err := nullDecimal(s.CurrentPrice)
	if err != nil {
		return fmt.Errorf("%v current price: %w", s.Instrument, err)
	}
	values := make([]decimal.Decimal, 3)
	for i, v := range []string{s.RealisedPNL, s.UnrealisedPNL, s.Exposure} {
		if values[i], err = decimal.NewFromString(v); err != nil {
			return fmt.Errorf("%v: %w", s.Instrument, err)
		}
	}
	*d = Data{
		Instrument:     s.Instrument,
		SignedQuantity: s.SignedQuantity,
		Direction:      s.Direction,
		AveragePrice:   averagePrice,
		RealisedPNL:    values[0],
		CurrentPrice:   currentPrice,
		UnrealisedPNL:  values[1],
		Exposure:       values[2],
		Cycle:          s.Cycle,
		UpdatedAt:      time.Unix(0, s.UpdatedAt).UTC(),
	}
	if s.OpenedAt.Valid {
		d.OpenedAt = time.Unix(0, s.OpenedAt.Int64).UTC()
	}
	return nil
}

func (e *eventRow) into(ev *Event) error {
	values := make([]decimal.Decimal, 3)
	var err error
	for i, v := range []string{e.EntryPrice, e.ExitPrice, e.PNL} {
		if values[i], err = decimal.NewFromString(v); err != nil {
			return fmt.Errorf("%v event %v: %w", e.Instrument, e.SourceID, err)
		}
	}
	*ev = Event{
		Instrument:     e.Instrument,
		Index:          e.Index,
		Cycle:          e.Cycle,
		Kind:           e.Kind,
		Trigger:        e.Trigger,
		Direction:      e.Direction,
		QuantityClosed: e.QuantityClosed,
		EntryPrice:     values[0],
		ExitPrice:      values[1],
		PNL:            values[2],
		SourceID:       e.SourceID,
		RealisedAt:     time.Unix(0, e.RealisedAt).UTC(),
	}
	return nil
}

func nullDecimal(s null.String) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
