package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/positionledger/positionledger/common"
	"github.com/positionledger/positionledger/contract"
	"github.com/positionledger/positionledger/database"
	"github.com/positionledger/positionledger/database/repository"
	"github.com/positionledger/positionledger/log"
	txn "github.com/positionledger/positionledger/transaction"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/sqlboiler/queries"
)

const selectColumns = `SELECT id, instrument, side, quantity, price, timestamp, source_id, sequence FROM ledger_transaction`

// New returns a repository bound to a database instance
func New(db *database.Instance) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database instance", common.ErrNilPointer)
	}
	return &Repository{db: db}, nil
}

// Insert validates and stores transactions in a single database transaction.
// A source id which is already stored for its instrument aborts the insert
func (r *Repository) Insert(ctx context.Context, txs ...txn.Transaction) (err error) {
	for i := range txs {
		if err = txs[i].Validate(); err != nil {
			return err
		}
	}
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

	for i := range txs {
		instrument := contract.FormatInstrument(txs[i].Instrument)
		var existing struct {
			Count int64 `boil:"count"`
		}
		err = queries.Raw(repository.Rebind(dialect,
			`SELECT COUNT(*) AS count FROM ledger_transaction WHERE instrument = ? AND source_id = ?`),
			instrument, txs[i].SourceID).Bind(ctx, tx, &existing)
		if err != nil {
			return err
		}
		if existing.Count > 0 {
			return fmt.Errorf("%w %v %v", ErrDuplicateTransaction, instrument, txs[i].SourceID)
		}
		id, errID := uuid.NewV4()
		if errID != nil {
			return errID
		}
		_, err = repository.Exec(ctx, tx, dialect,
			`INSERT INTO ledger_transaction (id, instrument, side, quantity, price, timestamp, source_id, sequence) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id.String(),
			instrument,
			txs[i].Side.String(),
			txs[i].Quantity,
			txs[i].Price.String(),
			txs[i].Timestamp.UTC().UnixNano(),
			txs[i].SourceID,
			int64(txs[i].Sequence))
		if err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	log.Debugf(log.DatabaseMgr, "Stored %d transaction(s)", len(txs))
	return nil
}

// Delete removes a transaction by instrument and source id
func (r *Repository) Delete(ctx context.Context, instrument, sourceID string) error {
	db, err := r.db.GetSQL()
	if err != nil {
		return err
	}
	instrument = contract.FormatInstrument(instrument)
	res, err := repository.Exec(ctx, db, r.db.Dialect(),
		`DELETE FROM ledger_transaction WHERE instrument = ? AND source_id = ?`, instrument, sourceID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w %v %v", ErrTransactionNotFound, instrument, sourceID)
	}
	return nil
}

// ForInstrument returns an instrument's transactions in replay order
func (r *Repository) ForInstrument(ctx context.Context, instrument string) ([]txn.Transaction, error) {
	db, err := r.db.GetSQL()
	if err != nil {
		return nil, err
	}
	var rows []row
	err = queries.Raw(repository.Rebind(r.db.Dialect(),
		selectColumns+` WHERE instrument = ? ORDER BY timestamp, sequence`),
		contract.FormatInstrument(instrument)).Bind(ctx, db, &rows)
	if err != nil {
		return nil, err
	}
	resp := make([]txn.Transaction, len(rows))
	for i := range rows {
		if err = rows[i].into(&resp[i]); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Instruments returns every instrument holding at least one transaction
func (r *Repository) Instruments(ctx context.Context) ([]string, error) {
	db, err := r.db.GetSQL()
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Instrument string `boil:"instrument"`
	}
	err = queries.Raw(`SELECT DISTINCT instrument FROM ledger_transaction ORDER BY instrument`).Bind(ctx, db, &rows)
	if err != nil {
		return nil, err
	}
	resp := make([]string, len(rows))
	for i := range rows {
		resp[i] = rows[i].Instrument
	}
	return resp, nil
}

func (r *row) into(t *txn.Transaction) error {
	side, err := txn.StringToSide(r.Side)
	if err != nil {
		return fmt.Errorf("transaction %v: %w", r.ID, err)
	}
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return fmt.Errorf("transaction %v price: %w", r.ID, err)
	}
	*t = txn.Transaction{
		Instrument: r.Instrument,
		Side:       side,
		Quantity:   r.Quantity,
		Price:      price,
		Timestamp:  time.Unix(0, r.Timestamp).UTC(),
		SourceID:   r.SourceID,
		Sequence:   uint64(r.Sequence),
	}
	return nil
}
