package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/positionledger/positionledger/common"
	"github.com/positionledger/positionledger/database"
	"github.com/positionledger/positionledger/database/testhelpers"
	txn "github.com/positionledger/positionledger/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

func newTransaction(instrument, sourceID string, side txn.Side, qty int64, price string, offset time.Duration, seq uint64) txn.Transaction {
	return txn.Transaction{
		Instrument: instrument,
		Side:       side,
		Quantity:   qty,
		Price:      decimal.RequireFromString(price),
		Timestamp:  testStart.Add(offset),
		SourceID:   sourceID,
		Sequence:   seq,
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, common.ErrNilPointer)

	r, err := New(&database.Instance{})
	require.NoError(t, err)
	_, err = r.ForInstrument(context.Background(), "BGI")
	assert.ErrorIs(t, err, database.ErrDatabaseNotConnected)
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	r, err := New(testhelpers.ConnectSQLite(t))
	require.NoError(t, err)

	err = r.Insert(ctx,
		newTransaction("bgi", "fill-2", txn.Sell, 100, "47.20", time.Minute, 2),
		newTransaction("BGI", "fill-1", txn.Buy, 100, "45.50", 0, 1),
		newTransaction("CCM", "fill-3", txn.Buy, 5, "60.125", 0, 1),
	)
	require.NoError(t, err)

	txs, err := r.ForInstrument(ctx, "bgi")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "fill-1", txs[0].SourceID)
	assert.Equal(t, "BGI", txs[0].Instrument)
	assert.Equal(t, txn.Buy, txs[0].Side)
	assert.True(t, decimal.RequireFromString("45.50").Equal(txs[0].Price))
	assert.True(t, testStart.Equal(txs[0].Timestamp))
	assert.Equal(t, uint64(1), txs[0].Sequence)
	assert.Equal(t, "fill-2", txs[1].SourceID)

	instruments, err := r.Instruments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BGI", "CCM"}, instruments)

	err = r.Insert(ctx,
		newTransaction("CCM", "fill-4", txn.Buy, 1, "61", time.Minute, 2),
		newTransaction("BGI", "fill-1", txn.Buy, 1, "1", time.Hour, 3),
	)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
	txs, err = r.ForInstrument(ctx, "CCM")
	require.NoError(t, err)
	assert.Len(t, txs, 1, "a failed insert must not store any transaction")

	invalid := newTransaction("CCM", "fill-5", txn.Buy, 0, "61", time.Minute, 2)
	assert.ErrorIs(t, r.Insert(ctx, invalid), txn.ErrInvalidTransaction)

	require.NoError(t, r.Delete(ctx, "bgi", "fill-2"))
	assert.ErrorIs(t, r.Delete(ctx, "BGI", "fill-2"), ErrTransactionNotFound)
	txs, err = r.ForInstrument(ctx, "BGI")
	require.NoError(t, err)
	require.Len(t, txs, 1)

	txs, err = r.ForInstrument(ctx, "XYZ")
	require.NoError(t, err)
	assert.Empty(t, txs)
}
