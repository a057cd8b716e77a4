package main

import (
	"strings"
	"testing"

	"github.com/positionledger/positionledger/contract"
	"github.com/positionledger/positionledger/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFile = `[
 {"instrument":"BGI","side":"buy","quantity":100,"price":"45.50","timestamp":"2024-05-06T10:00:00Z","sourceId":"a"},
 {"instrument":"BGI","side":"sell","quantity":100,"price":"47.20","timestamp":"2024-05-06T10:01:00Z","sourceId":"b"},
 {"instrument":"CCM","side":"sell","quantity":4,"price":"4.25","timestamp":"2024-05-06T10:00:00Z","sourceId":"a"},
 {"instrument":"CCM","side":"sell","quantity":4,"price":"4.75","timestamp":"2024-05-06T10:00:00Z","sourceId":"b"},
 {"instrument":"XYZ","side":"buy","quantity":1,"price":"1","timestamp":"2024-05-06T10:00:00Z","sourceId":"a"}
]`

func TestDecodeTransactions(t *testing.T) {
	t.Parallel()
	txs, err := decodeTransactions(strings.NewReader(testFile))
	require.NoError(t, err, "decodeTransactions must not error")
	require.Len(t, txs, 5)
	for i := range txs {
		assert.Equalf(t, uint64(i+1), txs[i].Sequence, "file order should become the insertion sequence for %v", txs[i].SourceID)
	}
	assert.Equal(t, transaction.Sell, txs[1].Side)

	txs, err = decodeTransactions(strings.NewReader(`[{"instrument":"BGI","side":"buy","quantity":1,"price":"1","timestamp":"2024-05-06T10:00:00Z","sourceId":"a","sequence":9}]`))
	require.NoError(t, err)
	assert.Equal(t, uint64(9), txs[0].Sequence, "supplied sequences must be kept")

	_, err = decodeTransactions(strings.NewReader(`[{"side":"hold"}]`))
	assert.ErrorIs(t, err, transaction.ErrInvalidTransaction)
}

func TestReplay(t *testing.T) {
	t.Parallel()
	tbl, err := contract.NewTable(
		contract.Spec{Instrument: "BGI", Multiplier: 330},
		contract.Spec{Instrument: "CCM", Multiplier: 450},
	)
	require.NoError(t, err)
	txs, err := decodeTransactions(strings.NewReader(testFile))
	require.NoError(t, err)

	snaps, err := replay(txs, tbl, map[string]decimal.Decimal{"CCM": decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, contract.ErrMissingContractSpec, "instrument without a contract must be reported")
	require.Len(t, snaps, 2)

	assert.Equal(t, "BGI", snaps[0].Net.Instrument)
	assert.True(t, decimal.NewFromInt(56100).Equal(snaps[0].Net.RealisedPNL), "100 * 330 * (47.20-45.50)")
	assert.Zero(t, snaps[0].Net.SignedQuantity)

	assert.Equal(t, "CCM", snaps[1].Net.Instrument)
	assert.Equal(t, int64(-8), snaps[1].Net.SignedQuantity)
	assert.True(t, snaps[1].IsValued())
	assert.True(t, decimal.NewFromInt(-1800).Equal(snaps[1].Net.UnrealisedPNL), "8 * 450 * (4.5-5)")
}
