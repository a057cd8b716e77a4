package engine

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/positionledger/positionledger/config"
	"github.com/positionledger/positionledger/contract"
	dbtransaction "github.com/positionledger/positionledger/database/repository/transaction"
	"github.com/positionledger/positionledger/encoding/json"
	"github.com/positionledger/positionledger/ledger"
	"github.com/positionledger/positionledger/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type netResponse struct {
	Net struct {
		Instrument     string          `json:"instrument"`
		SignedQuantity int64           `json:"signedQuantity"`
		RealisedPNL    decimal.Decimal `json:"realisedPNL"`
		UnrealisedPNL  decimal.Decimal `json:"unrealisedPNL"`
	} `json:"net"`
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	r, err := NewRouter(newTestManager(t).PositionManager)
	require.NoError(t, err, "NewRouter must not error")
	return r
}

func doRequest(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func txBody(instrument, side string, qty int64, price, timestamp, sourceID string) string {
	return fmt.Sprintf(`{"instrument":%q,"side":%q,"quantity":%d,"price":%q,"timestamp":%q,"sourceId":%q}`,
		instrument, side, qty, price, timestamp, sourceID)
}

func TestNewRouter(t *testing.T) {
	t.Parallel()
	_, err := NewRouter(nil)
	assert.ErrorIs(t, err, errNilManager)
}

func TestAPITransactionLifecycle(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	w := doRequest(t, r, http.MethodPost, "/v1/transactions", txBody("bgi", "buy", 100, "45.5", "2024-05-06T10:00:00Z", "a"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "application/json; charset=UTF-8", w.Header().Get("Content-Type"))
	var resp netResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BGI", resp.Net.Instrument)
	assert.Equal(t, int64(100), resp.Net.SignedQuantity)

	w = doRequest(t, r, http.MethodPost, "/v1/transactions", txBody("BGI", "sell", 40, "47.2", "2024-05-06T10:01:00Z", "b"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(60), resp.Net.SignedQuantity)
	assert.True(t, decimal.NewFromInt(22440).Equal(resp.Net.RealisedPNL), "40 * 330 * 1.7")

	w = doRequest(t, r, http.MethodPost, "/v1/transactions", txBody("BGI", "sell", 40, "47.2", "2024-05-06T10:01:00Z", "b"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, r, http.MethodGet, "/v1/positions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var open []netResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &open))
	require.Len(t, open, 1)
	assert.Equal(t, int64(60), open[0].Net.SignedQuantity)

	w = doRequest(t, r, http.MethodGet, "/v1/snapshots", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []netResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "BGI", all[0].Net.Instrument)

	w = doRequest(t, r, http.MethodGet, "/v1/positions/bgi", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, decimal.NewFromInt(9900).Equal(resp.Net.UnrealisedPNL), "60 * 330 * 0.5")

	w = doRequest(t, r, http.MethodGet, "/v1/positions/BGI/realised", "")
	require.Equal(t, http.StatusOK, w.Code)
	var reports []struct {
		QuantityLiquidated int64 `json:"quantityLiquidated"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, int64(40), reports[0].QuantityLiquidated)

	w = doRequest(t, r, http.MethodGet, "/v1/positions/BGI/realised?start=2024-05-06T11:00:00Z", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	assert.Empty(t, reports, "realisation before the window must be excluded")

	w = doRequest(t, r, http.MethodGet, "/v1/positions/BGI/realised?start=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodGet, "/v1/positions/BGI/realised?start=2024-05-06T11:00:00Z&end=2024-05-06T10:00:00Z", "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "start after end must be rejected")

	w = doRequest(t, r, http.MethodDelete, "/v1/transactions/BGI/b", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(100), resp.Net.SignedQuantity)

	w = doRequest(t, r, http.MethodDelete, "/v1/transactions/BGI/b", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIBadRequests(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t)

	w := doRequest(t, r, http.MethodPost, "/v1/transactions", "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.NotEmpty(t, apiErr.Error)

	w = doRequest(t, r, http.MethodPost, "/v1/transactions", txBody("BGI", "hold", 1, "45.5", "2024-05-06T10:00:00Z", "a"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPost, "/v1/transactions", txBody("BGI", "buy", 1, "-1", "2024-05-06T10:00:00Z", "a"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPost, "/v1/transactions", txBody("XYZ", "buy", 1, "1", "2024-05-06T10:00:00Z", "a"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodGet, "/v1/positions/XYZ", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodPut, "/v1/transactions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStatusFromError(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w BGI", contract.ErrMissingContractSpec), http.StatusNotFound},
		{dbtransaction.ErrTransactionNotFound, http.StatusNotFound},
		{dbtransaction.ErrDuplicateTransaction, http.StatusConflict},
		{transaction.ErrInvalidTransaction, http.StatusBadRequest},
		{errEmptyParams, http.StatusBadRequest},
		{errInvalidTimeRange, http.StatusBadRequest},
		{ledger.ErrOrderingAmbiguity, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	} {
		assert.Equalf(t, tc.status, statusFromError(tc.err), "statusFromError(%v)", tc.err)
	}
}

func TestParseTimeRange(t *testing.T) {
	t.Parallel()
	s, e, err := parseTimeRange("2024-05-06T10:00:00Z", "2024-05-07T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, testStart, s)
	assert.Equal(t, testStart.AddDate(0, 0, 1), e)

	_, e, err = parseTimeRange("2024-05-06T10:00:00Z", "")
	require.NoError(t, err)
	assert.False(t, e.IsZero(), "open end should default to now")

	_, _, err = parseTimeRange("", "2024-05-07T10:00:00Z")
	assert.ErrorIs(t, err, errInvalidTimeRange)
	_, _, err = parseTimeRange("2024-05-06T10:00:00Z", "tomorrow")
	assert.ErrorIs(t, err, errInvalidTimeRange)
}

func TestAPIInstrumentNamedAll(t *testing.T) {
	t.Parallel()
	tbl, err := contract.NewTable(contract.Spec{Instrument: "ALL", Name: "Allendale", Multiplier: 10, Type: contract.Monthly})
	require.NoError(t, err)
	m, err := SetupPositionManager(NewMemoryStore(), tbl, nil, nil, &sync.WaitGroup{}, &config.PositionManagerConfig{})
	require.NoError(t, err)
	r, err := NewRouter(m)
	require.NoError(t, err)

	w := doRequest(t, r, http.MethodPost, "/v1/transactions", txBody("all", "sell", 3, "12", "2024-05-06T10:00:00Z", "a"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, r, http.MethodGet, "/v1/positions/all", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp netResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "single position route must serve the ALL instrument")
	assert.Equal(t, "ALL", resp.Net.Instrument)
	assert.Equal(t, int64(-3), resp.Net.SignedQuantity)
}
