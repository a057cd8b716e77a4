package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestStatic(t *testing.T) {
	t.Parallel()
	_, err := NewStatic(map[string]decimal.Decimal{"BGI": decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	s, err := NewStatic(map[string]decimal.Decimal{"bgi": decimal.RequireFromString("47.20")})
	require.NoError(t, err)
	p, err := s.CurrentPrice(context.Background(), "BGI")
	require.NoError(t, err)
	require.True(t, p.Valid)
	assert.Equal(t, "47.2", p.Decimal.String())

	p, err = s.CurrentPrice(context.Background(), "CCM")
	require.NoError(t, err)
	assert.False(t, p.Valid, "unknown instruments have no price")

	require.NoError(t, s.Set("CCM", decimal.NewFromInt(60)))
	p, err = s.CurrentPrice(context.Background(), "ccm")
	require.NoError(t, err)
	assert.True(t, p.Valid)
}

func TestNewRateLimit(t *testing.T) {
	t.Parallel()
	assert.Equal(t, rate.Inf, NewRateLimit(0, 5).Limit())
	assert.Equal(t, rate.Inf, NewRateLimit(time.Second, 0).Limit())
	assert.Equal(t, rate.Limit(10), NewRateLimit(time.Second, 10).Limit())
	assert.Equal(t, rate.Limit(0.5), NewRateLimit(2*time.Second, 1).Limit())
}

func TestParsePrice(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		body  string
		path  []string
		price string
		err   error
	}{
		{body: `{"price":47.2}`, path: []string{"price"}, price: "47.2"},
		{body: `{"data":{"last":"45.50"}}`, path: []string{"data", "last"}, price: "45.5"},
		{body: `{"data":[{"last":"1.25"}]}`, path: []string{"data", "[0]", "last"}, price: "1.25"},
		{body: `{"price":null}`, path: []string{"price"}},
		{body: `{"other":1}`, path: []string{"price"}, err: ErrInvalidPrice},
		{body: `{"price":-1}`, path: []string{"price"}, err: ErrInvalidPrice},
		{body: `{"price":"abc"}`, path: []string{"price"}, err: ErrInvalidPrice},
		{body: `{"price":{"a":1}}`, path: []string{"price"}, err: ErrInvalidPrice},
	} {
		p, err := parsePrice([]byte(tc.body), tc.path...)
		if tc.err != nil {
			assert.ErrorIsf(t, err, tc.err, "body %s", tc.body)
			continue
		}
		require.NoErrorf(t, err, "body %s", tc.body)
		if tc.price == "" {
			assert.Falsef(t, p.Valid, "body %s", tc.body)
			continue
		}
		require.Truef(t, p.Valid, "body %s", tc.body)
		assert.Equalf(t, tc.price, p.Decimal.String(), "body %s", tc.body)
	}
}

func TestHTTPSource(t *testing.T) {
	t.Parallel()
	_, err := NewHTTPSource(nil)
	assert.ErrorIs(t, err, ErrEndpointUnset)

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/quote/BGI":
			_, _ = w.Write([]byte(`{"instrument":"BGI","quote":{"last":"47.20"}}`))
		case "/quote/CCM":
			_, _ = w.Write([]byte(`{"instrument":"CCM","quote":{"last":null}}`))
		default:
			http.Error(w, "unknown instrument", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	h, err := NewHTTPSource(&HTTPConfig{
		Endpoint:  srv.URL + "/quote/%s",
		PricePath: []string{"quote", "last"},
		Client:    srv.Client(),
	})
	require.NoError(t, err)

	p, err := h.CurrentPrice(context.Background(), "bgi")
	require.NoError(t, err)
	require.True(t, p.Valid)
	assert.True(t, decimal.RequireFromString("47.20").Equal(p.Decimal))

	p, err = h.CurrentPrice(context.Background(), "CCM")
	require.NoError(t, err)
	assert.False(t, p.Valid)

	_, err = h.CurrentPrice(context.Background(), "XYZ")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, int32(3), requests.Load())
}

func TestHTTPSourceRateLimited(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"price":1}`))
	}))
	defer srv.Close()

	h, err := NewHTTPSource(&HTTPConfig{
		Endpoint:            srv.URL,
		RequestsPerInterval: 1,
		Interval:            time.Hour,
		Client:              srv.Client(),
	})
	require.NoError(t, err)
	_, err = h.CurrentPrice(context.Background(), "BGI")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = h.CurrentPrice(ctx, "BGI")
	assert.Error(t, err, "a second request within the interval must wait beyond the deadline")
}

type failingSource struct{}

var errFailing = errors.New("source offline")

func (failingSource) CurrentPrice(context.Context, string) (decimal.NullDecimal, error) {
	return decimal.NullDecimal{}, errFailing
}

func TestFallback(t *testing.T) {
	t.Parallel()
	_, err := NewFallback()
	assert.ErrorIs(t, err, errNoSources)

	static, err := NewStatic(map[string]decimal.Decimal{"BGI": decimal.NewFromInt(47)})
	require.NoError(t, err)
	f, err := NewFallback(failingSource{}, static)
	require.NoError(t, err)

	p, err := f.CurrentPrice(context.Background(), "BGI")
	require.NoError(t, err)
	assert.True(t, p.Valid)

	_, err = f.CurrentPrice(context.Background(), "CCM")
	assert.ErrorIs(t, err, errFailing)

	f, err = NewFallback(static)
	require.NoError(t, err)
	p, err = f.CurrentPrice(context.Background(), "CCM")
	require.NoError(t, err)
	assert.False(t, p.Valid)
}
