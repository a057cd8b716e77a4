package pricing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/positionledger/positionledger/contract"
	"github.com/positionledger/positionledger/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// NewStatic returns a source serving the supplied prices
func NewStatic(prices map[string]decimal.Decimal) (*Static, error) {
	s := &Static{prices: make(map[string]decimal.Decimal, len(prices))}
	for instrument, price := range prices {
		if err := s.Set(instrument, price); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Set stores the price of an instrument
func (s *Static) Set(instrument string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w %v: %v", ErrInvalidPrice, instrument, price)
	}
	s.m.Lock()
	s.prices[contract.FormatInstrument(instrument)] = price
	s.m.Unlock()
	return nil
}

// CurrentPrice returns the stored price of an instrument
func (s *Static) CurrentPrice(_ context.Context, instrument string) (decimal.NullDecimal, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	p, ok := s.prices[contract.FormatInstrument(instrument)]
	if !ok {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NewNullDecimal(p), nil
}

// NewRateLimit creates a new RateLimit based of time interval and how many
// actions allowed and breaks it down to an actions-per-second basis. Burst
// rate is kept as one as this is not supported for out-bound requests
func NewRateLimit(interval time.Duration, actions int) *rate.Limiter {
	if actions <= 0 || interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	rps := float64(actions) / interval.Seconds()
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// NewHTTPSource returns a rate limited source backed by a JSON endpoint
func NewHTTPSource(cfg *HTTPConfig) (*HTTPSource, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, ErrEndpointUnset
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	path := cfg.PricePath
	if len(path) == 0 {
		path = []string{"price"}
	}
	return &HTTPSource{
		endpoint:  cfg.Endpoint,
		pricePath: path,
		client:    client,
		limiter:   NewRateLimit(cfg.Interval, cfg.RequestsPerInterval),
		verbose:   cfg.Verbose,
	}, nil
}

// CurrentPrice requests the price of an instrument from the endpoint. A null
// price in the response is reported as unavailable rather than an error
func (h *HTTPSource) CurrentPrice(ctx context.Context, instrument string) (decimal.NullDecimal, error) {
	instrument = contract.FormatInstrument(instrument)
	if err := h.limiter.Wait(ctx); err != nil {
		return decimal.NullDecimal{}, err
	}
	path := h.endpoint
	if strings.Contains(path, "%s") {
		path = fmt.Sprintf(path, url.PathEscape(instrument))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, http.NoBody)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	req.Header.Set("Accept", "application/json")
	if h.verbose {
		log.Debugf(log.PricingMgr, "Requesting price for %s from %s", instrument, path)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.NullDecimal{}, fmt.Errorf("%w %d from %s: %s", ErrUnexpectedStatus, resp.StatusCode, path, body)
	}
	if h.verbose {
		log.Debugf(log.PricingMgr, "Price response for %s: %s", instrument, body)
	}
	return parsePrice(body, h.pricePath...)
}

func parsePrice(body []byte, path ...string) (decimal.NullDecimal, error) {
	value, dataType, _, err := jsonparser.Get(body, path...)
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		return decimal.NullDecimal{}, fmt.Errorf("%w: %v not found in response", ErrInvalidPrice, strings.Join(path, "."))
	case err != nil:
		return decimal.NullDecimal{}, err
	}
	switch dataType {
	case jsonparser.Null:
		return decimal.NullDecimal{}, nil
	case jsonparser.Number, jsonparser.String:
		d, err := decimal.NewFromString(string(value))
		if err != nil {
			return decimal.NullDecimal{}, fmt.Errorf("%w: %w", ErrInvalidPrice, err)
		}
		if !d.IsPositive() {
			return decimal.NullDecimal{}, fmt.Errorf("%w: %v", ErrInvalidPrice, d)
		}
		return decimal.NewNullDecimal(d), nil
	default:
		return decimal.NullDecimal{}, fmt.Errorf("%w: unexpected %v value", ErrInvalidPrice, dataType)
	}
}

// NewFallback returns a source which asks each source in order
func NewFallback(sources ...Source) (*Fallback, error) {
	if len(sources) == 0 {
		return nil, errNoSources
	}
	return &Fallback{sources: sources}, nil
}

// CurrentPrice returns the first available price. Errors from earlier sources
// are only returned when no later source supplies a price
func (f *Fallback) CurrentPrice(ctx context.Context, instrument string) (decimal.NullDecimal, error) {
	var errs error
	for i := range f.sources {
		p, err := f.sources[i].CurrentPrice(ctx, instrument)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if p.Valid {
			return p, nil
		}
	}
	return decimal.NullDecimal{}, errs
}
