package pricing

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

var (
	// ErrInvalidPrice is returned when a price is not a positive number
	ErrInvalidPrice = errors.New("invalid price")
	// ErrUnexpectedStatus is returned when the price endpoint does not answer 200
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrEndpointUnset is returned when an HTTP source has no endpoint
	ErrEndpointUnset = errors.New("price endpoint unset")

	errNoSources = errors.New("no price sources supplied")
)

const maxResponseSize = 1 << 20

// Source supplies the current market price of an instrument. An invalid
// NullDecimal with a nil error means no price is available
type Source interface {
	CurrentPrice(ctx context.Context, instrument string) (decimal.NullDecimal, error)
}

// Static serves prices held in memory
type Static struct {
	m      sync.RWMutex
	prices map[string]decimal.Decimal
}

// HTTPConfig configures an HTTPSource
type HTTPConfig struct {
	// Endpoint is formatted with the URL escaped instrument
	Endpoint string
	// PricePath is the key path of the price within the response body
	PricePath           []string
	RequestsPerInterval int
	Interval            time.Duration
	Timeout             time.Duration
	Verbose             bool
	Client              *http.Client
}

// HTTPSource polls a JSON price endpoint
type HTTPSource struct {
	endpoint  string
	pricePath []string
	client    *http.Client
	limiter   *rate.Limiter
	verbose   bool
}

// Fallback asks each source in turn and returns the first available price
type Fallback struct {
	sources []Source
}
