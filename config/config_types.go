package config

import (
	"errors"
	"sync"
	"time"

	"github.com/positionledger/positionledger/database"
	"github.com/positionledger/positionledger/log"
)

// Constants declared here are filename strings and default values
const (
	File                       = "config.json"
	EnvFile                    = ".env"
	EnvPrefix                  = "LEDGER"
	DefaultName                = "positionledger"
	DefaultListenAddress       = "localhost:9053"
	DefaultRevaluationInterval = 30 * time.Second
	DefaultReplayCacheSize     = 1024
	DefaultHTTPTimeout         = 15 * time.Second
	DefaultPricingRateInterval = time.Second
	DefaultPricingRateRequests = 5
	PricingSourceStatic        = "static"
	PricingSourceHTTP          = "http"
	defaultServerTimeout       = 10 * time.Second
	minimumRevaluationInterval = time.Second
	defaultPricingPricePath    = "price"
)

// Errors returned while reading or checking the config
var (
	ErrConfigNotFound        = errors.New("config file not found")
	ErrFailureOpeningConfig  = errors.New("failure opening config")
	ErrInvalidContractConfig = errors.New("invalid contract config")
	ErrInvalidPricingConfig  = errors.New("invalid pricing config")
	ErrUnsupportedDriver     = errors.New("unsupported database driver")
)

var m sync.Mutex

// Config is the overarching object that holds all the information for the
// ledger service
type Config struct {
	Name            string                `json:"name"`
	DataDirectory   string                `json:"dataDirectory"`
	Logging         log.Config            `json:"logging"`
	Database        database.Config       `json:"database"`
	Contracts       []ContractConfig      `json:"contracts"`
	Pricing         PricingConfig         `json:"pricing"`
	RemoteControl   RemoteControlConfig   `json:"remoteControl"`
	PositionManager PositionManagerConfig `json:"positionManager"`
}

// ContractConfig describes a tradeable instrument
type ContractConfig struct {
	Instrument string `json:"instrument"`
	Name       string `json:"name,omitempty"`
	Exchange   string `json:"exchange,omitempty"`
	Underlying string `json:"underlying,omitempty"`
	Unit       string `json:"unit,omitempty"`
	Type       string `json:"type,omitempty"`
	Multiplier int64  `json:"multiplier"`
}

// PricingConfig selects where current prices come from
type PricingConfig struct {
	Source string            `json:"source"`
	Static map[string]string `json:"static,omitempty"`
	HTTP   HTTPPricingConfig `json:"http"`
}

// HTTPPricingConfig configures polling of a JSON price endpoint. The endpoint
// is formatted with the instrument, eg https://prices.example/v1/quote/%s
type HTTPPricingConfig struct {
	Endpoint            string        `json:"endpoint"`
	PricePath           []string      `json:"pricePath"`
	RequestsPerInterval int           `json:"requestsPerInterval"`
	Interval            time.Duration `json:"interval"`
	Timeout             time.Duration `json:"timeout"`
}

// RemoteControlConfig stores the REST server settings
type RemoteControlConfig struct {
	Enabled       bool          `json:"enabled"`
	ListenAddress string        `json:"listenAddress"`
	ReadTimeout   time.Duration `json:"readTimeout"`
	WriteTimeout  time.Duration `json:"writeTimeout"`
}

// PositionManagerConfig configures the position manager subsystem
type PositionManagerConfig struct {
	Enabled             bool          `json:"enabled"`
	Verbose             bool          `json:"verbose"`
	RevaluationInterval time.Duration `json:"revaluationInterval"`
	PersistSnapshots    bool          `json:"persistSnapshots"`
	// ReplayCacheSize bounds how many instruments keep their last replay in
	// memory. Evicted instruments are replayed in full on next use
	ReplayCacheSize uint64 `json:"replayCacheSize"`
}
