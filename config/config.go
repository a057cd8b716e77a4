package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/positionledger/positionledger/common"
	"github.com/positionledger/positionledger/contract"
	"github.com/positionledger/positionledger/database"
	"github.com/positionledger/positionledger/encoding/json"
	"github.com/positionledger/positionledger/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DefaultFilePath returns the default config file path
// MacOS/Linux: $HOME/.positionledger/config.json
// Windows: %APPDATA%\PositionLedger\config.json
func DefaultFilePath() string {
	return filepath.Join(common.GetDefaultDataDir(runtime.GOOS), File)
}

// GetFilePath returns the desired config file or the default config file
func GetFilePath(configFile string) (string, error) {
	if configFile == "" {
		configFile = DefaultFilePath()
	}
	if _, err := os.Stat(configFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, configFile)
		}
		return "", err
	}
	return configFile, nil
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables which are already set are not overridden and a
// missing file is not an error
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// ReadConfigFromFile reads the configuration from the given file. A .env file
// beside the config is loaded first and LEDGER_ prefixed environment
// variables override values present in the file, eg LEDGER_DATABASE_ENABLED
func (c *Config) ReadConfigFromFile(configPath string) error {
	configPath, err := GetFilePath(configPath)
	if err != nil {
		return err
	}
	if err = LoadEnvFile(filepath.Join(filepath.Dir(configPath), EnvFile)); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err = v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w %s: %w", ErrFailureOpeningConfig, configPath, err)
	}
	return v.Unmarshal(c, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
		dc.Squash = true
	})
}

// SaveConfigToFile saves the config as indented JSON to the given path
func (c *Config) SaveConfigToFile(configPath string) error {
	if configPath == "" {
		configPath = DefaultFilePath()
	}
	if err := common.CreateDir(filepath.Dir(configPath)); err != nil {
		return err
	}
	m.Lock()
	payload, err := json.MarshalIndent(c, "", " ")
	m.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, payload, 0o600)
}

// LoadConfig loads your configuration file into your configuration object
func (c *Config) LoadConfig(configPath string) error {
	if err := c.ReadConfigFromFile(configPath); err != nil {
		return err
	}
	return c.CheckConfig()
}

// CheckConfig checks all config settings filling defaults where values are
// missing. Invalid contracts or pricing settings are fatal, a failing logger
// or database config is reported and the feature disabled
func (c *Config) CheckConfig() error {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if err := c.CheckLoggerConfig(); err != nil {
		log.Errorf(log.ConfigMgr, "Failed to configure logger, some logging features unavailable: %s", err)
	}
	if err := c.checkDatabaseConfig(); err != nil {
		log.Errorf(log.DatabaseMgr, "Failed to configure database: %v", err)
	}
	if err := c.CheckContractConfig(); err != nil {
		return err
	}
	if err := c.CheckPricingConfig(); err != nil {
		return err
	}
	c.CheckRemoteControlConfig()
	c.CheckPositionManagerConfig()
	return nil
}

// CheckLoggerConfig checks to see logger values are present and valid in
// config, if not creates a default instance of the logger
func (c *Config) CheckLoggerConfig() error {
	m.Lock()
	defer m.Unlock()

	if c.Logging.Enabled == nil || c.Logging.Output == "" {
		c.Logging = log.GenDefaultSettings()
	}
	if c.Logging.AdvancedSettings.ShowLogSystemName == nil {
		show := false
		c.Logging.AdvancedSettings.ShowLogSystemName = &show
	}

	fileLogging := false
	if c.Logging.LoggerFileConfig != nil {
		if c.Logging.LoggerFileConfig.FileName == "" {
			c.Logging.LoggerFileConfig.FileName = "log.txt"
		}
		if c.Logging.LoggerFileConfig.Rotate == nil {
			rotate := false
			c.Logging.LoggerFileConfig.Rotate = &rotate
		}
		if c.Logging.LoggerFileConfig.MaxSize <= 0 {
			log.Warnf(log.ConfigMgr, "Logger rotation size invalid, defaulting to %v", log.DefaultMaxFileSize)
			c.Logging.LoggerFileConfig.MaxSize = log.DefaultMaxFileSize
		}
		fileLogging = true
	}

	logPath := c.GetDataPath("logs")
	if err := common.CreateDir(logPath); err != nil {
		log.SetFileLoggingState(false)
		return err
	}
	log.SetLogPath(logPath)
	log.SetFileLoggingState(fileLogging)
	return log.SetGlobalLogConfig(&c.Logging)
}

func (c *Config) checkDatabaseConfig() error {
	m.Lock()
	defer m.Unlock()

	if (c.Database == database.Config{}) {
		c.Database.Driver = database.DBSQLite3
		c.Database.Database = database.DefaultSQLiteDatabase
	}
	if !c.Database.Enabled {
		return nil
	}
	if !database.IsSupportedDriver(c.Database.Driver) {
		c.Database.Enabled = false
		return fmt.Errorf("%w %v, database disabled", ErrUnsupportedDriver, c.Database.Driver)
	}
	if c.Database.Driver == database.DBSQLite || c.Database.Driver == database.DBSQLite3 {
		databaseDir := c.GetDataPath("database")
		if err := common.CreateDir(databaseDir); err != nil {
			return err
		}
		database.DB.DataPath = databaseDir
	}
	return database.DB.SetConfig(&c.Database)
}

// CheckContractConfig validates every configured contract
func (c *Config) CheckContractConfig() error {
	_, err := c.GetContractTable()
	return err
}

// GetContractTable builds the contract lookup from the configured contracts
func (c *Config) GetContractTable() (*contract.Table, error) {
	m.Lock()
	defer m.Unlock()
	specs := make([]contract.Spec, len(c.Contracts))
	for i := range c.Contracts {
		ct, err := contract.StringToContractType(c.Contracts[i].Type)
		if err != nil {
			return nil, fmt.Errorf("%w %v: %w", ErrInvalidContractConfig, c.Contracts[i].Instrument, err)
		}
		specs[i] = contract.Spec{
			Instrument: c.Contracts[i].Instrument,
			Name:       c.Contracts[i].Name,
			Exchange:   c.Contracts[i].Exchange,
			Underlying: c.Contracts[i].Underlying,
			Unit:       c.Contracts[i].Unit,
			Type:       ct,
			Multiplier: c.Contracts[i].Multiplier,
		}
	}
	tbl, err := contract.NewTable(specs...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidContractConfig, err)
	}
	return tbl, nil
}

// CheckPricingConfig fills pricing defaults and validates the source
func (c *Config) CheckPricingConfig() error {
	m.Lock()
	defer m.Unlock()
	p := &c.Pricing
	p.Source = strings.ToLower(strings.TrimSpace(p.Source))
	if p.Source == "" {
		p.Source = PricingSourceStatic
	}
	switch p.Source {
	case PricingSourceStatic:
		for instrument, price := range p.Static {
			d, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("%w static price %v: %w", ErrInvalidPricingConfig, instrument, err)
			}
			if !d.IsPositive() {
				return fmt.Errorf("%w static price %v must be positive", ErrInvalidPricingConfig, instrument)
			}
		}
	case PricingSourceHTTP:
		if p.HTTP.Endpoint == "" {
			return fmt.Errorf("%w: http endpoint unset", ErrInvalidPricingConfig)
		}
		if len(p.HTTP.PricePath) == 0 {
			p.HTTP.PricePath = []string{defaultPricingPricePath}
		}
		if p.HTTP.RequestsPerInterval <= 0 {
			p.HTTP.RequestsPerInterval = DefaultPricingRateRequests
		}
		if p.HTTP.Interval <= 0 {
			p.HTTP.Interval = DefaultPricingRateInterval
		}
		if p.HTTP.Timeout <= 0 {
			log.Warnf(log.ConfigMgr, "Pricing HTTP timeout not set, defaulting to %v", DefaultHTTPTimeout)
			p.HTTP.Timeout = DefaultHTTPTimeout
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidPricingConfig, p.Source)
	}
	return nil
}

// GetStaticPrices returns the parsed static prices keyed by instrument
func (c *Config) GetStaticPrices() map[string]decimal.Decimal {
	m.Lock()
	defer m.Unlock()
	resp := make(map[string]decimal.Decimal, len(c.Pricing.Static))
	for instrument, price := range c.Pricing.Static {
		d, err := decimal.NewFromString(price)
		if err != nil {
			continue
		}
		resp[contract.FormatInstrument(instrument)] = d
	}
	return resp
}

// CheckRemoteControlConfig fills REST server defaults
func (c *Config) CheckRemoteControlConfig() {
	m.Lock()
	defer m.Unlock()
	if c.RemoteControl.ListenAddress == "" {
		c.RemoteControl.ListenAddress = DefaultListenAddress
	}
	if c.RemoteControl.ReadTimeout <= 0 {
		c.RemoteControl.ReadTimeout = defaultServerTimeout
	}
	if c.RemoteControl.WriteTimeout <= 0 {
		c.RemoteControl.WriteTimeout = defaultServerTimeout
	}
}

// CheckPositionManagerConfig fills position manager defaults
func (c *Config) CheckPositionManagerConfig() {
	m.Lock()
	defer m.Unlock()
	if c.PositionManager.RevaluationInterval <= 0 {
		c.PositionManager.RevaluationInterval = DefaultRevaluationInterval
	} else if c.PositionManager.RevaluationInterval < minimumRevaluationInterval {
		log.Warnf(log.ConfigMgr, "Revaluation interval %v too short, defaulting to %v",
			c.PositionManager.RevaluationInterval, minimumRevaluationInterval)
		c.PositionManager.RevaluationInterval = minimumRevaluationInterval
	}
	if c.PositionManager.ReplayCacheSize == 0 {
		c.PositionManager.ReplayCacheSize = DefaultReplayCacheSize
	}
}

// GetDataPath gets the data path for the given subpath
func (c *Config) GetDataPath(elem ...string) string {
	baseDir := c.DataDirectory
	if baseDir == "" {
		baseDir = common.GetDefaultDataDir(runtime.GOOS)
	}
	return filepath.Join(append([]string{baseDir}, elem...)...)
}
