package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/njkim/stocksync/constants"
)

// Config global config. File values are overridden by environment variables
// so the tool also runs without a config file.
type Config struct {
	Notion struct {
		BaseURL  string `toml:"base_url"`
		Token    string `toml:"token"`
		Database string `toml:"database"`
	} `toml:"notion"`
	FMP struct {
		BaseURL string `toml:"base_url"`
		APIKey  string `toml:"api_key"`
	} `toml:"fmp"`
	Yahoo struct {
		BaseURL string `toml:"base_url"`
	} `toml:"yahoo"`
	Fx struct {
		Pair string `toml:"pair"`
	} `toml:"fx"`
	Fields struct {
		Ticker        string `toml:"ticker"`
		CurrentPrice  string `toml:"current_price"`
		PreviousClose string `toml:"previous_close"`
		MarketCap     string `toml:"market_cap"`
		UpdatedAt     string `toml:"updated_at"`
		Name          string `toml:"name"`
		FxRate        string `toml:"fx_rate"`
	} `toml:"fields"`
	Timezone        string `toml:"timezone"`
	ChunkSize       int    `toml:"chunk_size"`
	ChunkIntervalMS int    `toml:"chunk_interval_ms"`
	SweepIntervalMS int    `toml:"sweep_interval_ms"`
}

// Default config with the standard endpoints and field schema
func Default() *Config {
	config := new(Config)
	config.Notion.BaseURL = "https://api.notion.com"
	config.FMP.BaseURL = "https://financialmodelingprep.com"
	config.Yahoo.BaseURL = "https://query2.finance.yahoo.com"
	config.Fx.Pair = "USDKRW"
	config.Fields.Ticker = "티커"
	config.Fields.CurrentPrice = "현재가"
	config.Fields.PreviousClose = "전일종가"
	config.Fields.MarketCap = "시가총액"
	config.Fields.UpdatedAt = "업데이트시간"
	config.Fields.Name = "종목명"
	config.Fields.FxRate = "USDKRW"
	config.Timezone = "Asia/Seoul"
	config.ChunkSize = constants.DefaultChunkSize

	return config
}

// FromEnvironment override credentials from environment variables
func (s *Config) FromEnvironment() {
	if token := strings.TrimSpace(os.Getenv("NOTION_TOKEN")); token != "" {
		s.Notion.Token = token
	}

	if database := strings.TrimSpace(os.Getenv("DATABASE_ID")); database != "" {
		s.Notion.Database = database
	}

	if apiKey := strings.TrimSpace(os.Getenv("FMP_API_KEY")); apiKey != "" {
		s.FMP.APIKey = apiKey
	}
}

// Valid validate config
func (s Config) Valid() error {
	if strings.TrimSpace(s.Notion.Token) == "" {
		return errors.New("notion.token undefined")
	}

	if strings.TrimSpace(s.Notion.Database) == "" {
		return errors.New("notion.database undefined")
	}

	if strings.TrimSpace(s.FMP.APIKey) == "" {
		return errors.New("fmp.api_key undefined")
	}

	if strings.TrimSpace(s.Fields.Ticker) == "" {
		return errors.New("fields.ticker undefined")
	}

	if strings.TrimSpace(s.Fields.CurrentPrice) == "" {
		return errors.New("fields.current_price undefined")
	}

	_, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return errors.New("timezone invalid")
	}

	return nil
}

// ChunkInterval delay between chunk dispatches
func (s Config) ChunkInterval() time.Duration {
	if s.ChunkIntervalMS <= 0 {
		return constants.DefaultChunkInterval
	}

	return time.Duration(s.ChunkIntervalMS) * time.Millisecond
}

// SweepInterval delay before each single symbol attempt
func (s Config) SweepInterval() time.Duration {
	if s.SweepIntervalMS <= 0 {
		return constants.DefaultSweepInterval
	}

	return time.Duration(s.SweepIntervalMS) * time.Millisecond
}

// Location timezone stamped on the update time field
func (s Config) Location() *time.Location {
	location, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}

	return location
}

var (
	currentConfig *Config
)

// Get get current config
func Get() *Config {
	return currentConfig
}

// Parse parse config from an optional file path and the environment
func Parse(filePath string) (*Config, error) {
	currentConfig = Default()

	if filePath != "" {
		_, err := toml.DecodeFile(filePath, currentConfig)
		if err != nil {
			return nil, err
		}
	}

	currentConfig.FromEnvironment()

	return currentConfig, currentConfig.Valid()
}
