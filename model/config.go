package model

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type DBType string

const (
	DBTypeDuckDB     DBType = "duckdb"
	DBTypeClickHouse DBType = "clickhouse"
)

type DBConfig struct {
	Type DBType
	DSN  string
}

// FetchConfig holds provider settings for the price download stage. Values
// come from S2M_* environment variables with sensible defaults, so a plain
// `stocks2ml fetch` works without any setup.
type FetchConfig struct {
	ChartBaseURL    string        `envconfig:"CHART_BASE_URL" default:"https://query1.finance.yahoo.com"`
	ConstituentsURL string        `envconfig:"CONSTITUENTS_URL" default:"https://raw.githubusercontent.com/datasets/s-and-p-500-companies/main/data/constituents.csv"`
	Timeout         time.Duration `envconfig:"TIMEOUT" default:"30s"`
	Concurrency     int           `envconfig:"CONCURRENCY" default:"16"`
	UserAgent       string        `envconfig:"USER_AGENT" default:"Mozilla/5.0 (X11; Linux x86_64) stocks2ml/1.0"`
}

func LoadFetchConfig() (*FetchConfig, error) {
	var cfg FetchConfig
	if err := envconfig.Process("S2M", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load fetch config from env: %w", err)
	}
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("fetch concurrency must be positive, got %d", cfg.Concurrency)
	}
	return &cfg, nil
}
