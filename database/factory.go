package database

import (
	"fmt"
	"net/url"
	"strings"

	"stocks2ml/database/clickhouse"
	"stocks2ml/database/duckdb"
	"stocks2ml/model"
)

// NewDatabase picks a driver from the DSN: clickhouse:// goes to ClickHouse,
// everything else is treated as a DuckDB file path.
func NewDatabase(cfg model.DBConfig) (DataRepository, error) {
	switch cfg.Type {
	case model.DBTypeDuckDB:
		return duckdb.NewDriver(cfg), nil
	case model.DBTypeClickHouse:
		u, err := url.Parse(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid clickhouse dsn: %w", err)
		}
		return clickhouse.NewDriver(u)
	default:
		return nil, fmt.Errorf("unsupported db type: %s", cfg.Type)
	}
}

// ConfigFromDSN infers the backend type from the DSN scheme.
func ConfigFromDSN(dsn string) model.DBConfig {
	if strings.HasPrefix(dsn, "clickhouse://") {
		return model.DBConfig{Type: model.DBTypeClickHouse, DSN: dsn}
	}
	return model.DBConfig{Type: model.DBTypeDuckDB, DSN: dsn}
}
