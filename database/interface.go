package database

import (
	"time"

	"stocks2ml/model"
)

// DataRepository is the storage backend for the pipeline checkpoints. Both
// the DuckDB and ClickHouse drivers satisfy it.
type DataRepository interface {
	Connect() error
	Close() error

	InitSchema() error

	ImportPrices(csvPath string) error
	ImportReturns(csvPath string) error
	ImportBinary(csvPath string) error

	GetLatestDate(tableName string, dateCol string) (time.Time, error)
	GetAllSymbols() ([]string, error)
	QueryClose(symbol string, startDate, endDate *time.Time) ([]model.ClosePrice, error)
}
