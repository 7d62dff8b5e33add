package duckdb

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"stocks2ml/model"
)

// readCSVClause builds the typed read_csv source for a table's CSV file.
// Empty cells become NULL so missing data survives the round trip through
// the wide frame.
func (d *DuckDBDriver) readCSVClause(meta *model.TableMeta, csvPath string) string {
	var colMaps []string
	for _, col := range meta.Columns {
		duckType := d.mapType(col.Type)
		colMaps = append(colMaps, fmt.Sprintf("'%s': '%s'", col.Name, duckType))
	}

	return fmt.Sprintf(`read_csv('%s',
			header=true,
			columns={%s},
			dateformat='%%Y-%%m-%%d',
			nullstr=''
		)`, csvPath, strings.Join(colMaps, ", "))
}

func (d *DuckDBDriver) importCSV(meta *model.TableMeta, csvPath string) error {
	query := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s",
		meta.TableName, d.readCSVClause(meta, csvPath))

	_, err := d.db.Exec(query)
	return err
}

func (d *DuckDBDriver) truncateTable(meta *model.TableMeta) error {
	query := fmt.Sprintf("DELETE FROM %s", meta.TableName)

	_, err := d.db.Exec(query)
	if err != nil {
		return fmt.Errorf("duckdb truncate failed: %w", err)
	}
	return nil
}

// ImportPrices appends only (symbol, date) pairs the table has not seen, so
// re-running a fetch over an overlapping date range never double-loads rows.
func (d *DuckDBDriver) ImportPrices(path string) error {
	meta := model.TableClosePrices
	query := fmt.Sprintf(`
		INSERT INTO %s
		SELECT src.* FROM %s src
		WHERE NOT EXISTS (
			SELECT 1 FROM %s t
			WHERE t.symbol = src.symbol AND t.date = src.date
		)
	`, meta.TableName, d.readCSVClause(meta, path), meta.TableName)

	_, err := d.db.Exec(query)
	return err
}

func (d *DuckDBDriver) ImportReturns(path string) error {
	d.truncateTable(model.TableReturns)
	return d.importCSV(model.TableReturns, path)
}

func (d *DuckDBDriver) ImportBinary(path string) error {
	d.truncateTable(model.TableBinaryLabels)
	return d.importCSV(model.TableBinaryLabels, path)
}

func (d *DuckDBDriver) GetLatestDate(tableName string, dateCol string) (time.Time, error) {
	query := fmt.Sprintf("SELECT DATE(max(%s)) AS latest FROM %s", dateCol, tableName)

	var latest sql.NullTime
	err := d.db.Get(&latest, query)
	if err != nil {
		return time.Time{}, err
	}

	if !latest.Valid {
		return time.Time{}, nil
	}

	return latest.Time, nil
}

func (d *DuckDBDriver) GetAllSymbols() ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol",
		model.TableClosePrices.TableName)

	var symbols []string
	err := d.db.Select(&symbols, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}

	return symbols, nil
}

func (d *DuckDBDriver) QueryClose(symbol string, startDate, endDate *time.Time) ([]model.ClosePrice, error) {
	conditions := []string{"symbol = ?"}
	args := []interface{}{symbol}

	if startDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *startDate)
	}
	if endDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *endDate)
	}

	query := fmt.Sprintf(
		`SELECT * FROM %s WHERE %s ORDER BY date ASC`,
		model.TableClosePrices.TableName,
		strings.Join(conditions, " AND "),
	)

	var results []model.ClosePrice
	if err := d.db.Select(&results, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query closes: %w", err)
	}

	return results, nil
}
