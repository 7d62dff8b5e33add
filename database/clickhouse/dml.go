package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"stocks2ml/model"
)

func (d *ClickHouseDriver) importCSV(meta *model.TableMeta, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	req, err := http.NewRequest("POST", d.httpImportUrl, file)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/csv")

	q := req.URL.Query()

	if d.database != "" {
		q.Set("database", d.database)
	}

	q.Add("query", fmt.Sprintf("INSERT INTO %s FORMAT CSVWithNames", meta.TableName))
	q.Add("date_time_input_format", "best_effort")
	// Empty close cells come through as NaN, same as the DuckDB path.
	q.Add("input_format_csv_empty_as_default", "0")

	req.URL.RawQuery = q.Encode()

	if d.authUser != "" {
		req.SetBasicAuth(d.authUser, d.authPass)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		errMsg := strings.TrimSpace(string(bodyBytes))
		return fmt.Errorf("clickhouse insert failed (db: %s, status %d): %s", d.database, resp.StatusCode, errMsg)
	}

	return nil
}

func (d *ClickHouseDriver) TruncateTable(meta *model.TableMeta) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query := fmt.Sprintf("TRUNCATE TABLE IF EXISTS %s", meta.TableName)

	_, err := d.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("clickhouse truncate via tcp failed: %w", err)
	}

	return nil
}

func (d *ClickHouseDriver) ImportPrices(path string) error {
	return d.importCSV(model.TableClosePrices, path)
}

func (d *ClickHouseDriver) ImportReturns(path string) error {
	d.TruncateTable(model.TableReturns)
	return d.importCSV(model.TableReturns, path)
}

func (d *ClickHouseDriver) ImportBinary(path string) error {
	d.TruncateTable(model.TableBinaryLabels)
	return d.importCSV(model.TableBinaryLabels, path)
}

func (d *ClickHouseDriver) GetLatestDate(tableName string, dateCol string) (time.Time, error) {
	query := fmt.Sprintf("SELECT toDate(maxOrNull(%s)) AS latest FROM %s", dateCol, tableName)
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

func (d *ClickHouseDriver) GetAllSymbols() ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol",
		model.TableClosePrices.TableName)

	var symbols []string
	err := d.db.Select(&symbols, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	return symbols, nil
}

func (d *ClickHouseDriver) QueryClose(symbol string, startDate, endDate *time.Time) ([]model.ClosePrice, error) {
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

	// FINAL collapses not-yet-merged duplicates from overlapping imports.
	query := fmt.Sprintf(
		`SELECT * FROM %s FINAL WHERE %s ORDER BY date ASC`,
		model.TableClosePrices.TableName,
		strings.Join(conditions, " AND "),
	)

	var results []model.ClosePrice
	if err := d.db.Select(&results, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query closes: %w", err)
	}

	return results, nil
}
