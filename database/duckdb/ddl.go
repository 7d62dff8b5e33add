package duckdb

import (
	"fmt"
	"strings"

	"stocks2ml/model"
)

func (d *DuckDBDriver) mapType(dt model.DataType) string {
	switch dt {
	case model.TypeString:
		return "VARCHAR"
	case model.TypeFloat64:
		return "DOUBLE"
	case model.TypeInt64:
		return "BIGINT"
	case model.TypeDate:
		return "DATE"
	default:
		return "VARCHAR"
	}
}

func (d *DuckDBDriver) createTableInternal(meta *model.TableMeta) error {
	var colDefs []string
	for _, col := range meta.Columns {
		sqlType := d.mapType(col.Type)
		colDefs = append(colDefs, fmt.Sprintf("%s %s", col.Name, sqlType))
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		meta.TableName, strings.Join(colDefs, ", "))

	_, err := d.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", meta.TableName, err)
	}
	return nil
}

func (d *DuckDBDriver) registerViews() {

	// Per-symbol history coverage, used to spot companies with short or
	// gappy histories before the dense-panel cut.
	d.viewImpls[model.ViewCoverage] = func() error {
		query := fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s AS
			SELECT
				symbol,
				min(date) AS first_date,
				max(date) AS last_date,
				count(*)  AS num_days,
				count(*) FILTER (WHERE isnan(close)) AS missing_days
			FROM %s
			GROUP BY symbol
		`, model.ViewCoverage, model.TableClosePrices.TableName)

		_, err := d.db.Exec(query)
		return err
	}

	d.viewImpls[model.ViewLatestClose] = func() error {
		query := fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s AS
			SELECT p.symbol, p.date, p.close
			FROM %s p
			JOIN (
				SELECT symbol, max(date) AS date
				FROM %s
				GROUP BY symbol
			) latest ON p.symbol = latest.symbol AND p.date = latest.date
		`, model.ViewLatestClose,
			model.TableClosePrices.TableName,
			model.TableClosePrices.TableName)

		_, err := d.db.Exec(query)
		return err
	}
}
