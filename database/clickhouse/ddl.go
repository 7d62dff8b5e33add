package clickhouse

import (
	"fmt"
	"strings"

	"stocks2ml/model"
)

func (d *ClickHouseDriver) mapType(colName string, dt model.DataType) string {
	isKey := strings.Contains(strings.ToLower(colName), "symbol")

	switch dt {
	case model.TypeString:
		if isKey {
			return "LowCardinality(String)"
		}
		return "String"
	case model.TypeFloat64:
		return "Float64"
	case model.TypeInt64:
		return "Int64"
	case model.TypeDate:
		return "Date32"
	default:
		return "String"
	}
}

func (d *ClickHouseDriver) createTableInternal(meta *model.TableMeta) error {
	var colDefs []string
	for _, col := range meta.Columns {
		sqlType := d.mapType(col.Name, col.Type)
		colDefs = append(colDefs, fmt.Sprintf("%s %s", col.Name, sqlType))
	}

	// The engine requires an ordering key. ReplacingMergeTree collapses
	// duplicate (symbol, date) rows from overlapping imports at merge time;
	// readers that need exact rows query with FINAL.
	orderBy := "tuple()"
	if len(meta.OrderByKey) > 0 {
		orderBy = fmt.Sprintf("(%s)", strings.Join(meta.OrderByKey, ", "))
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s
		) ENGINE = ReplacingMergeTree()
		ORDER BY %s
	`, meta.TableName, strings.Join(colDefs, ", "), orderBy)

	_, err := d.db.Exec(query)
	return err
}

func (d *ClickHouseDriver) registerViews() {
	d.viewImpls[model.ViewCoverage] = func() error {
		query := fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s AS
			SELECT
				symbol,
				min(date) AS first_date,
				max(date) AS last_date,
				count()   AS num_days,
				countIf(isNaN(close)) AS missing_days
			FROM %s FINAL
			GROUP BY symbol
		`, model.ViewCoverage, model.TableClosePrices.TableName)

		_, err := d.db.Exec(query)
		return err
	}

	d.viewImpls[model.ViewLatestClose] = func() error {
		query := fmt.Sprintf(`
			CREATE OR REPLACE VIEW %s AS
			SELECT
				symbol,
				argMax(date, date)  AS date,
				argMax(close, date) AS close
			FROM %s FINAL
			GROUP BY symbol
		`, model.ViewLatestClose, model.TableClosePrices.TableName)

		_, err := d.db.Exec(query)
		return err
	}
}
