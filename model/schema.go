package model

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

type DataType int

const (
	TypeString DataType = iota
	TypeFloat64
	TypeInt64
	TypeDate // YYYY-MM-DD
)

type Column struct {
	Name string
	Type DataType
}

type TableMeta struct {
	TableName  string
	Columns    []Column
	OrderByKey []string
}

var (
	tableRegistry   []*TableMeta
	tableRegistryMu sync.Mutex
)

func registerTable(t *TableMeta) {
	tableRegistryMu.Lock()
	defer tableRegistryMu.Unlock()
	tableRegistry = append(tableRegistry, t)
}

// AllTables returns every registered table definition.
func AllTables() []*TableMeta {
	tableRegistryMu.Lock()
	defer tableRegistryMu.Unlock()

	result := make([]*TableMeta, len(tableRegistry))
	copy(result, tableRegistry)
	return result
}

// SchemaFromStruct derives a TableMeta from a row struct via reflection and
// registers it. Column names come from the `col` tag, falling back to the
// lowercased field name; a `type:"date"` tag forces DATE columns.
func SchemaFromStruct(tableName string, model interface{}, orderByKey []string) *TableMeta {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var cols []Column

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		colName := field.Tag.Get("col")
		if colName == "" {
			colName = strings.ToLower(field.Name)
		}

		var dType DataType
		switch {
		case field.Tag.Get("type") == "date":
			dType = TypeDate
		default:
			switch field.Type.Kind() {
			case reflect.String:
				dType = TypeString
			case reflect.Float64, reflect.Float32:
				dType = TypeFloat64
			case reflect.Int, reflect.Int64, reflect.Int32:
				dType = TypeInt64
			case reflect.Struct:
				if field.Type == reflect.TypeOf(time.Time{}) {
					dType = TypeDate
				}
			default:
				dType = TypeString
			}
		}

		cols = append(cols, Column{Name: colName, Type: dType})
	}

	meta := &TableMeta{
		TableName:  tableName,
		Columns:    cols,
		OrderByKey: orderByKey,
	}

	registerTable(meta)

	return meta
}

// --- Row structs (schema) ---

// ClosePrice is one observed daily close for one company.
type ClosePrice struct {
	Symbol string    `col:"symbol" parquet:"symbol,dict" db:"symbol"`
	Date   time.Time `col:"date"   parquet:"date"        db:"date"   type:"date"`
	Close  float64   `col:"close"  parquet:"close"       db:"close"`
}

// ReturnRow is one m-period percentage return observation.
type ReturnRow struct {
	Symbol string    `col:"symbol" parquet:"symbol,dict" db:"symbol"`
	Date   time.Time `col:"date"   parquet:"date"        db:"date"   type:"date"`
	Ret    float64   `col:"ret"    parquet:"ret"         db:"ret"`
}

// BinaryRow is one cross-sectional classification label (0 or 1).
type BinaryRow struct {
	Symbol string    `col:"symbol" parquet:"symbol,dict" db:"symbol"`
	Date   time.Time `col:"date"   parquet:"date"        db:"date"   type:"date"`
	Label  int64     `col:"label"  parquet:"label"       db:"label"`
}

// --- Table metadata ---

var TableClosePrices = SchemaFromStruct(
	"raw_close_prices",
	ClosePrice{},
	[]string{"symbol", "date"},
)

var TableReturns = SchemaFromStruct(
	"returns_daily",
	ReturnRow{},
	[]string{"symbol", "date"},
)

var TableBinaryLabels = SchemaFromStruct(
	"binary_labels",
	BinaryRow{},
	[]string{"symbol", "date"},
)
