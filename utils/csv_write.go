package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"reflect"
	"time"
)

// CSVWriter writes slices of row structs as CSV, taking headers from the
// `col` struct tag. Safe for sequential use by a single consumer goroutine.
type CSVWriter[T any] struct {
	file          *os.File
	writer        *csv.Writer
	headerWritten bool
	columns       []columnInfo
}

type columnInfo struct {
	Index      int
	HeaderName string
	IsTime     bool
	IsDateType bool // tagged type:"date", short YYYY-MM-DD format
}

func NewCSVWriter[T any](filename string) (*CSVWriter[T], error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	w := csv.NewWriter(f)

	cols, err := analyzeStructTags[T]()
	if err != nil {
		f.Close()
		return nil, err
	}

	return &CSVWriter[T]{
		file:    f,
		writer:  w,
		columns: cols,
	}, nil
}

func analyzeStructTags[T any]() ([]columnInfo, error) {
	var t T
	typ := reflect.TypeOf(t)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("generic type T must be a struct")
	}

	var cols []columnInfo
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		colTag := field.Tag.Get("col")
		if colTag == "" {
			colTag = field.Name
		}

		cols = append(cols, columnInfo{
			Index:      i,
			HeaderName: colTag,
			IsTime:     field.Type == reflect.TypeOf(time.Time{}),
			IsDateType: field.Tag.Get("type") == "date",
		})
	}
	return cols, nil
}

// Write appends a batch of rows, emitting the header on first use.
func (cw *CSVWriter[T]) Write(data []T) error {
	if len(data) == 0 {
		return nil
	}

	if !cw.headerWritten {
		headers := make([]string, len(cw.columns))
		for i, col := range cw.columns {
			headers[i] = col.HeaderName
		}
		if err := cw.writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		cw.headerWritten = true
	}

	record := make([]string, len(cw.columns))
	for _, item := range data {
		val := reflect.ValueOf(item)
		if val.Kind() == reflect.Ptr {
			val = val.Elem()
		}

		for i, col := range cw.columns {
			fieldVal := val.Field(col.Index)

			if col.IsTime {
				t := fieldVal.Interface().(time.Time)
				if t.IsZero() {
					record[i] = ""
				} else if col.IsDateType {
					record[i] = t.Format("2006-01-02")
				} else {
					record[i] = t.Format(time.RFC3339)
				}
				continue
			}

			record[i] = fmt.Sprint(fieldVal.Interface())
		}

		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	return nil
}

func (cw *CSVWriter[T]) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.Close()
		return fmt.Errorf("failed to flush: %w", err)
	}
	return cw.file.Close()
}
