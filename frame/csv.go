package frame

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ReadCSV loads a checkpoint file. When the first header field is "date"
// (case-insensitive) that column becomes the row index and is stripped from
// the numeric table, matching the raw price checkpoint layout. Empty cells
// parse as NaN.
func ReadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("checkpoint %s is empty", path)
	}

	header := records[0]
	hasDate := len(header) > 0 && strings.EqualFold(strings.TrimSpace(header[0]), "date")
	start := 0
	if hasDate {
		start = 1
	}

	columns := make([]string, 0, len(header)-start)
	for _, h := range header[start:] {
		columns = append(columns, strings.TrimSpace(h))
	}

	f := &Frame{Columns: columns}
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("%s line %d: %d cells, expected %d", path, i+2, len(record), len(header))
		}
		if hasDate {
			d, err := time.Parse(dateLayout, strings.TrimSpace(record[0]))
			if err != nil {
				return nil, fmt.Errorf("%s line %d: bad date: %w", path, i+2, err)
			}
			f.Dates = append(f.Dates, d)
		}
		row := make([]float64, len(columns))
		for c, cell := range record[start:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				row[c] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %s: %w", path, i+2, columns[c], err)
			}
			row[c] = v
		}
		f.Data = append(f.Data, row)
	}

	if _, err := New(f.Columns, f.Data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// WriteCSV persists the frame as a checkpoint. The date index column is
// emitted only when the frame carries one. NaN cells are written empty.
func (f *Frame) WriteCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	hasDate := len(f.Dates) == len(f.Data) && len(f.Dates) > 0

	header := f.Columns
	if hasDate {
		header = append([]string{"Date"}, f.Columns...)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for r, row := range f.Data {
		i := 0
		if hasDate {
			record[0] = f.Dates[r].Format(dateLayout)
			i = 1
		}
		for _, v := range row {
			if math.IsNaN(v) {
				record[i] = ""
			} else {
				record[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			i++
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush checkpoint %s: %w", path, err)
	}
	return nil
}
