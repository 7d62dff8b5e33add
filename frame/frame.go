// Package frame provides the wide tabular representation shared by every
// stage of the pipeline: rows are trading days in chronological order,
// columns are company identifiers, cells are float64 with NaN marking a
// missing observation.
package frame

import (
	"fmt"
	"math"
	"time"
)

type Frame struct {
	// Dates is the optional row index. Either empty or exactly one entry
	// per data row. Derived frames (returns, labels) usually drop it.
	Dates   []time.Time
	Columns []string
	// Data is row-major: Data[row][col].
	Data [][]float64
}

// New builds a frame and validates that every row matches the column count
// and that column identifiers are unique.
func New(columns []string, data [][]float64) (*Frame, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("empty column identifier")
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate column identifier: %s", c)
		}
		seen[c] = true
	}
	for i, row := range data {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i, len(row), len(columns))
		}
	}
	return &Frame{Columns: columns, Data: data}, nil
}

func (f *Frame) NumRows() int { return len(f.Data) }

func (f *Frame) NumCols() int { return len(f.Columns) }

// ColIndex returns the position of a column identifier.
func (f *Frame) ColIndex(name string) (int, bool) {
	for i, c := range f.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Col extracts one column as a freshly allocated series.
func (f *Frame) Col(idx int) []float64 {
	out := make([]float64, len(f.Data))
	for r, row := range f.Data {
		out[r] = row[idx]
	}
	return out
}

// Slice returns the row range [lo, hi). The returned frame shares the
// underlying rows; callers that mutate must Copy first.
func (f *Frame) Slice(lo, hi int) (*Frame, error) {
	if lo < 0 || hi > len(f.Data) || lo > hi {
		return nil, fmt.Errorf("slice bounds [%d, %d) out of range for %d rows", lo, hi, len(f.Data))
	}
	out := &Frame{Columns: f.Columns, Data: f.Data[lo:hi]}
	if len(f.Dates) == len(f.Data) {
		out.Dates = f.Dates[lo:hi]
	}
	return out, nil
}

// Copy returns a deep copy.
func (f *Frame) Copy() *Frame {
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Data:    make([][]float64, len(f.Data)),
	}
	if len(f.Dates) > 0 {
		out.Dates = append([]time.Time(nil), f.Dates...)
	}
	for r, row := range f.Data {
		out.Data[r] = append([]float64(nil), row...)
	}
	return out
}

// DropMissing removes every column containing at least one NaN. This is the
// all-or-nothing company filter: it narrows the universe, never single cells.
func (f *Frame) DropMissing() *Frame {
	keep := make([]int, 0, len(f.Columns))
	for c := range f.Columns {
		ok := true
		for _, row := range f.Data {
			if math.IsNaN(row[c]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, c)
		}
	}

	out := &Frame{
		Dates:   f.Dates,
		Columns: make([]string, len(keep)),
		Data:    make([][]float64, len(f.Data)),
	}
	for i, c := range keep {
		out.Columns[i] = f.Columns[c]
	}
	for r, row := range f.Data {
		newRow := make([]float64, len(keep))
		for i, c := range keep {
			newRow[i] = row[c]
		}
		out.Data[r] = newRow
	}
	return out
}

// ColumnsMatch fails when the two frames do not carry the identical ordered
// company universe. Alignment between parallel tables is by identifier, not
// by position alone.
func (f *Frame) ColumnsMatch(other *Frame) error {
	if len(f.Columns) != len(other.Columns) {
		return fmt.Errorf("column count mismatch: %d vs %d", len(f.Columns), len(other.Columns))
	}
	for i, c := range f.Columns {
		if other.Columns[i] != c {
			return fmt.Errorf("column %d mismatch: %q vs %q", i, c, other.Columns[i])
		}
	}
	return nil
}
