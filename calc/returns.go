// Package calc implements the derivation stages of the pipeline: m-period
// returns, cross-sectional binary labels, rolling study periods, window
// sequences and the final train/test tensor assembly.
package calc

import (
	"fmt"
	"time"

	"stocks2ml/frame"
)

// Returns converts a close-price table into an m-period percentage-return
// table: r[t] = p[t+m]/p[t] - 1, yielding len(prices)-m rows. m must be
// positive; going backward in time is reported, not corrected. With
// noMissing set, companies with any missing value after the shift are
// dropped entirely from the universe.
func Returns(prices *frame.Frame, m int, noMissing bool) (*frame.Frame, error) {
	if m <= 0 {
		return nil, fmt.Errorf("invalid return period m=%d: must be a positive number of days", m)
	}
	if prices.NumRows() <= m {
		return nil, fmt.Errorf("price table has %d rows, need more than m=%d", prices.NumRows(), m)
	}

	rows := prices.NumRows() - m
	data := make([][]float64, rows)
	for t := 0; t < rows; t++ {
		row := make([]float64, prices.NumCols())
		for c := 0; c < prices.NumCols(); c++ {
			row[c] = prices.Data[t+m][c]/prices.Data[t][c] - 1
		}
		data[t] = row
	}

	out, err := frame.New(append([]string(nil), prices.Columns...), data)
	if err != nil {
		return nil, err
	}
	// A return keeps the date of its anchor day t, so the last m dates fall off.
	if len(prices.Dates) == prices.NumRows() {
		out.Dates = append([]time.Time(nil), prices.Dates[:rows]...)
	}

	if noMissing {
		out = out.DropMissing()
	}
	return out, nil
}
