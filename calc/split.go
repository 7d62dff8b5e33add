package calc

import (
	"fmt"

	"stocks2ml/frame"
)

// SplitPeriods slices the paired return/label tables into overlapping study
// periods: a rolling window of lenPeriod rows advanced by lenTest rows per
// step, emitted while the window still fits. When the tables are shorter
// than lenPeriod the result is an empty pair; partial windows are never
// produced. The two tables must carry the same rows and the same ordered
// company universe.
func SplitPeriods(returns, binary *frame.Frame, lenPeriod, lenTest int) ([]*frame.Frame, []*frame.Frame, error) {
	if lenPeriod <= 0 || lenTest <= 0 {
		return nil, nil, fmt.Errorf("invalid period split: lenPeriod=%d lenTest=%d must be positive", lenPeriod, lenTest)
	}
	if returns.NumRows() != binary.NumRows() {
		return nil, nil, fmt.Errorf("returns and binary tables disagree on length: %d vs %d", returns.NumRows(), binary.NumRows())
	}
	if err := returns.ColumnsMatch(binary); err != nil {
		return nil, nil, fmt.Errorf("returns and binary tables are not aligned: %w", err)
	}

	var periodsRet, periodsBin []*frame.Frame
	for start := 0; start+lenPeriod <= returns.NumRows(); start += lenTest {
		r, err := returns.Slice(start, start+lenPeriod)
		if err != nil {
			return nil, nil, err
		}
		b, err := binary.Slice(start, start+lenPeriod)
		if err != nil {
			return nil, nil, err
		}
		periodsRet = append(periodsRet, r)
		periodsBin = append(periodsBin, b)
	}
	return periodsRet, periodsBin, nil
}

// NumPeriods reports how many study periods SplitPeriods emits for a table
// of the given length.
func NumPeriods(rows, lenPeriod, lenTest int) int {
	if lenPeriod <= 0 || lenTest <= 0 || rows < lenPeriod {
		return 0
	}
	return (rows-lenPeriod)/lenTest + 1
}

// Sequences windows one company's series into model inputs: X[i] is the
// nSteps consecutive returns starting at i, y[i] the label observed nSteps
// days later. Series of length nSteps or shorter produce no sequences.
// Temporal order is preserved; shuffling belongs to the training stage.
func Sequences(returns, targets []float64, nSteps int) ([][]float64, []float64, error) {
	if len(returns) != len(targets) {
		return nil, nil, fmt.Errorf("sequence inputs disagree on length: %d vs %d", len(returns), len(targets))
	}
	n := len(returns) - nSteps
	if n <= 0 {
		return nil, nil, nil
	}

	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X[i] = returns[i : i+nSteps]
		y[i] = targets[i+nSteps]
	}
	return X, y, nil
}
