package calc

import (
	"math"
	"sort"

	"stocks2ml/frame"
)

// BinaryLabels assigns each return its classification target: per row
// (time index), values at or below the cross-sectional median become class
// 0, values above it class 1. Ties at the median deliberately go to class 0;
// this boundary rule is part of the labeling contract and must not be
// "fixed" to a symmetric split. The input is left untouched.
func BinaryLabels(returns *frame.Frame) *frame.Frame {
	out := &frame.Frame{
		Dates:   returns.Dates,
		Columns: append([]string(nil), returns.Columns...),
		Data:    make([][]float64, returns.NumRows()),
	}

	for t, row := range returns.Data {
		med := median(row)
		labels := make([]float64, len(row))
		for c, v := range row {
			if v <= med {
				labels[c] = 0
			} else {
				labels[c] = 1
			}
		}
		out.Data[t] = labels
	}
	return out
}

// median computes the cross-sectional median over the finite values of one
// row, averaging the middle pair when the count is even.
func median(row []float64) float64 {
	vals := make([]float64, 0, len(row))
	for _, v := range row {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}
