package calc

import (
	"math"

	"stocks2ml/frame"
)

// Scaler standardizes each column to zero mean and unit variance. The
// variance is the population variance, matching the statistics a freshly
// fit sklearn StandardScaler would produce on the same segment.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// Fit computes per-column statistics over the frame. Columns with zero
// variance get a scale of 1 so transformed values collapse to 0.
func (s *Scaler) Fit(f *frame.Frame) {
	cols := f.NumCols()
	rows := f.NumRows()
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	for c := 0; c < cols; c++ {
		var sum float64
		for r := 0; r < rows; r++ {
			sum += f.Data[r][c]
		}
		mean := sum / float64(rows)

		var sq float64
		for r := 0; r < rows; r++ {
			d := f.Data[r][c] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(rows))
		if std == 0 {
			std = 1
		}

		s.Mean[c] = mean
		s.Std[c] = std
	}
}

// Transform returns a new frame with every column standardized by the
// fitted statistics.
func (s *Scaler) Transform(f *frame.Frame) *frame.Frame {
	out := &frame.Frame{
		Dates:   f.Dates,
		Columns: f.Columns,
		Data:    make([][]float64, f.NumRows()),
	}
	for r, row := range f.Data {
		scaled := make([]float64, len(row))
		for c, v := range row {
			scaled[c] = (v - s.Mean[c]) / s.Std[c]
		}
		out.Data[r] = scaled
	}
	return out
}

// FitTransform fits on the frame and standardizes it in one step.
func (s *Scaler) FitTransform(f *frame.Frame) *frame.Frame {
	s.Fit(f)
	return s.Transform(f)
}
