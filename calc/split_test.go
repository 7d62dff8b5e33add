package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocks2ml/frame"
)

func rampFrame(t *testing.T, columns []string, rows int) (*frame.Frame, *frame.Frame) {
	t.Helper()
	retData := make([][]float64, rows)
	binData := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		retRow := make([]float64, len(columns))
		binRow := make([]float64, len(columns))
		for c := range columns {
			retRow[c] = float64(r*len(columns) + c)
			binRow[c] = float64((r + c) % 2)
		}
		retData[r] = retRow
		binData[r] = binRow
	}
	return newFrame(t, columns, retData), newFrame(t, columns, binData)
}

func TestSplitPeriodsRollingWindows(t *testing.T) {
	returns, binary := rampFrame(t, []string{"A", "B"}, 10)

	periodsRet, periodsBin, err := SplitPeriods(returns, binary, 4, 2)
	require.NoError(t, err)

	// Offsets 0, 2, 4, 6 all fit a 4-row window into 10 rows.
	require.Len(t, periodsRet, 4)
	require.Len(t, periodsBin, 4)
	for i, p := range periodsRet {
		assert.Equal(t, 4, p.NumRows(), "period %d", i)
	}

	// Period i starts at row i*lenTest.
	assert.Equal(t, returns.Data[0], periodsRet[0].Data[0])
	assert.Equal(t, returns.Data[2], periodsRet[1].Data[0])
	assert.Equal(t, returns.Data[6], periodsRet[3].Data[0])
	assert.Equal(t, binary.Data[4], periodsBin[2].Data[0])
}

func TestSplitPeriodsShortTableYieldsNoPeriods(t *testing.T) {
	returns, binary := rampFrame(t, []string{"A"}, 3)

	periodsRet, periodsBin, err := SplitPeriods(returns, binary, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, periodsRet)
	assert.Empty(t, periodsBin)
}

func TestSplitPeriodsValidation(t *testing.T) {
	returns, binary := rampFrame(t, []string{"A"}, 10)

	_, _, err := SplitPeriods(returns, binary, 0, 2)
	assert.Error(t, err)

	_, _, err = SplitPeriods(returns, binary, 4, 0)
	assert.Error(t, err)

	short, shortBin := rampFrame(t, []string{"A"}, 9)
	_ = shortBin
	_, _, err = SplitPeriods(returns, short, 4, 2)
	assert.Error(t, err, "length mismatch must be rejected")

	other, otherBin := rampFrame(t, []string{"B"}, 10)
	_ = other
	_, _, err = SplitPeriods(returns, otherBin, 4, 2)
	assert.Error(t, err, "misaligned company universe must be rejected")
}

func TestNumPeriods(t *testing.T) {
	tests := []struct {
		rows, lenPeriod, lenTest, want int
	}{
		{10, 4, 2, 4},
		{4, 4, 2, 1},
		{3, 4, 2, 0},
		{1700, 1308, 327, 2},
		{0, 4, 2, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NumPeriods(tt.rows, tt.lenPeriod, tt.lenTest),
			"rows=%d lenPeriod=%d lenTest=%d", tt.rows, tt.lenPeriod, tt.lenTest)
	}
}

func TestSequencesWindowing(t *testing.T) {
	returns := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	targets := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}

	X, y, err := Sequences(returns, targets, 3)
	require.NoError(t, err)

	require.Len(t, X, 7)
	require.Len(t, y, 7)
	assert.Equal(t, []float64{0, 1, 2}, X[0])
	assert.Equal(t, 13.0, y[0])
	assert.Equal(t, []float64{6, 7, 8}, X[6])
	assert.Equal(t, 19.0, y[6])
}

func TestSequencesShortSeriesYieldsNothing(t *testing.T) {
	for _, n := range []int{3, 5} {
		X, y, err := Sequences([]float64{1, 2, 3}, []float64{0, 1, 0}, n)
		require.NoError(t, err)
		assert.Empty(t, X)
		assert.Empty(t, y)
	}
}

func TestSequencesLengthMismatch(t *testing.T) {
	_, _, err := Sequences([]float64{1, 2, 3}, []float64{0, 1}, 1)
	assert.Error(t, err)
}
