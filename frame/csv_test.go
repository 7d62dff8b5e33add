package frame

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTripWithDates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "PriceData.csv")

	f, err := New([]string{"AAPL", "MSFT"}, [][]float64{
		{100.5, 50.25},
		{101, math.NaN()},
	})
	require.NoError(t, err)
	f.Dates = []time.Time{
		time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, f.WriteCSV(path))

	got, err := ReadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, f.Columns, got.Columns)
	require.Equal(t, 2, got.NumRows())
	assert.Equal(t, f.Dates, got.Dates)
	assert.Equal(t, 100.5, got.Data[0][0])
	assert.Equal(t, 101.0, got.Data[1][0])
	assert.True(t, math.IsNaN(got.Data[1][1]), "empty cell reads back as NaN")
}

func TestCSVRoundTripWithoutDates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ReturnsData.csv")

	f, err := New([]string{"AAPL"}, [][]float64{{0.01}, {-0.02}})
	require.NoError(t, err)

	require.NoError(t, f.WriteCSV(path))

	got, err := ReadCSV(path)
	require.NoError(t, err)

	assert.Empty(t, got.Dates)
	assert.Equal(t, f.Columns, got.Columns)
	assert.Equal(t, f.Data, got.Data)
}

func TestReadCSVRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadCSV(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = ReadCSV(empty)
	assert.Error(t, err)

	badDate := filepath.Join(dir, "bad_date.csv")
	require.NoError(t, os.WriteFile(badDate, []byte("Date,AAPL\nnot-a-date,1.0\n"), 0644))
	_, err = ReadCSV(badDate)
	assert.Error(t, err)

	badCell := filepath.Join(dir, "bad_cell.csv")
	require.NoError(t, os.WriteFile(badCell, []byte("Date,AAPL\n2020-01-02,abc\n"), 0644))
	_, err = ReadCSV(badCell)
	assert.Error(t, err)
}
