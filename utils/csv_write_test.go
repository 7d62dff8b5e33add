package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	Symbol string    `col:"symbol"`
	Date   time.Time `col:"date" type:"date"`
	Close  float64   `col:"close"`
}

func TestCSVWriterHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	w, err := NewCSVWriter[testRow](path)
	require.NoError(t, err)

	rows := []testRow{
		{Symbol: "AAPL", Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Close: 100.5},
		{Symbol: "MSFT", Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Close: 50},
	}
	require.NoError(t, w.Write(rows))
	require.NoError(t, w.Write(rows[:1]))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "symbol,date,close\nAAPL,2020-01-02,100.5\nMSFT,2020-01-02,50\nAAPL,2020-01-02,100.5\n"
	assert.Equal(t, want, string(data))
}

func TestCSVWriterEmptyBatchWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	w, err := NewCSVWriter[testRow](path)
	require.NoError(t, err)
	require.NoError(t, w.Write(nil))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data, "header only appears once data arrives")
}

func TestCSVWriterRejectsNonStruct(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	_, err := NewCSVWriter[int](path)
	assert.Error(t, err)
}
