package workflow

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocks2ml/calc"
	"stocks2ml/database"
	"stocks2ml/model"
)

type stubRepo struct {
	latest    time.Time
	latestErr error
}

var _ database.DataRepository = (*stubRepo)(nil)

func (s *stubRepo) Connect() error              { return nil }
func (s *stubRepo) Close() error                { return nil }
func (s *stubRepo) InitSchema() error           { return nil }
func (s *stubRepo) ImportPrices(string) error   { return nil }
func (s *stubRepo) ImportReturns(string) error  { return nil }
func (s *stubRepo) ImportBinary(string) error   { return nil }
func (s *stubRepo) GetAllSymbols() ([]string, error) { return nil, nil }

func (s *stubRepo) GetLatestDate(table, dateCol string) (time.Time, error) {
	return s.latest, s.latestErr
}

func (s *stubRepo) QueryClose(symbol string, start, end *time.Time) ([]model.ClosePrice, error) {
	return nil, nil
}

func TestCheckpointPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "PriceData.csv"), PricePanelPath("/data"))
	assert.Equal(t, filepath.Join("/data", "ReturnsData.csv"), ReturnsPath("/data"))
	assert.Equal(t, filepath.Join("/data", "ReturnsBinary.csv"), BinaryPath("/data"))
	assert.Equal(t, filepath.Join("/data", "ReturnsBinaryDWT.csv"), BinaryDWTPath("/data"))
	assert.Equal(t, filepath.Join("/data", "ReturnsDWT_haar.csv"), DenoisedPath("/data", "haar"))
	assert.Equal(t, filepath.Join("/data", "ReturnsDWT_haar_3.csv"), DecomposedPath("/data", "haar", 3))
	assert.Equal(t, filepath.Join("/data", "lstm_period_0.parquet"), DatasetPath("/data", "lstm", 0))
}

func TestSelectPeriods(t *testing.T) {
	args := &TaskArgs{
		Period: -1,
		Params: calc.Params{LenPeriod: 4, LenTest: 2, LenTrain: 3, NSteps: 1},
	}

	assert.Equal(t, []int{0, 1, 2, 3}, selectPeriods(10, args))

	args.Period = 2
	assert.Equal(t, []int{2}, selectPeriods(10, args))

	args.Period = 4
	assert.Nil(t, selectPeriods(10, args), "period beyond the last window")

	args.Period = -1
	assert.Empty(t, selectPeriods(3, args), "table shorter than one period")
}

func TestResumeStart(t *testing.T) {
	requested := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty repository keeps requested start", func(t *testing.T) {
		assert.Equal(t, requested, resumeStart(&stubRepo{}, requested))
	})

	t.Run("stored history advances to the day after the newest close", func(t *testing.T) {
		repo := &stubRepo{latest: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)}
		assert.Equal(t, time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC), resumeStart(repo, requested))
	})

	t.Run("history older than the requested start changes nothing", func(t *testing.T) {
		repo := &stubRepo{latest: time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)}
		assert.Equal(t, requested, resumeStart(repo, requested))
	})

	t.Run("query failure falls back to requested start", func(t *testing.T) {
		repo := &stubRepo{latestErr: assert.AnError}
		assert.Equal(t, requested, resumeStart(repo, requested))
	})
}

func TestExportDatasetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lstm_period_0.parquet")

	ds := &calc.Dataset{
		XTrain: [][][]float64{
			{{0.1}, {0.2}},
			{{0.3}, {0.4}},
			{{0.5}, {0.6}},
			{{0.7}, {0.8}},
		},
		YTrain: []float64{0, 1, 1, 0},
		XTest: [][][]float64{
			{{0.9}, {1.0}},
			{{1.1}, {1.2}},
		},
		YTest: []float64{1, 0},
	}

	n, err := exportDataset(path, []string{"AAPL", "MSFT"}, ds, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	rows, err := parquet.ReadFile[model.SequenceRow](path)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	first := rows[0]
	assert.Equal(t, int32(0), first.Period)
	assert.Equal(t, "train", first.Split)
	assert.Equal(t, "AAPL", first.Symbol)
	assert.Equal(t, int32(2), first.NSteps)
	assert.Equal(t, int32(1), first.Channels)
	assert.Equal(t, []float64{0.1, 0.2}, first.Features)
	assert.Equal(t, 0.0, first.Target)

	// Company-major stacking: the second half of the train split belongs
	// to the second symbol.
	assert.Equal(t, "MSFT", rows[2].Symbol)
	assert.Equal(t, "test", rows[4].Split)
}

func TestExportFlatDatasetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dnn_period_1.parquet")

	ds := &calc.FlatDataset{
		XTrain: [][]float64{{0.1, 0.2, 0.3}},
		YTrain: []float64{1},
		XTest:  [][]float64{{0.4, 0.5, 0.6}},
		YTest:  []float64{0},
	}

	n, err := exportFlatDataset(path, []string{"AAPL"}, ds, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := parquet.ReadFile[model.SequenceRow](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int32(1), rows[0].Period)
	assert.Equal(t, int32(3), rows[0].NSteps)
	assert.Equal(t, int32(1), rows[0].Channels)
	assert.Equal(t, []float64{0.4, 0.5, 0.6}, rows[1].Features)
	assert.Equal(t, "test", rows[1].Split)
}
