package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"stocks2ml/calc"
	"stocks2ml/database"
	"stocks2ml/frame"
	"stocks2ml/model"
	"stocks2ml/utils"
	"stocks2ml/yahoo"
)

var (
	TaskFetchPrices     *Task
	TaskCalcReturns     *Task
	TaskCalcBinary      *Task
	TaskLabelDecomposed *Task
	TaskExportDatasets  *Task
)

func init() {
	TaskFetchPrices = &Task{
		Name:      "fetch_prices",
		DependsOn: []string{},
		Executor:  executeFetchPrices,
	}

	TaskCalcReturns = &Task{
		Name:      "calc_returns",
		DependsOn: []string{"fetch_prices"},
		Executor:  executeCalcReturns,
	}

	TaskCalcBinary = &Task{
		Name:      "calc_binary",
		DependsOn: []string{"calc_returns"},
		Executor:  executeCalcBinary,
	}

	TaskLabelDecomposed = &Task{
		Name:      "label_decomposed",
		DependsOn: []string{"calc_returns"},
		SkipIf: func(ctx context.Context, db database.DataRepository, args *TaskArgs) bool {
			return args.Wavelet == ""
		},
		Executor: executeLabelDecomposed,
		OnError:  ErrorModeSkip,
	}

	TaskExportDatasets = &Task{
		Name:      "export_datasets",
		DependsOn: []string{"calc_binary", "label_decomposed"},
		Executor:  executeExportDatasets,
	}
}

// AllTasks returns the full pipeline task set keyed by name.
func AllTasks() map[string]*Task {
	return map[string]*Task{
		TaskFetchPrices.Name:     TaskFetchPrices,
		TaskCalcReturns.Name:     TaskCalcReturns,
		TaskCalcBinary.Name:      TaskCalcBinary,
		TaskLabelDecomposed.Name: TaskLabelDecomposed,
		TaskExportDatasets.Name:  TaskExportDatasets,
	}
}

// Checkpoint file names inside the data directory. Downstream tooling
// matches on these exact names.

func PricePanelPath(dir string) string { return filepath.Join(dir, "PriceData.csv") }
func ReturnsPath(dir string) string    { return filepath.Join(dir, "ReturnsData.csv") }
func BinaryPath(dir string) string     { return filepath.Join(dir, "ReturnsBinary.csv") }
func BinaryDWTPath(dir string) string  { return filepath.Join(dir, "ReturnsBinaryDWT.csv") }

// DenoisedPath is the wavelet-denoised return table produced by the external
// decomposition step.
func DenoisedPath(dir, family string) string {
	return filepath.Join(dir, fmt.Sprintf("ReturnsDWT_%s.csv", family))
}

// DecomposedPath is one multi-resolution channel of the decomposition,
// channels numbered from 1.
func DecomposedPath(dir, family string, channel int) string {
	return filepath.Join(dir, fmt.Sprintf("ReturnsDWT_%s_%d.csv", family, channel))
}

func DatasetPath(dir, kind string, period int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_period_%d.parquet", kind, period))
}

func executeFetchPrices(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	cfg, err := model.LoadFetchConfig()
	if err != nil {
		return nil, err
	}

	start := resumeStart(db, args.Start)
	if start.Before(args.End) {
		if start.After(args.Start) {
			log.Info().Time("resume", start).Msg("resuming from the stored price history")
		}
		if err := downloadPrices(ctx, db, cfg, args, start); err != nil {
			return nil, err
		}
	} else {
		log.Info().Msg("stored price history already covers the requested range")
	}

	panel, err := database.LoadWidePanel(db)
	if err != nil {
		return nil, err
	}
	if err := panel.WriteCSV(PricePanelPath(args.DataDir)); err != nil {
		return nil, err
	}

	log.Info().
		Int("rows", panel.NumRows()).
		Int("companies", panel.NumCols()).
		Msg("price panel written")

	return &TaskResult{State: StateCompleted, Rows: panel.NumRows(), Message: "prices fetched"}, nil
}

// resumeStart advances the download start past the newest stored close so a
// re-run only fetches the missing tail. Query failures mean a fresh or empty
// repository and fall back to the requested start.
func resumeStart(db database.DataRepository, start time.Time) time.Time {
	latest, err := db.GetLatestDate(model.TableClosePrices.TableName, "date")
	if err != nil || latest.IsZero() {
		return start
	}
	if next := latest.AddDate(0, 0, 1); next.After(start) {
		return next
	}
	return start
}

func downloadPrices(ctx context.Context, db database.DataRepository, cfg *model.FetchConfig, args *TaskArgs, start time.Time) error {
	client := yahoo.NewClient(cfg)

	var tickers []string
	var err error
	if args.TickerFile != "" {
		tickers, err = yahoo.ReadTickerFile(args.TickerFile)
	} else {
		tickers, err = client.Constituents(ctx, cfg.ConstituentsURL)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve ticker universe: %w", err)
	}
	log.Info().Int("tickers", len(tickers)).Msg("downloading close prices")

	longCSV := filepath.Join(args.TempDir, "prices_long.csv")
	writer, err := utils.NewCSVWriter[model.ClosePrice](longCSV)
	if err != nil {
		return err
	}

	pipe := utils.NewPipeline[string, model.ClosePrice](
		utils.WithConcurrency(cfg.Concurrency),
	)
	res, err := pipe.RunWithWriter(ctx, tickers,
		func(ctx context.Context, symbol string) ([]model.ClosePrice, error) {
			return client.History(ctx, symbol, start, args.End)
		},
		writer,
	)
	if closeErr := writer.Close(); closeErr != nil {
		return closeErr
	}
	if err != nil {
		return err
	}

	if res.HasErrors() {
		log.Warn().
			Int("failed", len(res.Errors)).
			Str("errors", res.ErrorSummary()).
			Msg("some tickers could not be downloaded")
	}
	if res.ProcessedItems == 0 {
		return fmt.Errorf("no ticker could be downloaded: %s", res.ErrorSummary())
	}
	log.Info().
		Int64("rows", res.OutputRows).
		Dur("took", res.Duration).
		Msg("price download finished")

	if err := db.ImportPrices(longCSV); err != nil {
		return fmt.Errorf("failed to import prices: %w", err)
	}
	return nil
}

func executeCalcReturns(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	prices, err := frame.ReadCSV(PricePanelPath(args.DataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read price panel: %w", err)
	}

	m := args.ReturnLag
	if m <= 0 {
		m = 1
	}

	// Companies with gaps are dropped here so every later stage sees a
	// dense panel.
	returns, err := calc.Returns(prices, m, true)
	if err != nil {
		return nil, err
	}
	if err := returns.WriteCSV(ReturnsPath(args.DataDir)); err != nil {
		return nil, err
	}

	if err := importLong(db, args.TempDir, "returns_long.csv", returns, db.ImportReturns,
		func(symbol string, date time.Time, v float64) model.ReturnRow {
			return model.ReturnRow{Symbol: symbol, Date: date, Ret: v}
		}); err != nil {
		return nil, err
	}

	log.Info().
		Int("rows", returns.NumRows()).
		Int("companies", returns.NumCols()).
		Int("lag", m).
		Msg("returns computed")

	return &TaskResult{State: StateCompleted, Rows: returns.NumRows(), Message: "returns computed"}, nil
}

func executeCalcBinary(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	returns, err := frame.ReadCSV(ReturnsPath(args.DataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read returns table: %w", err)
	}

	binary := calc.BinaryLabels(returns)
	if err := binary.WriteCSV(BinaryPath(args.DataDir)); err != nil {
		return nil, err
	}

	if err := importLong(db, args.TempDir, "binary_long.csv", binary, db.ImportBinary,
		func(symbol string, date time.Time, v float64) model.BinaryRow {
			return model.BinaryRow{Symbol: symbol, Date: date, Label: int64(v)}
		}); err != nil {
		return nil, err
	}

	log.Info().Int("rows", binary.NumRows()).Msg("binary labels computed")
	return &TaskResult{State: StateCompleted, Rows: binary.NumRows(), Message: "labels computed"}, nil
}

func executeLabelDecomposed(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	path := DenoisedPath(args.DataDir, args.Wavelet)
	if err := utils.CheckFile(path); err != nil {
		return nil, fmt.Errorf("denoised return table missing, run the decomposition first: %w", err)
	}

	denoised, err := frame.ReadCSV(path)
	if err != nil {
		return nil, err
	}

	binary := calc.BinaryLabels(denoised)
	if err := binary.WriteCSV(BinaryDWTPath(args.DataDir)); err != nil {
		return nil, err
	}

	log.Info().Str("wavelet", args.Wavelet).Int("rows", binary.NumRows()).
		Msg("denoised binary labels computed")
	return &TaskResult{State: StateCompleted, Rows: binary.NumRows(), Message: "denoised labels computed"}, nil
}

func executeExportDatasets(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
	needLSTM, needDNN, needMulti, err := ParseModels(args.Models)
	if err != nil {
		return nil, err
	}
	if !needLSTM && !needDNN && !needMulti {
		return &TaskResult{State: StateSkipped, Message: "no models requested"}, nil
	}

	returns, err := frame.ReadCSV(ReturnsPath(args.DataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read returns table: %w", err)
	}
	binary, err := frame.ReadCSV(BinaryPath(args.DataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read binary table: %w", err)
	}

	periods := selectPeriods(returns.NumRows(), args)
	if len(periods) == 0 {
		return nil, fmt.Errorf("no study period fits %d rows with lenPeriod=%d", returns.NumRows(), args.Params.LenPeriod)
	}

	total := 0
	for _, period := range periods {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if needLSTM {
			ds, err := calc.DatasetLSTM(returns, binary, args.Params, period)
			if err != nil {
				return nil, fmt.Errorf("lstm period %d: %w", period, err)
			}
			n, err := exportDataset(DatasetPath(args.DataDir, "lstm", period), returns.Columns, ds, period)
			if err != nil {
				return nil, err
			}
			total += n
		}

		if needDNN {
			ds, err := calc.DatasetDNN(returns, binary, args.Params, period)
			if err != nil {
				return nil, fmt.Errorf("dnn period %d: %w", period, err)
			}
			n, err := exportFlatDataset(DatasetPath(args.DataDir, "dnn", period), returns.Columns, ds, period)
			if err != nil {
				return nil, err
			}
			total += n
		}

		if needMulti {
			multis, binaryDWT, err := loadDecomposed(args)
			if err != nil {
				return nil, err
			}
			ds, err := calc.MultiDatasetLSTM(multis, binaryDWT, args.Params, period)
			if err != nil {
				return nil, fmt.Errorf("multi period %d: %w", period, err)
			}
			n, err := exportDataset(DatasetPath(args.DataDir, "multi", period), multis[0].Columns, ds, period)
			if err != nil {
				return nil, err
			}
			total += n
		}
	}

	log.Info().Int("periods", len(periods)).Int("rows", total).Msg("datasets exported")
	return &TaskResult{State: StateCompleted, Rows: total, Message: "datasets exported"}, nil
}

func selectPeriods(rows int, args *TaskArgs) []int {
	n := calc.NumPeriods(rows, args.Params.LenPeriod, args.Params.LenTest)
	if args.Period >= 0 {
		if args.Period >= n {
			return nil
		}
		return []int{args.Period}
	}
	periods := make([]int, n)
	for i := range periods {
		periods[i] = i
	}
	return periods
}

func loadDecomposed(args *TaskArgs) ([]*frame.Frame, *frame.Frame, error) {
	if args.Wavelet == "" {
		return nil, nil, fmt.Errorf("multi-channel export needs --wavelet")
	}

	multis := make([]*frame.Frame, calc.MultiChannels)
	for ch := 1; ch <= calc.MultiChannels; ch++ {
		f, err := frame.ReadCSV(DecomposedPath(args.DataDir, args.Wavelet, ch))
		if err != nil {
			return nil, nil, fmt.Errorf("decomposed channel %d: %w", ch, err)
		}
		multis[ch-1] = f
	}

	binaryDWT, err := frame.ReadCSV(BinaryDWTPath(args.DataDir))
	if err != nil {
		return nil, nil, fmt.Errorf("denoised binary table: %w", err)
	}
	return multis, binaryDWT, nil
}

// importLong converts a wide checkpoint into long rows and loads them into
// the repository through a temporary CSV. Frames without a date index are
// kept file-only.
func importLong[T any](
	db database.DataRepository,
	tempDir, name string,
	f *frame.Frame,
	importFn func(string) error,
	makeRow func(symbol string, date time.Time, v float64) T,
) error {
	if len(f.Dates) != f.NumRows() {
		log.Debug().Str("file", name).Msg("no date index, skipping repository import")
		return nil
	}

	path := filepath.Join(tempDir, name)
	writer, err := utils.NewCSVWriter[T](path)
	if err != nil {
		return err
	}

	batch := make([]T, 0, f.NumCols())
	for r, row := range f.Data {
		batch = batch[:0]
		for c, v := range row {
			batch = append(batch, makeRow(f.Columns[c], f.Dates[r], v))
		}
		if err := writer.Write(batch); err != nil {
			writer.Close()
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	return importFn(path)
}

// exportDataset flattens sequence tensors into parquet rows. Sequences are
// stacked company-major, so the owning symbol is recovered from the
// sequence index.
func exportDataset(path string, symbols []string, ds *calc.Dataset, period int) (int, error) {
	writer, err := utils.NewParquetWriter[model.SequenceRow](path)
	if err != nil {
		return 0, err
	}

	total := 0
	write := func(split string, x [][][]float64, y []float64) error {
		perCompany := 0
		if len(symbols) > 0 {
			perCompany = len(x) / len(symbols)
		}
		rows := make([]model.SequenceRow, 0, len(x))
		for i, seq := range x {
			features := make([]float64, 0, len(seq)*len(seq[0]))
			for _, step := range seq {
				features = append(features, step...)
			}
			symbol := ""
			if perCompany > 0 {
				symbol = symbols[i/perCompany]
			}
			rows = append(rows, model.SequenceRow{
				Period:   int32(period),
				Split:    split,
				Symbol:   symbol,
				Seq:      int32(i),
				NSteps:   int32(len(seq)),
				Channels: int32(len(seq[0])),
				Features: features,
				Target:   y[i],
			})
		}
		total += len(rows)
		return writer.Write(rows)
	}

	if err := write("train", ds.XTrain, ds.YTrain); err != nil {
		writer.Close()
		return 0, err
	}
	if err := write("test", ds.XTest, ds.YTest); err != nil {
		writer.Close()
		return 0, err
	}

	if err := writer.Close(); err != nil {
		return 0, err
	}
	return total, nil
}

func exportFlatDataset(path string, symbols []string, ds *calc.FlatDataset, period int) (int, error) {
	writer, err := utils.NewParquetWriter[model.SequenceRow](path)
	if err != nil {
		return 0, err
	}

	total := 0
	write := func(split string, x [][]float64, y []float64) error {
		perCompany := 0
		if len(symbols) > 0 {
			perCompany = len(x) / len(symbols)
		}
		rows := make([]model.SequenceRow, 0, len(x))
		for i, feats := range x {
			symbol := ""
			if perCompany > 0 {
				symbol = symbols[i/perCompany]
			}
			rows = append(rows, model.SequenceRow{
				Period:   int32(period),
				Split:    split,
				Symbol:   symbol,
				Seq:      int32(i),
				NSteps:   int32(len(feats)),
				Channels: 1,
				Features: append([]float64(nil), feats...),
				Target:   y[i],
			})
		}
		total += len(rows)
		return writer.Write(rows)
	}

	if err := write("train", ds.XTrain, ds.YTrain); err != nil {
		writer.Close()
		return 0, err
	}
	if err := write("test", ds.XTest, ds.YTest); err != nil {
		writer.Close()
		return 0, err
	}

	if err := writer.Close(); err != nil {
		return 0, err
	}
	return total, nil
}
