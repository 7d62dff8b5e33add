package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"stocks2ml/calc"
	"stocks2ml/cmd"
)

const dbURIInfo = "DuckDB file path or clickhouse:// URI (required)"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	var logLevel string

	var rootCmd = &cobra.Command{
		Use:           "stocks2ml",
		Short:         "Prepare stock price data for ML classification models",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (trace, debug, info, warn, error)")

	opts := &cmd.Options{Params: calc.DefaultParams()}

	addDataFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&opts.DBURI, "db", "", dbURIInfo)
		c.Flags().StringVar(&opts.DataDir, "data", "", "checkpoint directory (required)")
		c.MarkFlagRequired("db")
		c.MarkFlagRequired("data")
	}
	addParamFlags := func(c *cobra.Command) {
		c.Flags().IntVar(&opts.Params.LenPeriod, "len-period", opts.Params.LenPeriod, "rows per study period")
		c.Flags().IntVar(&opts.Params.LenTest, "len-test", opts.Params.LenTest, "test rows per period, also the period stride")
		c.Flags().IntVar(&opts.Params.LenTrain, "len-train", opts.Params.LenTrain, "training rows per period")
		c.Flags().IntVar(&opts.Params.NSteps, "n-steps", opts.Params.NSteps, "window length in days")
	}

	var fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Download close prices and write the price panel",
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Fetch(c.Context(), opts)
		},
	}
	addDataFlags(fetchCmd)
	fetchCmd.Flags().StringVar(&opts.TickerFile, "tickers", "", "local ticker file, one symbol per line (default: index constituents)")
	fetchCmd.Flags().StringVar(&opts.Start, "start", "", "first date to download, YYYY-MM-DD (default 1994-01-01)")
	fetchCmd.Flags().StringVar(&opts.End, "end", "", "last date to download, YYYY-MM-DD (default today)")

	var returnsCmd = &cobra.Command{
		Use:   "returns",
		Short: "Derive returns and binary labels from the price panel",
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Returns(c.Context(), opts)
		},
	}
	addDataFlags(returnsCmd)
	returnsCmd.Flags().IntVar(&opts.ReturnLag, "lag", 1, "return horizon m in trading days")
	returnsCmd.Flags().StringVar(&opts.Wavelet, "wavelet", "", "wavelet family of the denoised return table to label (optional)")

	var datasetCmd = &cobra.Command{
		Use:   "dataset",
		Short: "Export model-ready train/test tensors as parquet",
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Dataset(c.Context(), opts)
		},
	}
	addDataFlags(datasetCmd)
	addParamFlags(datasetCmd)
	datasetCmd.Flags().StringVar(&opts.Models, "models", "lstm", "models to export: lstm, dnn, multi or a comma list")
	datasetCmd.Flags().StringVar(&opts.Wavelet, "wavelet", "", "wavelet family of the decomposed inputs (required for multi)")
	datasetCmd.Flags().IntVar(&opts.Period, "period", -1, "study period to export, -1 for all")

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline: fetch, returns, labels, datasets",
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Run(c.Context(), opts)
		},
	}
	addDataFlags(runCmd)
	addParamFlags(runCmd)
	runCmd.Flags().StringVar(&opts.TickerFile, "tickers", "", "local ticker file, one symbol per line (default: index constituents)")
	runCmd.Flags().StringVar(&opts.Start, "start", "", "first date to download, YYYY-MM-DD (default 1994-01-01)")
	runCmd.Flags().StringVar(&opts.End, "end", "", "last date to download, YYYY-MM-DD (default today)")
	runCmd.Flags().IntVar(&opts.ReturnLag, "lag", 1, "return horizon m in trading days")
	runCmd.Flags().StringVar(&opts.Models, "models", "lstm", "models to export: lstm, dnn, multi or a comma list")
	runCmd.Flags().StringVar(&opts.Wavelet, "wavelet", "", "wavelet family of the decomposed inputs (optional)")
	runCmd.Flags().IntVar(&opts.Period, "period", -1, "study period to export, -1 for all")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(returnsCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(runCmd)

	cobra.OnFinalize(func() {
		os.RemoveAll(cmd.TempDir)
	})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
