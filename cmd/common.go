package cmd

import (
	"fmt"
	"time"

	"stocks2ml/calc"
	"stocks2ml/database"
	"stocks2ml/utils"
	"stocks2ml/workflow"
)

// TempDir holds intermediate long-format CSVs; it is wiped on exit.
var TempDir, _ = utils.GetCacheDir()

// Options collects the flag values shared by the pipeline commands.
type Options struct {
	DBURI      string
	DataDir    string
	TickerFile string
	Models     string
	Wavelet    string
	Period     int
	ReturnLag  int
	Start      string
	End        string
	Params     calc.Params
}

func openRepo(dbURI string) (database.DataRepository, error) {
	if dbURI == "" {
		return nil, fmt.Errorf("database uri cannot be empty")
	}

	db, err := database.NewDatabase(database.ConfigFromDSN(dbURI))
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	if err := db.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

const dateLayout = "2006-01-02"

func (o *Options) buildArgs() (*workflow.TaskArgs, error) {
	if o.DataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if err := utils.CheckOutputDir(o.DataDir); err != nil {
		return nil, err
	}
	if err := o.Params.Validate(); err != nil {
		return nil, err
	}

	// Default range matches the reference dataset: twenty-odd years of
	// daily closes ending today.
	start := time.Date(1994, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Now().UTC().Truncate(24 * time.Hour)

	var err error
	if o.Start != "" {
		start, err = time.Parse(dateLayout, o.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid --start date %q: %w", o.Start, err)
		}
	}
	if o.End != "" {
		end, err = time.Parse(dateLayout, o.End)
		if err != nil {
			return nil, fmt.Errorf("invalid --end date %q: %w", o.End, err)
		}
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("--start %s must be before --end %s",
			start.Format(dateLayout), end.Format(dateLayout))
	}

	return &workflow.TaskArgs{
		DataDir:    o.DataDir,
		TempDir:    TempDir,
		TickerFile: o.TickerFile,
		Models:     o.Models,
		Wavelet:    o.Wavelet,
		Period:     o.Period,
		ReturnLag:  o.ReturnLag,
		Start:      start,
		End:        end,
		Params:     o.Params,
	}, nil
}
