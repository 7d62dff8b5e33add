package cmd

import (
	"context"
	"fmt"

	"stocks2ml/workflow"
)

// Dataset assembles the model-ready train/test tensors from the checkpoint
// tables and exports them as parquet, one file per model kind and period.
func Dataset(ctx context.Context, opts *Options) error {
	if opts.Models == "" {
		return fmt.Errorf("--models is required (lstm, dnn, multi or a comma list)")
	}

	args, err := opts.buildArgs()
	if err != nil {
		return err
	}

	db, err := openRepo(opts.DBURI)
	if err != nil {
		return err
	}
	defer db.Close()

	executor := workflow.NewTaskExecutor(db, workflow.AllTasks())
	if err := executor.Run(ctx, []string{workflow.TaskExportDatasets.Name}, args); err != nil {
		return fmt.Errorf("dataset export failed: %w", err)
	}
	return nil
}
