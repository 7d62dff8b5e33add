package cmd

import (
	"context"
	"fmt"

	"stocks2ml/workflow"
)

// Returns derives the return and binary-label checkpoints from an existing
// price panel. With --wavelet set it also labels the denoised returns.
func Returns(ctx context.Context, opts *Options) error {
	args, err := opts.buildArgs()
	if err != nil {
		return err
	}

	db, err := openRepo(opts.DBURI)
	if err != nil {
		return err
	}
	defer db.Close()

	tasks := []string{
		workflow.TaskCalcReturns.Name,
		workflow.TaskCalcBinary.Name,
		workflow.TaskLabelDecomposed.Name,
	}

	executor := workflow.NewTaskExecutor(db, workflow.AllTasks())
	if err := executor.Run(ctx, tasks, args); err != nil {
		return fmt.Errorf("returns failed: %w", err)
	}
	return nil
}
