package cmd

import (
	"context"
	"fmt"

	"stocks2ml/workflow"
)

// Fetch downloads the ticker universe's close prices and writes the wide
// price panel checkpoint.
func Fetch(ctx context.Context, opts *Options) error {
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
	if err := executor.Run(ctx, []string{workflow.TaskFetchPrices.Name}, args); err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	return nil
}
