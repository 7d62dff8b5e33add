package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"stocks2ml/workflow"
)

// Run executes the whole pipeline end to end: fetch, returns, labels and
// dataset export in dependency order.
func Run(ctx context.Context, opts *Options) error {
	args, err := opts.buildArgs()
	if err != nil {
		return err
	}

	db, err := openRepo(opts.DBURI)
	if err != nil {
		return err
	}
	defer db.Close()

	start := time.Now()

	executor := workflow.NewTaskExecutor(db, workflow.AllTasks())
	if err := executor.Run(ctx, executor.GetTaskNames(), args); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	log.Info().Dur("took", time.Since(start)).Msg("pipeline completed")
	return nil
}
