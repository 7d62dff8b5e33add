package workflow

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocks2ml/database"
)

type runRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *runRecorder) task(name string, deps []string) *Task {
	return &Task{
		Name:      name,
		DependsOn: deps,
		Executor: func(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
			r.mu.Lock()
			r.order = append(r.order, name)
			r.mu.Unlock()
			return &TaskResult{State: StateCompleted}, nil
		},
	}
}

func (r *runRecorder) indexOf(name string) int {
	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return -1
}

func TestExecutorRespectsDependencies(t *testing.T) {
	rec := &runRecorder{}
	tasks := map[string]*Task{
		"fetch":   rec.task("fetch", nil),
		"returns": rec.task("returns", []string{"fetch"}),
		"binary":  rec.task("binary", []string{"returns"}),
		"export":  rec.task("export", []string{"binary"}),
	}

	te := NewTaskExecutor(nil, tasks)
	err := te.Run(context.Background(), []string{"export", "binary", "fetch", "returns"}, &TaskArgs{})
	require.NoError(t, err)

	require.Len(t, rec.order, 4)
	assert.Less(t, rec.indexOf("fetch"), rec.indexOf("returns"))
	assert.Less(t, rec.indexOf("returns"), rec.indexOf("binary"))
	assert.Less(t, rec.indexOf("binary"), rec.indexOf("export"))
}

func TestExecutorIgnoresDepsOutsideSelection(t *testing.T) {
	rec := &runRecorder{}
	tasks := map[string]*Task{
		"fetch":   rec.task("fetch", nil),
		"returns": rec.task("returns", []string{"fetch"}),
	}

	// Running only "returns" must not require "fetch" to be selected.
	te := NewTaskExecutor(nil, tasks)
	err := te.Run(context.Background(), []string{"returns"}, &TaskArgs{})
	require.NoError(t, err)
	assert.Equal(t, []string{"returns"}, rec.order)
}

func TestExecutorSkipCondition(t *testing.T) {
	rec := &runRecorder{}
	skipped := rec.task("skipped", nil)
	skipped.SkipIf = func(ctx context.Context, db database.DataRepository, args *TaskArgs) bool {
		return args.Wavelet == ""
	}
	after := rec.task("after", []string{"skipped"})

	te := NewTaskExecutor(nil, map[string]*Task{"skipped": skipped, "after": after})
	err := te.Run(context.Background(), []string{"skipped", "after"}, &TaskArgs{})
	require.NoError(t, err)

	// Skipped dependencies still unblock their dependents.
	assert.Equal(t, []string{"after"}, rec.order)
}

func TestExecutorStopsOnError(t *testing.T) {
	rec := &runRecorder{}
	failing := &Task{
		Name: "failing",
		Executor: func(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
			return nil, fmt.Errorf("boom")
		},
		OnError: ErrorModeStop,
	}
	after := rec.task("after", []string{"failing"})

	te := NewTaskExecutor(nil, map[string]*Task{"failing": failing, "after": after})
	err := te.Run(context.Background(), []string{"failing", "after"}, &TaskArgs{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.Empty(t, rec.order)
}

func TestExecutorLogsToleratedFailures(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	rec := &runRecorder{}
	optional := &Task{
		Name: "optional",
		Executor: func(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error) {
			return nil, fmt.Errorf("denoised table missing")
		},
		OnError: ErrorModeSkip,
	}
	after := rec.task("after", []string{"optional"})

	te := NewTaskExecutor(nil, map[string]*Task{"optional": optional, "after": after})
	err := te.Run(context.Background(), []string{"optional", "after"}, &TaskArgs{})
	require.NoError(t, err, "skip-mode failures must not abort the run")

	// The failure unblocks dependents but must leave a trace in the log.
	assert.Equal(t, []string{"after"}, rec.order)
	assert.Contains(t, buf.String(), "optional")
	assert.Contains(t, buf.String(), "denoised table missing")
}

func TestExecutorUnknownTask(t *testing.T) {
	te := NewTaskExecutor(nil, map[string]*Task{})
	err := te.Run(context.Background(), []string{"nope"}, &TaskArgs{})
	assert.Error(t, err)
}

func TestExecutorCircularDependency(t *testing.T) {
	rec := &runRecorder{}
	a := rec.task("a", []string{"b"})
	b := rec.task("b", []string{"a"})

	te := NewTaskExecutor(nil, map[string]*Task{"a": a, "b": b})
	err := te.Run(context.Background(), []string{"a", "b"}, &TaskArgs{})
	assert.Error(t, err)
}

func TestExecutorContextCancellation(t *testing.T) {
	rec := &runRecorder{}
	te := NewTaskExecutor(nil, map[string]*Task{"a": rec.task("a", nil)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := te.Run(ctx, []string{"a"}, &TaskArgs{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseModels(t *testing.T) {
	tests := []struct {
		in                       string
		lstm, dnn, multi, wantOK bool
	}{
		{"", false, false, false, true},
		{"lstm", true, false, false, true},
		{"dnn", false, true, false, true},
		{"multi", false, false, true, true},
		{"lstm,dnn", true, true, false, true},
		{"lstm, multi", true, false, true, true},
		{"lstm,lstm", true, false, false, true},
		{"cnn", false, false, false, false},
	}
	for _, tt := range tests {
		lstm, dnn, multi, err := ParseModels(tt.in)
		if !tt.wantOK {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.lstm, lstm, "lstm for %q", tt.in)
		assert.Equal(t, tt.dnn, dnn, "dnn for %q", tt.in)
		assert.Equal(t, tt.multi, multi, "multi for %q", tt.in)
	}
}

func TestAllTasksWiring(t *testing.T) {
	tasks := AllTasks()

	for _, name := range []string{"fetch_prices", "calc_returns", "calc_binary", "label_decomposed", "export_datasets"} {
		require.Contains(t, tasks, name)
	}

	assert.Contains(t, tasks["calc_returns"].DependsOn, "fetch_prices")
	assert.Contains(t, tasks["calc_binary"].DependsOn, "calc_returns")
	assert.Contains(t, tasks["export_datasets"].DependsOn, "calc_binary")
	assert.NotNil(t, tasks["label_decomposed"].SkipIf)
}
