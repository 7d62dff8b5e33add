package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"stocks2ml/calc"
	"stocks2ml/database"
)

// TaskState represents the state of a task execution
type TaskState string

const (
	StatePending   TaskState = "pending"
	StateRunning   TaskState = "running"
	StateCompleted TaskState = "completed"
	StateSkipped   TaskState = "skipped"
	StateFailed    TaskState = "failed"
)

// TaskResult holds the execution result of a task
type TaskResult struct {
	State   TaskState
	Rows    int
	Message string
	Error   error
}

type ErrorMode int

const (
	ErrorModeStop ErrorMode = iota
	ErrorModeSkip
)

// TaskFunc is the function that executes a task
type TaskFunc func(ctx context.Context, db database.DataRepository, args *TaskArgs) (*TaskResult, error)

// SkipCondition determines if a task should be skipped
type SkipCondition func(ctx context.Context, db database.DataRepository, args *TaskArgs) bool

// Task represents a unit of work with dependencies
type Task struct {
	Name      string
	DependsOn []string
	Executor  TaskFunc
	SkipIf    SkipCondition
	OnError   ErrorMode
}

// TaskArgs carries the shared settings of one pipeline run.
type TaskArgs struct {
	DataDir    string
	TempDir    string
	TickerFile string
	Models     string // comma list of "lstm", "dnn", "multi"
	Wavelet    string // decomposed-input prefix, empty disables multi-channel labeling
	Period     int    // -1 exports every study period
	ReturnLag  int
	Start      time.Time
	End        time.Time
	Params     calc.Params
	Extra      map[string]interface{}
}

// TaskExecutor manages and executes tasks with dependency resolution
type TaskExecutor struct {
	db    database.DataRepository
	tasks map[string]*Task
}

func NewTaskExecutor(db database.DataRepository, tasks map[string]*Task) *TaskExecutor {
	return &TaskExecutor{
		db:    db,
		tasks: tasks,
	}
}

// Run executes the named tasks in dependency order. Tasks whose
// dependencies are all settled run concurrently within a wave.
func (te *TaskExecutor) Run(ctx context.Context, taskNames []string, args *TaskArgs) error {
	if len(taskNames) == 0 {
		return nil
	}

	order, err := te.topologicalSort(taskNames)
	if err != nil {
		return fmt.Errorf("failed to resolve task dependencies: %w", err)
	}

	results := make(map[string]*TaskResult)
	pending := make(map[string]bool)
	for _, name := range order {
		pending[name] = true
	}

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ready := te.findReadyTasks(pending)
		if len(ready) == 0 {
			return fmt.Errorf("circular dependency detected or no ready tasks")
		}

		var wg sync.WaitGroup
		var resultsMu sync.Mutex
		for _, name := range ready {
			task, exists := te.tasks[name]
			if !exists {
				delete(pending, name)
				continue
			}

			if task.SkipIf != nil && task.SkipIf(ctx, te.db, args) {
				results[name] = &TaskResult{State: StateSkipped, Message: "skipped by condition"}
				delete(pending, name)
				continue
			}

			wg.Add(1)
			go func(n string, t *Task) {
				defer wg.Done()
				result := te.executeTask(ctx, t, args)
				resultsMu.Lock()
				results[n] = result
				resultsMu.Unlock()
			}(name, task)
		}

		wg.Wait()

		for _, name := range ready {
			result, done := results[name]
			if !done {
				continue
			}
			if result.Error != nil {
				task := te.tasks[name]
				if task.OnError == ErrorModeStop {
					return fmt.Errorf("task %s failed: %w", name, result.Error)
				}
				// Tolerated failures must still be visible in the run log.
				log.Warn().
					Str("task", name).
					Err(result.Error).
					Msg("task failed, dependent tasks continue")
			}
			delete(pending, name)
		}
	}

	return nil
}

func (te *TaskExecutor) executeTask(ctx context.Context, task *Task, args *TaskArgs) *TaskResult {
	result, err := task.Executor(ctx, te.db, args)
	if err != nil {
		return &TaskResult{
			State: StateFailed,
			Error: err,
		}
	}
	return result
}

func (te *TaskExecutor) topologicalSort(taskNames []string) ([]string, error) {
	inDegree := make(map[string]int)
	adj := make(map[string][]string)
	taskSet := make(map[string]bool)

	for _, name := range taskNames {
		if _, exists := te.tasks[name]; !exists {
			return nil, fmt.Errorf("task %s not found", name)
		}
		taskSet[name] = true
		inDegree[name] = 0
	}

	for _, name := range taskNames {
		task := te.tasks[name]
		for _, dep := range task.DependsOn {
			if !taskSet[dep] {
				continue
			}
			adj[dep] = append(adj[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}

	var order []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, neighbor := range adj[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(order) != len(taskNames) {
		return nil, fmt.Errorf("circular dependency detected")
	}

	return order, nil
}

func (te *TaskExecutor) findReadyTasks(pending map[string]bool) []string {
	var ready []string

	for name := range pending {
		task := te.tasks[name]

		// A dependency gates readiness only while it is still pending in
		// this run. Settled tasks (completed, skipped, or failed under
		// ErrorModeSkip) and tasks outside the selection do not block.
		allDepsDone := true
		for _, dep := range task.DependsOn {
			if pending[dep] {
				allDepsDone = false
				break
			}
		}

		if allDepsDone {
			ready = append(ready, name)
		}
	}

	return ready
}

func (te *TaskExecutor) GetTaskNames() []string {
	names := make([]string, 0, len(te.tasks))
	for name := range te.tasks {
		names = append(names, name)
	}
	return names
}

func (te *TaskExecutor) HasTask(name string) bool {
	_, exists := te.tasks[name]
	return exists
}

// ParseModels splits a comma list of model names and reports which dataset
// layouts the run needs.
func ParseModels(models string) (needLSTM, needDNN, needMulti bool, err error) {
	if models == "" {
		return false, false, false, nil
	}

	seen := make(map[string]bool)
	for _, p := range strings.Split(models, ",") {
		p = strings.TrimSpace(p)
		if seen[p] {
			continue
		}
		seen[p] = true

		switch p {
		case "lstm":
			needLSTM = true
		case "dnn":
			needDNN = true
		case "multi":
			needMulti = true
		default:
			return false, false, false,
				fmt.Errorf("invalid model value: %s (expected 'lstm', 'dnn', 'multi' or a comma list)", models)
		}
	}

	return needLSTM, needDNN, needMulti, nil
}
