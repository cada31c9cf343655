package derive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kiln/internal/config"
	"kiln/internal/fileutil"
	"kiln/internal/logging"
)

// Result carries the outcome of one task. Exactly one of Record and Err is set.
type Result struct {
	Task   Task
	Record *Record
	Err    error
}

// Executor runs derivative tasks across a bounded worker pool. Tasks share no
// mutable state: each reads one source and writes one output path.
type Executor struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewExecutor builds an executor for the configured derived root.
func NewExecutor(cfg *config.Config, logger *slog.Logger) *Executor {
	return &Executor{cfg: cfg, logger: logging.NewComponentLogger(logger, "derive")}
}

// Run executes every task and returns all results. The pool is bounded by
// build.workers; all workers join before Run returns so pruning can rely on a
// final index. A canceled context stops dispatch but in-flight tasks finish.
func (e *Executor) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}
	workers := e.cfg.Build.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskCh := make(chan Task)
	results := make([]Result, 0, len(tasks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for task := range taskCh {
				result := e.execute(ctx, task)
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			break dispatch
		case taskCh <- task:
		}
	}
	close(taskCh)
	wg.Wait()

	return results
}

func (e *Executor) execute(ctx context.Context, task Task) Result {
	started := time.Now()
	record, err := e.generate(task)
	if err != nil {
		e.logger.WarnContext(ctx, "derivative generation failed",
			logging.String(logging.FieldAsset, task.Key.Source),
			logging.String(logging.FieldProfile, task.Key.Profile),
			logging.Error(err),
		)
		return Result{Task: task, Err: fmt.Errorf("derive %s: %w", task.Key.String(), err)}
	}
	e.logger.DebugContext(ctx, "derivative generated",
		logging.String(logging.FieldAsset, task.Key.Source),
		logging.String(logging.FieldProfile, task.Key.Profile),
		logging.Duration("elapsed", time.Since(started)),
	)
	return Result{Task: task, Record: record}
}

func (e *Executor) generate(task Task) (*Record, error) {
	if err := os.MkdirAll(filepath.Dir(task.OutputAbs), 0o755); err != nil {
		return nil, err
	}

	record := &Record{
		Key:         task.Key,
		OutputPath:  task.OutputRel,
		SourceHash:  task.SourceHash,
		GeneratedAt: time.Now().UTC(),
	}

	if task.Passthrough {
		if err := fileutil.CopyFile(task.SourceAbs, task.OutputAbs); err != nil {
			return nil, err
		}
		return record, nil
	}

	data, width, height, err := renderDerivative(task, e.cfg.Watermark, e.cfg.Embed)
	if err != nil {
		return nil, err
	}
	if err := fileutil.WriteFileAtomic(task.OutputAbs, data, 0o644); err != nil {
		return nil, err
	}
	record.Width = width
	record.Height = height
	record.Format = task.Profile.Format
	record.Quality = task.Profile.Quality
	return record, nil
}
