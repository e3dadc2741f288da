package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// Staged Pipeline Pattern: Guard → Fetch → Diff → Apply → Report
//
// A reconciliation never touches local state until the remote payload has been
// fetched and reduced to candidates, so a failed fetch leaves the store as it was.
//
// The 5 Stages:
//   1. GUARD   - Check preconditions (cancellation, configuration) before any I/O
//   2. FETCH   - Read the external collection
//   3. DIFF    - Reduce the payload to candidates for local state
//   4. APPLY   - Commit the candidates; returns what was actually applied
//   5. REPORT  - Summarise the outcome for the caller

// Stage names a step of the pipeline.
type Stage string

const (
	StageGuard  Stage = "guard"
	StageFetch  Stage = "fetch"
	StageDiff   Stage = "diff"
	StageApply  Stage = "apply"
	StageReport Stage = "report"
)

// StageError wraps errors with the stage where they occurred.
type StageError struct {
	Stage   Stage
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Stage, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s failed: %s", e.Stage, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// StageObserver is notified after every stage that ran.
type StageObserver func(op string, stage Stage, elapsed time.Duration, err error)

// Executor runs operations through the staged pipeline.
// It provides logging and error handling at each stage.
type Executor struct {
	logger   *slog.Logger
	observer StageObserver
}

// NewExecutor creates a new executor with the given logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// WithObserver returns a copy of the executor that reports stage timings.
func (e *Executor) WithObserver(observer StageObserver) *Executor {
	return &Executor{logger: e.logger, observer: observer}
}

// Operation defines the functions for each stage of the pipeline.
// Nil stages are skipped and yield zero values.
type Operation[I, F, D, O any] struct {
	// Name identifies this operation for logging.
	Name string

	// Guard checks preconditions. Return an error to abort before any I/O.
	Guard func(ctx context.Context, input I) error

	// Fetch reads the external collection.
	Fetch func(ctx context.Context, input I) (F, error)

	// Diff reduces the fetched payload to candidates.
	Diff func(ctx context.Context, input I, fetched F) (D, error)

	// Apply commits candidates and returns the subset actually applied.
	Apply func(ctx context.Context, input I, candidates D) (D, error)

	// Report transforms the applied result for the caller.
	// Report runs only after every earlier stage succeeded.
	Report func(ctx context.Context, input I, applied D) (O, error)
}

type pipelineRun[I, F, D, O any] struct {
	logger   *slog.Logger
	observer StageObserver
	op       Operation[I, F, D, O]
	input    I
}

// stage runs fn with logging and timing, wrapping failures in a StageError.
func (r *pipelineRun[I, F, D, O]) stage(ctx context.Context, stage Stage, message string, fn func() error) error {
	r.logger.Log(ctx, logging.LevelTrace, "stage started", slog.String("stage", string(stage)))

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if r.observer != nil {
		r.observer(r.op.Name, stage, elapsed, err)
	}

	if err != nil {
		r.logger.WarnContext(ctx, "stage failed",
			slog.String("stage", string(stage)),
			slog.Any("error", err),
		)

		return &StageError{Stage: stage, Message: message, Cause: err}
	}

	r.logger.DebugContext(ctx, "stage completed",
		slog.String("stage", string(stage)),
		slog.Duration("elapsed", elapsed),
	)

	return nil
}

// Execute runs an operation through the full pipeline.
func Execute[I, F, D, O any](ctx context.Context, exec *Executor, op Operation[I, F, D, O], input I) (O, error) {
	var (
		zero       O
		fetched    F
		candidates D
		applied    D
		result     O
	)

	logger := logging.FromContextOr(ctx, exec.logger)

	run := &pipelineRun[I, F, D, O]{
		logger:   logger.With(slog.String("operation", op.Name)),
		observer: exec.observer,
		op:       op,
		input:    input,
	}
	start := time.Now()

	if op.Guard != nil {
		err := run.stage(ctx, StageGuard, "precondition not met", func() error {
			return op.Guard(ctx, input)
		})
		if err != nil {
			return zero, err
		}
	}

	if op.Fetch != nil {
		err := run.stage(ctx, StageFetch, "fetch failed", func() error {
			var err error
			fetched, err = op.Fetch(ctx, input)

			return err
		})
		if err != nil {
			return zero, err
		}
	}

	if op.Diff != nil {
		err := run.stage(ctx, StageDiff, "diff failed", func() error {
			var err error
			candidates, err = op.Diff(ctx, input, fetched)

			return err
		})
		if err != nil {
			return zero, err
		}
	}

	if op.Apply != nil {
		err := run.stage(ctx, StageApply, "apply failed", func() error {
			var err error
			applied, err = op.Apply(ctx, input, candidates)

			return err
		})
		if err != nil {
			return zero, err
		}
	}

	if op.Report != nil {
		err := run.stage(ctx, StageReport, "report failed", func() error {
			var err error
			result, err = op.Report(ctx, input, applied)

			return err
		})
		if err != nil {
			return zero, err
		}
	}

	run.logger.DebugContext(ctx, "operation completed",
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// IsStageError checks if an error occurred inside a pipeline stage.
func IsStageError(err error) bool {
	var stageErr *StageError

	return errors.As(err, &stageErr)
}

// GetStage extracts the stage from a pipeline error.
func GetStage(err error) (Stage, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}

	return "", false
}
