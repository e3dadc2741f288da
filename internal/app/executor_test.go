package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stageCall struct {
	stage Stage
	err   error
}

func TestExecute_RunsStagesInOrder(t *testing.T) {
	var calls []stageCall

	exec := NewExecutor(discardLogger()).WithObserver(func(_ string, stage Stage, _ time.Duration, err error) {
		calls = append(calls, stageCall{stage: stage, err: err})
	})

	op := Operation[int, []int, []int, int]{
		Name:  "sum-even",
		Guard: func(_ context.Context, n int) error { return nil },
		Fetch: func(_ context.Context, n int) ([]int, error) {
			out := make([]int, n)
			for i := range out {
				out[i] = i + 1
			}

			return out, nil
		},
		Diff: func(_ context.Context, _ int, fetched []int) ([]int, error) {
			var even []int

			for _, v := range fetched {
				if v%2 == 0 {
					even = append(even, v)
				}
			}

			return even, nil
		},
		Apply: func(_ context.Context, _ int, candidates []int) ([]int, error) {
			return candidates, nil
		},
		Report: func(_ context.Context, _ int, applied []int) (int, error) {
			sum := 0
			for _, v := range applied {
				sum += v
			}

			return sum, nil
		},
	}

	got, err := Execute(context.Background(), exec, op, 6)

	require.NoError(t, err)
	assert.Equal(t, 12, got)
	assert.Equal(t, []stageCall{
		{stage: StageGuard},
		{stage: StageFetch},
		{stage: StageDiff},
		{stage: StageApply},
		{stage: StageReport},
	}, calls)
}

func TestExecute_StopsAtFailingStage(t *testing.T) {
	cause := errors.New("remote down")
	applied := false

	op := Operation[struct{}, int, int, string]{
		Name: "fail-fetch",
		Fetch: func(context.Context, struct{}) (int, error) {
			return 0, cause
		},
		Apply: func(context.Context, struct{}, int) (int, error) {
			applied = true
			return 0, nil
		},
	}

	_, err := Execute(context.Background(), NewExecutor(nil), op, struct{}{})

	require.Error(t, err)
	require.ErrorIs(t, err, cause)
	assert.True(t, IsStageError(err))
	assert.False(t, applied, "apply must not run after a failed fetch")

	stage, ok := GetStage(err)
	require.True(t, ok)
	assert.Equal(t, StageFetch, stage)
	assert.Contains(t, err.Error(), "fetch failed")
}

func TestExecute_GuardBlocksEverything(t *testing.T) {
	fetched := false

	op := Operation[struct{}, int, int, int]{
		Name:  "guarded",
		Guard: func(ctx context.Context, _ struct{}) error { return ctx.Err() },
		Fetch: func(context.Context, struct{}) (int, error) {
			fetched = true
			return 1, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, NewExecutor(discardLogger()), op, struct{}{})

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, fetched)

	stage, _ := GetStage(err)
	assert.Equal(t, StageGuard, stage)
}

func TestExecute_NilStagesAreSkipped(t *testing.T) {
	got, err := Execute(context.Background(), NewExecutor(discardLogger()),
		Operation[int, int, int, int]{Name: "empty"}, 1)

	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestStageError(t *testing.T) {
	err := &StageError{Stage: StageApply, Message: "apply failed"}
	assert.Equal(t, "apply failed: apply failed", err.Error())
	assert.NoError(t, err.Unwrap())

	_, ok := GetStage(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsStageError(errors.New("plain")))
}
