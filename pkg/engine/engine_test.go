package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidae/takproof/pkg/engine"
)

func TestMovePlayAndTakeBack(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, "test", "corvidae")

	before := e.Position()

	require.NoError(t, e.Move(ctx, "a1"))
	assert.NotEqual(t, before, e.Position())

	require.NoError(t, e.TakeBack(ctx))
	assert.Equal(t, before, e.Position())

	assert.Error(t, e.Move(ctx, "z9"))
	assert.Error(t, e.TakeBack(ctx))
}

func TestResetHaltsActiveSearch(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, "test", "corvidae")

	_, _, err := e.Solve(ctx)
	require.NoError(t, err)

	require.NoError(t, e.Reset(ctx, e.Position()))

	// A second Solve must succeed, proving Reset halted the first search
	// rather than leaving Engine.active stuck.
	handle, _, err := e.Solve(ctx)
	require.NoError(t, err)
	handle.Halt()
}

func TestSolveRejectsConcurrentSearch(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, "test", "corvidae")

	handle, _, err := e.Solve(ctx)
	require.NoError(t, err)
	defer handle.Halt()

	_, _, err = e.Solve(ctx)
	assert.Error(t, err)
}

func TestHaltIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, "test", "corvidae")

	handle, progress, err := e.Solve(ctx)
	require.NoError(t, err)

	result1, ok1 := handle.Halt()
	result2, ok2 := handle.Halt()
	assert.Equal(t, result1, result2)
	assert.Equal(t, ok1, ok2)

	for range progress {
		// drain until closed
	}
}

// TestWaitReturnsACompletedVerdict guards against a cmd/tinue regression:
// a caller that only wants the final answer must call Wait, not Halt, or
// every search looks cancelled. Wait must not request cancellation and
// must report ok=true once the search finishes on its own.
func TestWaitReturnsACompletedVerdict(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, "test", "corvidae")
	e.SetMaxNodes(1000)

	handle, progress, err := e.Solve(ctx)
	require.NoError(t, err)

	result, ok := handle.Wait()
	assert.True(t, ok, "Wait should report a verdict once the bounded search finishes on its own")
	assert.False(t, result.Tinue, "the standard opening is not tinue")

	for range progress {
		// drain until closed
	}
}

// TestHaltAfterWaitIsIdempotent checks that calling Halt after Wait has
// already observed completion still returns the same outcome rather than
// blocking or erroring.
func TestHaltAfterWaitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, "test", "corvidae")
	e.SetMaxNodes(1000)

	handle, _, err := e.Solve(ctx)
	require.NoError(t, err)

	waited, waitOk := handle.Wait()
	halted, haltOk := handle.Halt()
	assert.Equal(t, waited, halted)
	assert.Equal(t, waitOk, haltOk)
}
