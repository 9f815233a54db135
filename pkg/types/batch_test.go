package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchStateMachine_NormalFlow(t *testing.T) {
	ctx := NewClientContext()
	assert.Equal(t, Normal, ctx.Mode())

	require.True(t, ctx.EnterBatch())
	assert.Equal(t, Batching, ctx.Mode())

	require.True(t, ctx.Enqueue(BatchTask{Name: "a"}))
	require.True(t, ctx.Enqueue(BatchTask{Name: "b"}))

	tasks := ctx.BeginDrain()
	assert.Equal(t, Draining, ctx.Mode())
	assert.Len(t, tasks, 2)

	ctx.EndDrain()
	assert.Equal(t, Normal, ctx.Mode())
}

func TestBatchStateMachine_EnterBatchTwiceFails(t *testing.T) {
	ctx := NewClientContext()
	require.True(t, ctx.EnterBatch())
	assert.False(t, ctx.EnterBatch())
}

func TestBatchStateMachine_EnqueueWithoutBatchingFails(t *testing.T) {
	ctx := NewClientContext()
	assert.False(t, ctx.Enqueue(BatchTask{Name: "a"}))
}

func TestBatchStateMachine_BeginDrainWithoutBatchingReturnsNil(t *testing.T) {
	ctx := NewClientContext()
	assert.Nil(t, ctx.BeginDrain())
}

func TestBatchStateMachine_BeginDrainClearsQueue(t *testing.T) {
	ctx := NewClientContext()
	require.True(t, ctx.EnterBatch())
	require.True(t, ctx.Enqueue(BatchTask{Name: "a"}))

	first := ctx.BeginDrain()
	assert.Len(t, first, 1)

	// A second BeginDrain call while already DRAINING sees no queue left
	// (Mode is no longer BATCHING, so it returns nil).
	second := ctx.BeginDrain()
	assert.Nil(t, second)
}
