package scheduler

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/cuemby/coldb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerDrain_RunsAllTasksAndStoresResults(t *testing.T) {
	ctx := types.NewClientContext()
	require.True(t, ctx.EnterBatch())

	const n = 50
	for i := 0; i < n; i++ {
		i := i
		require.True(t, ctx.Enqueue(types.BatchTask{
			Name: fmt.Sprintf("h%d", i),
			Run: func() (*types.Result, error) {
				return &types.Result{Type: types.TypeI32, I32: []int32{int32(i)}}, nil
			},
		}))
	}

	sched := New(4)
	err := sched.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Normal, ctx.Mode())

	for i := 0; i < n; i++ {
		res, ok := ctx.Get(fmt.Sprintf("h%d", i))
		require.True(t, ok)
		assert.Equal(t, int32(i), res.I32[0])
	}
}

func TestSchedulerDrain_ConcurrencyBounded(t *testing.T) {
	ctx := types.NewClientContext()
	require.True(t, ctx.EnterBatch())

	var inFlight, maxInFlight int32
	for i := 0; i < 20; i++ {
		require.True(t, ctx.Enqueue(types.BatchTask{
			Name: fmt.Sprintf("t%d", i),
			Run: func() (*types.Result, error) {
				cur := atomic.AddInt32(&inFlight, 1)
				defer atomic.AddInt32(&inFlight, -1)
				for {
					m := atomic.LoadInt32(&maxInFlight)
					if cur <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, cur) {
						break
					}
				}
				return &types.Result{Type: types.TypeI32, I32: []int32{1}}, nil
			},
		}))
	}

	sched := New(3)
	require.NoError(t, sched.Drain(ctx))
	assert.LessOrEqual(t, int(atomic.LoadInt32(&maxInFlight)), 3)
}

func TestSchedulerDrain_ReportsTaskError(t *testing.T) {
	ctx := types.NewClientContext()
	require.True(t, ctx.EnterBatch())

	require.True(t, ctx.Enqueue(types.BatchTask{
		Name: "bad",
		Run: func() (*types.Result, error) {
			return nil, fmt.Errorf("boom")
		},
	}))

	sched := New(2)
	err := sched.Drain(ctx)
	assert.Error(t, err)
	assert.Equal(t, types.Normal, ctx.Mode())
}

func TestSchedulerDrain_NotBatchingIsError(t *testing.T) {
	ctx := types.NewClientContext()
	sched := New(2)
	err := sched.Drain(ctx)
	assert.Error(t, err)
}

func TestSchedulerDrain_EmptyBatch(t *testing.T) {
	ctx := types.NewClientContext()
	require.True(t, ctx.EnterBatch())

	sched := New(2)
	require.NoError(t, sched.Drain(ctx))
	assert.Equal(t, types.Normal, ctx.Mode())
}
