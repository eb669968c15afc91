package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue(t *testing.T) {
	q := NewInMemoryQueue(2)

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	assert.Error(t, q.Enqueue(3), "full queue rejects")
	assert.Equal(t, 2, q.Size())

	item, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, item)

	all, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2}, all)

	_, err = q.Dequeue()
	assert.Error(t, err)

	require.NoError(t, q.Enqueue(4))
	q.ClearQueue()
	assert.Equal(t, 0, q.Size())
}

func TestTaskQueue_RunPending(t *testing.T) {
	tq := NewTaskQueue(8)
	var order []int
	require.NoError(t, tq.Post(func() {
		order = append(order, 1)
		require.NoError(t, tq.Post(func() { order = append(order, 3) }))
	}))
	require.NoError(t, tq.Post(func() { order = append(order, 2) }))

	assert.Equal(t, 3, tq.RunPending())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, tq.RunPending())
}

func TestTaskQueue_RunNext(t *testing.T) {
	tq := NewTaskQueue(8)
	ran := false
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = tq.Post(func() { ran = true })
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tq.RunNext(ctx))
	assert.True(t, ran)

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tq.RunNext(ctx), context.DeadlineExceeded)
}
