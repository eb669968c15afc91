package queue

import (
	"context"
	"fmt"
)

// Task is a unit of work run on the owning loop goroutine.
type Task func()

// TaskQueue lets other goroutines hand work back to a single loop goroutine.
// Post is safe for concurrent use; RunPending and RunNext must only be
// called from the loop goroutine.
type TaskQueue struct {
	queue  Queue
	notify chan struct{}
}

func NewTaskQueue(size int) *TaskQueue {
	return &TaskQueue{
		queue:  NewInMemoryQueue(size),
		notify: make(chan struct{}, 1),
	}
}

// Post schedules a task.
func (t *TaskQueue) Post(task Task) error {
	if err := t.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to post task: %v", err)
	}
	select {
	case t.notify <- struct{}{}:
	default:
	}
	return nil
}

// RunPending runs queued tasks until the queue is empty, including tasks
// posted by the tasks themselves. It returns the number of tasks run.
func (t *TaskQueue) RunPending() int {
	n := 0
	for {
		items, _ := t.queue.ReadAllMessages()
		if len(items) == 0 {
			return n
		}
		for _, item := range items {
			item.(Task)()
			n++
		}
	}
}

// RunNext blocks until one task is available and runs it.
func (t *TaskQueue) RunNext(ctx context.Context) error {
	for {
		if item, err := t.queue.Dequeue(); err == nil {
			item.(Task)()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.notify:
		}
	}
}

// Size returns the number of queued tasks.
func (t *TaskQueue) Size() int {
	return t.queue.Size()
}
