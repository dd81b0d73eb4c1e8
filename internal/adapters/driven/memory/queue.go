package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

// queuePoll bounds how long a waiting dequeue sleeps before rechecking scheduled tasks
const queuePoll = 200 * time.Millisecond

// Queue is an in-process TaskQueue. Tasks are lost on restart.
// Acked and terminally failed tasks are dropped; only their counts remain.
type Queue struct {
	mu        sync.Mutex
	tasks     map[string]*domain.Task
	order     []string // FIFO of task ids
	completed int64
	failed    int64
	notify    chan struct{}
	closed    bool
}

// NewQueue creates an empty Queue
func NewQueue() *Queue {
	return &Queue{
		tasks:  make(map[string]*domain.Task),
		notify: make(chan struct{}, 1),
	}
}

func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("task is required")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("queue closed")
	}
	t := *task
	q.tasks[t.ID] = &t
	q.order = append(q.order, t.ID)
	q.signal()
	return nil
}

func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	deadline := time.Now().Add(time.Duration(timeout) * time.Second)
	for {
		if task := q.claimNext(); task != nil {
			return task, nil
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			return nil, nil
		}
		if wait > queuePoll {
			wait = queuePoll
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, nil
		case <-q.notify:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (q *Queue) claimNext() *domain.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, id := range q.order {
		task := q.tasks[id]
		if task == nil || !task.IsReady() {
			continue
		}
		q.order = append(q.order[:i:i], q.order[i+1:]...)
		task.MarkProcessing()
		t := *task
		return &t
	}
	return nil
}

func (q *Queue) Ack(ctx context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.tasks[taskID]; !ok {
		return domain.ErrNotFound
	}
	q.drop(taskID)
	q.completed++
	return nil
}

func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	if !task.CanRetry() {
		q.drop(taskID)
		q.failed++
		return nil
	}
	task.Retry(reason)
	q.order = append(q.order, taskID)
	return nil
}

func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[taskID]
	if !ok {
		return nil, nil
	}
	t := *task
	return &t, nil
}

func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := &driven.QueueStats{CompletedCount: q.completed, FailedCount: q.failed}
	for _, task := range q.tasks {
		switch task.Status {
		case domain.TaskStatusPending:
			stats.PendingCount++
		case domain.TaskStatusProcessing:
			stats.ProcessingCount++
		}
	}
	return stats, nil
}

func (q *Queue) Ping(ctx context.Context) error {
	return nil
}

func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

// drop forgets a finished task; callers hold q.mu
func (q *Queue) drop(taskID string) {
	delete(q.tasks, taskID)
	for i, id := range q.order {
		if id == taskID {
			q.order = append(q.order[:i:i], q.order[i+1:]...)
			break
		}
	}
}

// signal wakes one waiting dequeue; callers hold q.mu
func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
