package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LocalQueue runs tasks in-process on a fixed pool of workers. Failures are
// retried with linear backoff and then logged and dropped.
type LocalQueue struct {
	processor  *Processor
	logger     *zap.Logger
	tasks      chan Task
	maxRetries int
	backoff    time.Duration

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewLocalQueue starts workers goroutines consuming a buffered channel.
func NewLocalQueue(processor *Processor, workers, buffer int, logger *zap.Logger) *LocalQueue {
	q := &LocalQueue{
		processor:  processor,
		logger:     logger,
		tasks:      make(chan Task, buffer),
		maxRetries: 3,
		backoff:    200 * time.Millisecond,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Enqueue hands the task to a worker. It blocks while the buffer is full.
func (q *LocalQueue) Enqueue(ctx context.Context, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("task queue is closed")
	}
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (q *LocalQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *LocalQueue) work() {
	defer q.wg.Done()
	for task := range q.tasks {
		q.run(task)
	}
}

func (q *LocalQueue) run(task Task) {
	var err error
	for attempt := 1; attempt <= q.maxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = q.processor.Process(ctx, task)
		cancel()
		if err == nil || errors.Is(err, ErrSkipRetry) {
			break
		}
		time.Sleep(time.Duration(attempt) * q.backoff)
	}
	if err != nil {
		q.logger.Error("side-effect task failed",
			zap.String("task_type", task.Type),
			zap.Error(err),
		)
	}
}
