package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueName is the asynq queue carrying side-effect tasks.
const QueueName = "scheduling_side_effects"

// AsynqQueue enqueues tasks in Redis for the asynq worker.
type AsynqQueue struct {
	client *asynq.Client
}

// NewAsynqQueue creates a Redis-backed queue.
func NewAsynqQueue(redisOpt asynq.RedisClientOpt) *AsynqQueue {
	return &AsynqQueue{client: asynq.NewClient(redisOpt)}
}

// Enqueue stores the task in Redis with retries and a per-attempt timeout.
func (q *AsynqQueue) Enqueue(ctx context.Context, task Task) error {
	_, err := q.client.EnqueueContext(ctx,
		asynq.NewTask(task.Type, task.Payload),
		asynq.Queue(QueueName),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type, err)
	}
	return nil
}

// Close releases the Redis connection.
func (q *AsynqQueue) Close() error {
	return q.client.Close()
}

// Worker consumes AsynqQueue tasks.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor *Processor
	logger    *zap.Logger
}

// NewWorker creates a Worker running concurrency handlers.
func NewWorker(redisOpt asynq.RedisClientOpt, processor *Processor, concurrency int, logger *zap.Logger) *Worker {
	w := &Worker{
		processor: processor,
		logger:    logger,
		mux:       asynq.NewServeMux(),
	}
	w.server = asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueName: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Error("side-effect task failed",
				zap.String("task_type", t.Type()),
				zap.Int("retry", retried),
				zap.Int("max_retry", maxRetry),
				zap.Error(err),
			)
		}),
	})
	w.mux.HandleFunc(TypeNotification, w.handle)
	w.mux.HandleFunc(TypeSubjectStatus, w.handle)
	return w
}

func (w *Worker) handle(ctx context.Context, t *asynq.Task) error {
	err := w.processor.Process(ctx, Task{Type: t.Type(), Payload: t.Payload()})
	if errors.Is(err, ErrSkipRetry) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

// Shutdown waits for in-flight tasks and stops the worker.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
