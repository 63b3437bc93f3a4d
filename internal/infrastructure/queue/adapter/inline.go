package adapter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Abedmejri/Artplat/internal/infrastructure/queue/port"
)

// InlineQueue is the single-node stand-in for the Redis-backed queue: it is
// both Client and Server, dispatching each enqueued task to its registered
// handler on a goroutine. No durability and no retry; a deployment that
// needs those configures REDIS_URL and gets the asynq adapter instead.
type InlineQueue struct {
	mu       sync.RWMutex
	handlers map[string]port.Handler
	closed   bool
	wg       sync.WaitGroup
}

func NewInlineQueue() *InlineQueue {
	return &InlineQueue{handlers: make(map[string]port.Handler)}
}

var (
	_ port.Client = (*InlineQueue)(nil)
	_ port.Server = (*InlineQueue)(nil)
)

func (q *InlineQueue) Register(taskType string, h port.Handler) {
	q.mu.Lock()
	q.handlers[taskType] = h
	q.mu.Unlock()
}

func (q *InlineQueue) Enqueue(ctx context.Context, t port.Task, opts ...port.EnqueueOption) (string, error) {
	if t.Type == "" {
		return "", errors.New("inline queue: task type is required")
	}

	// The closed check and wg.Add must happen under the same lock Stop uses
	// to set closed, so no task is admitted once wg.Wait may have started.
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", errors.New("inline queue: closed")
	}
	h, ok := q.handlers[t.Type]
	if !ok {
		q.mu.Unlock()
		return "", fmt.Errorf("inline queue: no handler registered for %q", t.Type)
	}
	q.wg.Add(1)
	q.mu.Unlock()

	var delay time.Duration
	if len(opts) > 0 {
		op := opts[0]
		if !op.ProcessAt.IsZero() {
			delay = time.Until(op.ProcessAt)
		} else {
			delay = op.ProcessIn
		}
	}

	id := uuid.NewString()
	go func() {
		defer q.wg.Done()
		if delay > 0 {
			time.Sleep(delay)
		}
		// Detached from the caller's request context: the task outlives the
		// HTTP response the same way a worker-processed one would.
		if err := h(context.Background(), t); err != nil {
			log.Printf("inline queue: task %s failed: %v", t.Type, err)
		}
	}()
	return id, nil
}

// Run blocks until the context is canceled. Registration and dispatch work
// without it; it exists so the composition root treats both adapters alike.
func (q *InlineQueue) Run(ctx context.Context) error {
	<-ctx.Done()
	return q.Stop(context.Background())
}

// Stop rejects further enqueues and waits for in-flight tasks.
func (q *InlineQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InlineQueue) Close() error {
	return q.Stop(context.Background())
}
