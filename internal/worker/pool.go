package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

const defaultQueueFactor = 4

// ErrPoolClosed is returned by Submit once Close has been called
var ErrPoolClosed = errors.New("worker pool is closed")

// Pool runs submitted tasks on a fixed number of goroutines
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	logger *zap.Logger
}

// NewPool creates and starts a pool with size workers
func NewPool(size int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		tasks:  make(chan func(), size*defaultQueueFactor),
		logger: logger,
	}

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.run(i)
	}

	logger.Info("Worker pool started", zap.Int("size", size))
	return p
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.execute(id, task)
	}
}

func (p *Pool) execute(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker task panicked", zap.Int("worker", id), zap.Any("panic", r))
		}
	}()
	task()
}

// Close stops accepting tasks and waits for queued tasks to finish
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

// enqueue blocks while the queue is full, until ctx is done
func (p *Pool) enqueue(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Future is the pending result of one submitted task
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed once the task has finished
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the task finishes or ctx is done. A task that panics
// resolves with an error.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

var errTaskPanicked = errors.New("task panicked")

// Submit queues fn on the pool and returns a future for its result.
// ctx is passed to fn and bounds only the wait for a queue slot.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) T) (*Future[T], error) {
	f := &Future[T]{done: make(chan struct{})}

	task := func() {
		f.err = errTaskPanicked
		defer close(f.done)
		f.value = fn(ctx)
		f.err = nil
	}

	if err := p.enqueue(ctx, task); err != nil {
		return nil, err
	}
	return f, nil
}
