package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPool_SubmitAndAwait(t *testing.T) {
	pool := NewPool(2, zap.NewNop())
	defer pool.Close()

	ctx := context.Background()
	future, err := Submit(ctx, pool, func(context.Context) string { return "done" })
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	got, err := future.Await(ctx)
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if got != "done" {
		t.Errorf("Expected 'done', got '%s'", got)
	}
}

func TestPool_FuturesResolveIndependently(t *testing.T) {
	pool := NewPool(2, zap.NewNop())
	defer pool.Close()

	ctx := context.Background()
	block := make(chan struct{})

	slow, err := Submit(ctx, pool, func(context.Context) int {
		<-block
		return 1
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	fast, err := Submit(ctx, pool, func(context.Context) int { return 2 })
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	awaitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if v, err := fast.Await(awaitCtx); err != nil || v != 2 {
		t.Errorf("Expected fast future to resolve with 2, got %d (%v)", v, err)
	}

	select {
	case <-slow.Done():
		t.Error("Slow future should still be pending")
	default:
	}

	close(block)
	if v, err := slow.Await(ctx); err != nil || v != 1 {
		t.Errorf("Expected slow future to resolve with 1, got %d (%v)", v, err)
	}
}

func TestPool_AwaitHonorsContext(t *testing.T) {
	pool := NewPool(1, zap.NewNop())
	defer pool.Close()

	block := make(chan struct{})
	defer close(block)

	future, err := Submit(context.Background(), pool, func(context.Context) int {
		<-block
		return 0
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := future.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	pool := NewPool(1, zap.NewNop())
	pool.Close()

	_, err := Submit(context.Background(), pool, func(context.Context) int { return 0 })
	if !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Expected ErrPoolClosed, got %v", err)
	}

	// Close is idempotent
	pool.Close()
}

func TestPool_CloseDrainsQueue(t *testing.T) {
	pool := NewPool(1, zap.NewNop())

	var ran int32
	for i := 0; i < 3; i++ {
		if _, err := Submit(context.Background(), pool, func(context.Context) struct{} {
			atomic.AddInt32(&ran, 1)
			return struct{}{}
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	pool.Close()
	if atomic.LoadInt32(&ran) != 3 {
		t.Errorf("Expected 3 tasks to run before Close returned, got %d", ran)
	}
}

func TestPool_PanicResolvesWithError(t *testing.T) {
	pool := NewPool(1, zap.NewNop())
	defer pool.Close()

	future, err := Submit(context.Background(), pool, func(context.Context) int {
		panic("boom")
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := future.Await(context.Background()); err == nil {
		t.Error("Expected error from panicking task")
	}
}
