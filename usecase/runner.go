package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/git-756/discord-switchbot-lock/domain"
	"github.com/git-756/discord-switchbot-lock/internal/worker"
)

// ReplyRunner runs blocking work on the worker pool and sends its result as
// a reply. The goroutine waiting on a task waits on that task only, so the
// transport's event loop is never blocked by a remote call.
type ReplyRunner struct {
	pool   *worker.Pool
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewReplyRunner creates a new reply runner
func NewReplyRunner(pool *worker.Pool, logger *zap.Logger) *ReplyRunner {
	return &ReplyRunner{pool: pool, logger: logger}
}

// Go submits work and replies to msg with its text once it completes.
// onError formats the reply when the task could not run.
func (r *ReplyRunner) Go(ctx context.Context, msg domain.ChatMessage, work func(context.Context) string, onError func(error) string) {
	// In-flight calls are bounded by the client timeout, not by the caller.
	taskCtx := context.WithoutCancel(ctx)

	future, err := worker.Submit(taskCtx, r.pool, work)
	if err != nil {
		r.logger.Error("Failed to submit task",
			zap.String("channelID", msg.ChannelID),
			zap.Error(err))
		msg.Reply(taskCtx, onError(err))
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		text, err := future.Await(taskCtx)
		if err != nil {
			r.logger.Error("Task failed",
				zap.String("channelID", msg.ChannelID),
				zap.Error(err))
			text = onError(err)
		}
		msg.Reply(taskCtx, text)
	}()
}

// Wait blocks until every pending reply has been sent
func (r *ReplyRunner) Wait() {
	r.wg.Wait()
}
