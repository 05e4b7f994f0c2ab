package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/git-756/discord-switchbot-lock/domain"
	"github.com/git-756/discord-switchbot-lock/domain/repositories"
)

// Router offers each message to its handlers in order until one consumes it
type Router struct {
	handlers []repositories.MessageHandler
	logger   *zap.Logger
}

// NewRouter creates a new router
func NewRouter(logger *zap.Logger, handlers ...repositories.MessageHandler) *Router {
	return &Router{handlers: handlers, logger: logger}
}

// Handle drops the bot's own messages, then tries each handler
func (r *Router) Handle(ctx context.Context, msg domain.ChatMessage) bool {
	if msg.FromSelf {
		return true
	}

	for _, h := range r.handlers {
		if h.Handle(ctx, msg) {
			return true
		}
	}

	r.logger.Debug("Message not handled",
		zap.String("channelID", msg.ChannelID),
		zap.String("authorID", msg.AuthorID))
	return false
}
