package repositories

import (
	"context"

	"github.com/git-756/discord-switchbot-lock/domain"
)

// MessageHandler processes one inbound chat message. It returns true when
// the message was consumed and should not be offered to other handlers.
type MessageHandler interface {
	Handle(ctx context.Context, msg domain.ChatMessage) bool
}
