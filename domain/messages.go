package domain

import "context"

// ChatSender delivers a text reply to a channel on the transport that
// received the message. Delivery is fire-and-forget: failures are logged
// by the transport and never surfaced to the caller.
type ChatSender interface {
	SendReply(ctx context.Context, channelID, text string)
}

// ChatMessage represents an inbound chat message from any transport
type ChatMessage struct {
	ChannelID  string `json:"channel_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`

	// FromSelf is set when the bot itself authored the message
	FromSelf bool `json:"-"`

	// Replier sends replies back to ChannelID
	Replier ChatSender `json:"-"`
}

// Reply sends text back to the channel the message came from
func (m ChatMessage) Reply(ctx context.Context, text string) {
	if m.Replier == nil {
		return
	}
	m.Replier.SendReply(ctx, m.ChannelID, text)
}
