package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/git-756/discord-switchbot-lock/domain"
	"github.com/git-756/discord-switchbot-lock/domain/repositories"
)

// Intents the bot needs to read channel and direct messages
const Intents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Bot connects a Discord gateway session to a message handler
type Bot struct {
	session *discordgo.Session
	handler repositories.MessageHandler
	logger  *zap.Logger
}

// Ensure Bot implements the ChatSender interface
var _ domain.ChatSender = (*Bot)(nil)

// NewBot creates a bot for the given token. The gateway is not contacted
// until Open.
func NewBot(token string, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = Intents

	return &Bot{session: session, logger: logger}, nil
}

// Open registers handler and connects to the gateway
func (b *Bot) Open(handler repositories.MessageHandler) error {
	b.handler = handler
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway
func (b *Bot) Close() error {
	return b.session.Close()
}

// SendReply posts text to a channel. Delivery failures are logged only.
func (b *Bot) SendReply(ctx context.Context, channelID, text string) {
	if _, err := b.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		b.logger.Error("Failed to send discord message",
			zap.String("channelID", channelID),
			zap.Error(err))
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("Logged in to discord",
		zap.String("user", r.User.Username),
		zap.String("userID", r.User.ID))
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	msg, ok := b.toChatMessage(selfID(s), m)
	if !ok {
		return
	}
	b.handler.Handle(context.Background(), msg)
}

// toChatMessage converts a gateway event. Events without an author are
// dropped.
func (b *Bot) toChatMessage(selfID string, m *discordgo.MessageCreate) (domain.ChatMessage, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return domain.ChatMessage{}, false
	}

	return domain.ChatMessage{
		ChannelID:  m.ChannelID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Content:    m.Content,
		FromSelf:   selfID != "" && m.Author.ID == selfID,
		Replier:    b,
	}, true
}

func selfID(s *discordgo.Session) string {
	if s == nil || s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.ID
}
