package discord

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap/zaptest"

	"github.com/git-756/discord-switchbot-lock/domain"
)

type recordingHandler struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
}

func (h *recordingHandler) Handle(ctx context.Context, msg domain.ChatMessage) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	return true
}

func newTestBot(t *testing.T) *Bot {
	t.Helper()

	bot, err := NewBot("test-token", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewBot() error = %v", err)
	}
	return bot
}

func newSession(userID string) *discordgo.Session {
	state := discordgo.NewState()
	state.User = &discordgo.User{ID: userID, Username: "lockbot"}
	return &discordgo.Session{State: state}
}

func messageCreate(authorID, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "channel-1",
		Content:   content,
		Author:    &discordgo.User{ID: authorID, Username: "user-" + authorID},
	}}
}

func TestNewBot(t *testing.T) {
	bot := newTestBot(t)

	if bot.session.Token != "Bot test-token" {
		t.Errorf("Expected bot token prefix, got %q", bot.session.Token)
	}
	if bot.session.Identify.Intents != Intents {
		t.Errorf("Expected intents %d, got %d", Intents, bot.session.Identify.Intents)
	}
	if Intents&discordgo.IntentsMessageContent == 0 {
		t.Error("Message content intent is required to read triggers")
	}
}

func TestOnMessageCreate(t *testing.T) {
	tests := []struct {
		name     string
		authorID string
		wantSelf bool
	}{
		{name: "user message", authorID: "user-1", wantSelf: false},
		{name: "own message", authorID: "bot-1", wantSelf: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := newTestBot(t)
			handler := &recordingHandler{}
			bot.handler = handler

			bot.onMessageCreate(newSession("bot-1"), messageCreate(tt.authorID, "鍵開けて！"))

			if len(handler.messages) != 1 {
				t.Fatalf("Expected 1 message, got %d", len(handler.messages))
			}
			msg := handler.messages[0]
			if msg.FromSelf != tt.wantSelf {
				t.Errorf("Expected FromSelf %v, got %v", tt.wantSelf, msg.FromSelf)
			}
			if msg.ChannelID != "channel-1" || msg.Content != "鍵開けて！" {
				t.Errorf("Unexpected message %+v", msg)
			}
			if msg.AuthorID != tt.authorID || msg.AuthorName != "user-"+tt.authorID {
				t.Errorf("Unexpected author %s/%s", msg.AuthorID, msg.AuthorName)
			}
			if msg.Replier != bot {
				t.Error("Replies should go back through the bot")
			}
		})
	}
}

func TestOnMessageCreate_NoAuthor(t *testing.T) {
	bot := newTestBot(t)
	handler := &recordingHandler{}
	bot.handler = handler

	bot.onMessageCreate(newSession("bot-1"), &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "c"}})

	if len(handler.messages) != 0 {
		t.Errorf("Expected no messages, got %d", len(handler.messages))
	}
}

func TestToChatMessage_UnknownSelf(t *testing.T) {
	bot := newTestBot(t)

	msg, ok := bot.toChatMessage(selfID(&discordgo.Session{}), messageCreate("bot-1", "hi"))
	if !ok {
		t.Fatal("Expected message to convert")
	}
	if msg.FromSelf {
		t.Error("Without a session user nothing is marked as self")
	}
}
