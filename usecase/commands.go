package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/git-756/discord-switchbot-lock/domain"
	"github.com/git-756/discord-switchbot-lock/domain/repositories"
)

// CommandPrefix marks messages for the command processor
const CommandPrefix = "!"

// Commands handles the "!" commands offered to messages no trigger matched
type Commands struct {
	api      repositories.DeviceAPI
	runner   *ReplyRunner
	triggers []Trigger
	logger   *zap.Logger
}

// NewCommands creates a new command processor. triggers are listed by !help.
func NewCommands(api repositories.DeviceAPI, runner *ReplyRunner, triggers []Trigger, logger *zap.Logger) *Commands {
	return &Commands{api: api, runner: runner, triggers: triggers, logger: logger}
}

// Handle runs !devices and !help; anything else is ignored
func (c *Commands) Handle(ctx context.Context, msg domain.ChatMessage) bool {
	content := strings.TrimSpace(msg.Content)
	if msg.FromSelf || !strings.HasPrefix(content, CommandPrefix) {
		return false
	}

	fields := strings.Fields(strings.TrimPrefix(content, CommandPrefix))
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "devices":
		c.logger.Info("Listing devices", zap.String("channelID", msg.ChannelID))
		c.runner.Go(ctx, msg, c.listDevices, func(err error) string {
			return fmt.Sprintf("❌ デバイス一覧の取得に失敗しました: %v", err)
		})
		return true
	case "help":
		msg.Reply(ctx, c.helpText())
		return true
	default:
		return false
	}
}

func (c *Commands) listDevices(ctx context.Context) string {
	result := c.api.ListDevices(ctx)
	if !result.OK() {
		return "❌ デバイス一覧の取得に失敗しました: " + result.Reason()
	}
	return DeviceListText(result.Value())
}

func (c *Commands) helpText() string {
	var b strings.Builder
	b.WriteString("使えるコマンド:")
	for _, t := range c.triggers {
		fmt.Fprintf(&b, "\n• %s", t.Phrase)
	}
	b.WriteString("\n• !devices")
	b.WriteString("\n• !help")
	return b.String()
}
