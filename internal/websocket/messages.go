package websocket

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeChatMessage MessageType = "chat_message"
	MessageTypeReply       MessageType = "reply"
	MessageTypePing        MessageType = "ping"
	MessageTypePong        MessageType = "pong"
	MessageTypeError       MessageType = "error"
	MessageTypeWelcome     MessageType = "welcome"
)

// maxContentLength bounds a single chat line, same as a Discord message
const maxContentLength = 2000

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

// ChatMessage is a line typed into the console
type ChatMessage struct {
	BaseMessage
	Content string `json:"content"`
}

// ReplyMessage carries one reply from the bot
type ReplyMessage struct {
	BaseMessage
	Content string `json:"content"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// WelcomeMessage is sent once the console connection is registered
type WelcomeMessage struct {
	BaseMessage
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get type
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeChatMessage:
		var msg ChatMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid chat message: %w", err)
		}
		if err := v.validateChatMessage(&msg); err != nil {
			return nil, err
		}
		if msg.Timestamp == "" {
			msg.Timestamp = time.Now().Format(time.RFC3339)
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	case "":
		return nil, fmt.Errorf("message type is required")

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

func (v *MessageValidator) validateChatMessage(msg *ChatMessage) error {
	if strings.TrimSpace(msg.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if len([]rune(msg.Content)) > maxContentLength {
		return fmt.Errorf("content must be at most %d characters", maxContentLength)
	}
	return nil
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Code:    code,
		Message: message,
		Details: details,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePong,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Data: data,
	}
}

// CreateReplyMessage creates a reply frame
func CreateReplyMessage(content string) *ReplyMessage {
	return &ReplyMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeReply,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Content: content,
	}
}

// CreateWelcomeMessage creates the greeting sent after registration
func CreateWelcomeMessage(channelID, name string) *WelcomeMessage {
	return &WelcomeMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeWelcome,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		ChannelID: channelID,
		Name:      name,
	}
}
