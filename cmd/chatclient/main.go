package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type chatAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

type frame struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	Data      string `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Details   string `json:"details,omitempty"`
	Name      string `json:"name,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

// chatclient is a terminal chat console: every stdin line is sent as a chat
// message and every reply is printed
func main() {
	serverURL := flag.String("server", "http://localhost:8080", "server base URL")
	name := flag.String("name", "console", "display name")
	apiKey := flag.String("api-key", os.Getenv("CHAT_API_KEY"), "console API key (default $CHAT_API_KEY)")
	flag.Parse()

	base, err := url.Parse(*serverURL)
	if err != nil {
		log.Fatalf("Invalid server URL: %v", err)
	}

	token, err := authenticate(base, *name, *apiKey)
	if err != nil {
		log.Fatalf("Failed to authenticate: %v", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(base), header)
	if err != nil {
		if resp != nil {
			log.Fatalf("WebSocket connection failed with status %d: %v", resp.StatusCode, err)
		}
		log.Fatalf("WebSocket connection failed: %v", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					fmt.Fprintf(os.Stderr, "connection closed: %v\n", err)
				}
				return
			}
			fmt.Println(render(f))
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := conn.WriteJSON(map[string]string{"type": "chat_message", "content": line}); err != nil {
			log.Fatalf("Failed to send message: %v", err)
		}
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

func authenticate(base *url.URL, name, apiKey string) (string, error) {
	reqBody, _ := json.Marshal(map[string]string{"name": name, "api_key": apiKey})

	resp, err := http.Post(base.JoinPath("/api/v1/chat/auth").String(), "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authentication failed with status %d", resp.StatusCode)
	}

	var authResp chatAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}
	return authResp.Token, nil
}

func wsURL(base *url.URL) string {
	u := *base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.JoinPath("/ws").String()
}

func render(f frame) string {
	switch f.Type {
	case "reply":
		return "🤖 " + f.Content
	case "welcome":
		return fmt.Sprintf("✓ connected as %s (channel %s)", f.Name, f.ChannelID)
	case "error":
		return fmt.Sprintf("⚠️ %s: %s", f.Message, f.Details)
	case "pong":
		return "pong " + f.Data
	default:
		return fmt.Sprintf("[%s] %s", f.Type, f.Content)
	}
}
