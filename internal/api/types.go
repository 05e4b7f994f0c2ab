package api

import (
	"time"

	"github.com/git-756/discord-switchbot-lock/internal/auth"
)

// ConsoleAuth enables the chat console endpoints
type ConsoleAuth struct {
	Issuer *auth.TokenIssuer
	APIKey string
}

// ChatAuthRequest represents the request payload for console authentication
type ChatAuthRequest struct {
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

// ChatAuthResponse represents the response payload for console authentication
type ChatAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

// DeviceResponse is one entry of the device listing
type DeviceResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Type                string `json:"type"`
	HubDeviceID         string `json:"hub_device_id,omitempty"`
	CloudServiceEnabled bool   `json:"cloud_service_enabled"`
	IsMeter             bool   `json:"is_meter"`
}

// DevicesResponse represents the device listing
type DevicesResponse struct {
	Devices []DeviceResponse `json:"devices"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
