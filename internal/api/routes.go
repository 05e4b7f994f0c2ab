package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/git-756/discord-switchbot-lock/domain/repositories"
	"github.com/git-756/discord-switchbot-lock/internal/auth"
	"github.com/git-756/discord-switchbot-lock/internal/websocket"
)

const claimsKey = "claims"

// InitRoutes initializes all API routes. Console routes are registered only
// when console is non-nil.
func InitRoutes(e *echo.Echo, hub *websocket.Hub, devices repositories.DeviceAPI, console *ConsoleAuth, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "discord-switchbot-lock",
		})
	})

	if console == nil {
		logger.Info("Chat console disabled")
		return
	}

	requireToken := requireClientToken(console.Issuer, logger)

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/chat/auth", func(c echo.Context) error {
		return chatAuth(c, console, logger)
	})

	v1.GET("/devices", func(c echo.Context) error {
		return listDevices(c, devices, logger)
	}, requireToken)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		claims := c.Get(claimsKey).(*auth.JWTClaims)
		logger.Info("WebSocket connection authenticated",
			zap.String("client_id", claims.ClientID),
			zap.String("name", claims.Name))
		return websocket.HandleWebSocketWithAuth(hub, c, claims.ClientID, claims.Name, logger)
	}, requireToken)
}

func chatAuth(c echo.Context, console *ConsoleAuth, logger *zap.Logger) error {
	var req ChatAuthRequest

	// Bind and validate request
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind chat auth request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.APIKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Name and API key are required",
		})
	}

	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(console.APIKey)) != 1 {
		logger.Warn("Chat authentication failed", zap.String("name", req.Name))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid API key",
		})
	}

	clientID := uuid.NewString()
	token, expiresAt, err := console.Issuer.GenerateClientToken(clientID, req.Name)
	if err != nil {
		logger.Error("Failed to generate client token",
			zap.String("client_id", clientID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	logger.Info("Chat client authenticated",
		zap.String("client_id", clientID),
		zap.String("name", req.Name))

	return c.JSON(http.StatusOK, ChatAuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		ClientID:  clientID,
	})
}

func listDevices(c echo.Context, devices repositories.DeviceAPI, logger *zap.Logger) error {
	result := devices.ListDevices(c.Request().Context())
	if f := result.Failure(); f != nil {
		logger.Warn("Device listing failed",
			zap.String("kind", string(f.Kind)),
			zap.String("reason", f.Reason))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   string(f.Kind),
			Message: f.Reason,
		})
	}

	resp := DevicesResponse{Devices: make([]DeviceResponse, 0, len(result.Value()))}
	for _, d := range result.Value() {
		resp.Devices = append(resp.Devices, DeviceResponse{
			ID:                  d.ID,
			Name:                d.Name,
			Type:                d.Type,
			HubDeviceID:         d.HubDeviceID,
			CloudServiceEnabled: d.CloudServiceEnabled,
			IsMeter:             d.IsMeter(),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// requireClientToken accepts a console token from the Authorization header
// or, for browsers that cannot set headers on WebSocket upgrades, from the
// token query parameter
func requireClientToken(issuer *auth.TokenIssuer, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var token string
			authHeader := c.Request().Header.Get("Authorization")
			if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
				token = authHeader[7:]
			}
			if token == "" {
				token = c.QueryParam("token")
			}

			if token == "" {
				logger.Warn("Request rejected: missing token", zap.String("path", c.Path()))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "missing_token",
					Message: "JWT token is required",
				})
			}

			claims, err := issuer.ValidateToken(token)
			if err != nil {
				logger.Warn("Request rejected: invalid token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired JWT token",
				})
			}

			if claims.Role != auth.RoleChatClient {
				logger.Warn("Request rejected: invalid role", zap.String("role", claims.Role))
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "invalid_role",
					Message: "Only chat client tokens are accepted",
				})
			}

			if claims.ClientID == "" {
				return c.JSON(http.StatusBadRequest, ErrorResponse{
					Error:   "invalid_token_claims",
					Message: "Client ID not found in token",
				})
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}
