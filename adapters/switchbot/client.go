package switchbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/git-756/discord-switchbot-lock/domain/entities"
	"github.com/git-756/discord-switchbot-lock/domain/repositories"
)

const (
	DefaultAPIBaseURL = "https://api.switch-bot.com/v1.1"
	defaultTimeout    = 10 * time.Second

	// statusSuccess is the envelope statusCode of a successful call
	statusSuccess = 100

	maxResponseSize = 1 << 20
)

// Config holds configuration for the SwitchBot client
// Required fields:
// - Token: the API identifier issued by the SwitchBot app
// - Secret: the API secret issued with the token
// Optional fields with defaults:
// - APIBaseURL: default "https://api.switch-bot.com/v1.1"
// - Timeout: per-request timeout, default 10s
type Config struct {
	Token      string
	Secret     string
	APIBaseURL string
	Timeout    time.Duration
}

// ValidateConfig validates the Config
func ValidateConfig(config Config) error {
	if config.Token == "" {
		return ErrEmptyToken
	}
	if config.Secret == "" {
		return ErrEmptySecret
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	if config.APIBaseURL != "" {
		if _, err := url.ParseRequestURI(config.APIBaseURL); err != nil {
			return fmt.Errorf("invalid API base URL: %w", err)
		}
	}
	return nil
}

// Client implements repositories.DeviceAPI against the SwitchBot v1.1 API
type Client struct {
	apiBaseURL string
	signer     *Signer
	httpClient *http.Client
	logger     *zap.Logger
}

// Ensure Client implements the DeviceAPI interface
var _ repositories.DeviceAPI = (*Client)(nil)

// NewClient creates a new SwitchBot client
func NewClient(config Config, logger *zap.Logger, opts ...SignerOption) (*Client, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := strings.TrimRight(config.APIBaseURL, "/")
	if apiBaseURL == "" {
		apiBaseURL = DefaultAPIBaseURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	signer, err := NewSigner(Credentials{Token: config.Token, Secret: []byte(config.Secret)}, opts...)
	if err != nil {
		return nil, err
	}

	logger.Info("SwitchBot client configured",
		zap.String("apiBaseURL", apiBaseURL),
		zap.Duration("timeout", timeout))

	return &Client{
		apiBaseURL: apiBaseURL,
		signer:     signer,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// envelope is the common shape of every SwitchBot response
type envelope struct {
	StatusCode *int            `json:"statusCode"`
	Message    string          `json:"message"`
	Body       json.RawMessage `json:"body"`
}

type deviceListBody struct {
	DeviceList []entities.DeviceInfo `json:"deviceList"`
}

type lockStatusBody struct {
	LockState string `json:"lockState"`
	DoorState string `json:"doorState"`
	Battery   *int   `json:"battery"`
}

// ListDevices returns every physical device on the account
func (c *Client) ListDevices(ctx context.Context) entities.Result[[]entities.DeviceInfo] {
	body, failure := c.do(ctx, http.MethodGet, "/devices", nil)
	if failure != nil {
		return entities.Fail[[]entities.DeviceInfo](failure)
	}

	var list deviceListBody
	if err := decodeBody(body, &list); err != nil {
		return entities.Fail[[]entities.DeviceInfo](err)
	}
	if list.DeviceList == nil {
		list.DeviceList = []entities.DeviceInfo{}
	}

	c.logger.Info("Retrieved device list", zap.Int("count", len(list.DeviceList)))
	return entities.Success(list.DeviceList)
}

// GetLockStatus returns the lock position and battery of a smart lock
func (c *Client) GetLockStatus(ctx context.Context, deviceID string) entities.Result[entities.LockStatus] {
	body, failure := c.do(ctx, http.MethodGet, statusPath(deviceID), nil)
	if failure != nil {
		return entities.Fail[entities.LockStatus](failure)
	}

	var status lockStatusBody
	if err := decodeBody(body, &status); err != nil {
		return entities.Fail[entities.LockStatus](err)
	}

	result := entities.LockStatus{
		State:     entities.ParseLockState(status.LockState),
		Battery:   status.Battery,
		DoorState: status.DoorState,
	}

	c.logger.Info("Retrieved lock status",
		zap.String("deviceID", deviceID),
		zap.String("lockState", status.LockState))
	return entities.Success(result)
}

// SendLockCommand locks or unlocks a smart lock
func (c *Client) SendLockCommand(ctx context.Context, deviceID string, action entities.LockAction) entities.Result[entities.Unit] {
	command := entities.NewLockCommand(action)
	if err := command.Validate(); err != nil {
		return entities.Failed[entities.Unit](entities.FailureConfiguration, err.Error())
	}

	payload, err := json.Marshal(command)
	if err != nil {
		return entities.Failed[entities.Unit](entities.FailureConfiguration, fmt.Sprintf("failed to marshal command: %v", err))
	}

	if _, failure := c.do(ctx, http.MethodPost, commandsPath(deviceID), payload); failure != nil {
		return entities.Fail[entities.Unit](failure)
	}

	c.logger.Info("Lock command accepted",
		zap.String("deviceID", deviceID),
		zap.String("command", string(action)))
	return entities.Success(entities.Unit{})
}

// GetSensorReading returns temperature, humidity and battery of a meter.
// Fields missing from a successful response stay nil.
func (c *Client) GetSensorReading(ctx context.Context, deviceID string) entities.Result[entities.SensorReading] {
	body, failure := c.do(ctx, http.MethodGet, statusPath(deviceID), nil)
	if failure != nil {
		return entities.Fail[entities.SensorReading](failure)
	}

	var reading entities.SensorReading
	if err := decodeBody(body, &reading); err != nil {
		return entities.Fail[entities.SensorReading](err)
	}

	if reading.Empty() {
		c.logger.Warn("Sensor response carried no readings", zap.String("deviceID", deviceID))
	}
	return entities.Success(reading)
}

// do performs one signed call and returns the envelope body on statusCode 100
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (json.RawMessage, *entities.Failure) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.apiBaseURL+path, reqBody)
	if err != nil {
		return nil, &entities.Failure{
			Kind:   entities.FailureConfiguration,
			Reason: fmt.Sprintf("failed to create HTTP request: %v", err),
		}
	}
	c.signer.NewRequest().Apply(httpReq.Header)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("SwitchBot request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &entities.Failure{
			Kind:   entities.FailureTransport,
			Reason: fmt.Sprintf("request failed: %v", err),
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &entities.Failure{
			Kind:       entities.FailureTransport,
			Reason:     fmt.Sprintf("failed to read response: %v", err),
			StatusCode: resp.StatusCode,
		}
	}

	c.logger.Debug("SwitchBot response received",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("httpStatus", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	httpOK := resp.StatusCode >= 200 && resp.StatusCode < 300

	switch {
	case decodeErr != nil && !httpOK:
		return nil, &entities.Failure{
			Kind:       entities.FailureTransport,
			Reason:     fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	case decodeErr != nil:
		return nil, &entities.Failure{
			Kind:       entities.FailureMalformed,
			Reason:     fmt.Sprintf("failed to decode response: %v", decodeErr),
			StatusCode: resp.StatusCode,
		}
	case env.StatusCode == nil && httpOK:
		return nil, &entities.Failure{
			Kind:       entities.FailureMalformed,
			Reason:     "response is missing statusCode",
			StatusCode: resp.StatusCode,
		}
	case env.StatusCode == nil || *env.StatusCode != statusSuccess || !httpOK:
		code := resp.StatusCode
		if env.StatusCode != nil {
			code = *env.StatusCode
		}
		reason := env.Message
		if reason == "" {
			reason = fmt.Sprintf("statusCode %d", code)
		}
		c.logger.Warn("SwitchBot API returned error",
			zap.String("path", path),
			zap.Int("httpStatus", resp.StatusCode),
			zap.Int("statusCode", code),
			zap.String("message", env.Message))
		return nil, &entities.Failure{
			Kind:       entities.FailureAPI,
			Reason:     reason,
			StatusCode: code,
		}
	}

	return env.Body, nil
}

func decodeBody(body json.RawMessage, v any) *entities.Failure {
	if len(body) == 0 || string(body) == "null" {
		return &entities.Failure{Kind: entities.FailureMalformed, Reason: "response is missing body"}
	}
	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &entities.Failure{
				Kind:   entities.FailureMalformed,
				Reason: fmt.Sprintf("unexpected type for field %q", typeErr.Field),
			}
		}
		return &entities.Failure{Kind: entities.FailureMalformed, Reason: fmt.Sprintf("failed to decode body: %v", err)}
	}
	return nil
}

func statusPath(deviceID string) string {
	return "/devices/" + url.PathEscape(deviceID) + "/status"
}

func commandsPath(deviceID string) string {
	return "/devices/" + url.PathEscape(deviceID) + "/commands"
}
