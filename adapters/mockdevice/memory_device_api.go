package mockdevice

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/git-756/discord-switchbot-lock/domain/entities"
	"github.com/git-756/discord-switchbot-lock/domain/repositories"
)

// statusDeviceNotFound is what the real API answers for an unknown device id
const statusDeviceNotFound = 190

// Call records one operation made against the mock
type Call struct {
	Op       string
	DeviceID string
	Action   entities.LockAction
}

// MemoryDeviceAPI is an in-memory stand-in for the SwitchBot API, used for
// local runs without an account and in tests
type MemoryDeviceAPI struct {
	mu       sync.RWMutex
	devices  map[string]entities.DeviceInfo
	locks    map[string]entities.LockStatus
	readings map[string]entities.SensorReading
	failure  *entities.Failure
	delay    time.Duration
	calls    []Call
	logger   *zap.Logger
}

// Ensure MemoryDeviceAPI implements the DeviceAPI interface
var _ repositories.DeviceAPI = (*MemoryDeviceAPI)(nil)

// NewMemoryDeviceAPI creates an empty mock
func NewMemoryDeviceAPI(logger *zap.Logger) *MemoryDeviceAPI {
	return &MemoryDeviceAPI{
		devices:  make(map[string]entities.DeviceInfo),
		locks:    make(map[string]entities.LockStatus),
		readings: make(map[string]entities.SensorReading),
		logger:   logger,
	}
}

// NewSeededDeviceAPI creates a mock with one lock and one meter registered
// under the given ids. Empty ids are skipped.
func NewSeededDeviceAPI(lockID, sensorID string, logger *zap.Logger) *MemoryDeviceAPI {
	m := NewMemoryDeviceAPI(logger)
	battery := 90
	if lockID != "" {
		m.AddLock(entities.DeviceInfo{ID: lockID, Name: "Smart Lock", Type: "Smart Lock"},
			entities.LockStatus{State: entities.ParseLockState("locked"), Battery: &battery, DoorState: "closed"})
	}
	if sensorID != "" {
		temp, humidity := 22.5, 45.0
		m.AddMeter(entities.DeviceInfo{ID: sensorID, Name: "Meter", Type: "Meter Plus"},
			entities.SensorReading{Temperature: &temp, Humidity: &humidity, Battery: &battery})
	}
	return m
}

// AddLock registers a smart lock
func (m *MemoryDeviceAPI) AddLock(info entities.DeviceInfo, status entities.LockStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[info.ID] = info
	m.locks[info.ID] = status
}

// AddMeter registers a thermo-hygrometer
func (m *MemoryDeviceAPI) AddMeter(info entities.DeviceInfo, reading entities.SensorReading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[info.ID] = info
	m.readings[info.ID] = reading
}

// FailWith makes every following call fail with f; nil restores success
func (m *MemoryDeviceAPI) FailWith(f *entities.Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = f
}

// SetDelay makes every call block for d before answering
func (m *MemoryDeviceAPI) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns a copy of the recorded calls
func (m *MemoryDeviceAPI) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// begin records the call, applies the configured delay and returns the
// configured failure, if any
func (m *MemoryDeviceAPI) begin(ctx context.Context, call Call) *entities.Failure {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	delay, failure := m.delay, m.failure
	m.mu.Unlock()

	m.logger.Debug("Mock device call",
		zap.String("op", call.Op),
		zap.String("deviceID", call.DeviceID))

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return &entities.Failure{Kind: entities.FailureTransport, Reason: "request failed: " + ctx.Err().Error()}
		}
	}
	return failure
}

func notFound() *entities.Failure {
	return &entities.Failure{Kind: entities.FailureAPI, Reason: "Device not found", StatusCode: statusDeviceNotFound}
}

// ListDevices implements DeviceAPI
func (m *MemoryDeviceAPI) ListDevices(ctx context.Context) entities.Result[[]entities.DeviceInfo] {
	if f := m.begin(ctx, Call{Op: "ListDevices"}); f != nil {
		return entities.Fail[[]entities.DeviceInfo](f)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	devices := make([]entities.DeviceInfo, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, d)
	}
	return entities.Success(devices)
}

// GetLockStatus implements DeviceAPI
func (m *MemoryDeviceAPI) GetLockStatus(ctx context.Context, deviceID string) entities.Result[entities.LockStatus] {
	if f := m.begin(ctx, Call{Op: "GetLockStatus", DeviceID: deviceID}); f != nil {
		return entities.Fail[entities.LockStatus](f)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	status, exists := m.locks[deviceID]
	if !exists {
		return entities.Fail[entities.LockStatus](notFound())
	}
	return entities.Success(status)
}

// SendLockCommand implements DeviceAPI
func (m *MemoryDeviceAPI) SendLockCommand(ctx context.Context, deviceID string, action entities.LockAction) entities.Result[entities.Unit] {
	if f := m.begin(ctx, Call{Op: "SendLockCommand", DeviceID: deviceID, Action: action}); f != nil {
		return entities.Fail[entities.Unit](f)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	status, exists := m.locks[deviceID]
	if !exists {
		return entities.Fail[entities.Unit](notFound())
	}
	status.State = entities.ParseLockState(string(action) + "ed")
	m.locks[deviceID] = status
	return entities.Success(entities.Unit{})
}

// GetSensorReading implements DeviceAPI
func (m *MemoryDeviceAPI) GetSensorReading(ctx context.Context, deviceID string) entities.Result[entities.SensorReading] {
	if f := m.begin(ctx, Call{Op: "GetSensorReading", DeviceID: deviceID}); f != nil {
		return entities.Fail[entities.SensorReading](f)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	reading, exists := m.readings[deviceID]
	if !exists {
		return entities.Fail[entities.SensorReading](notFound())
	}
	return entities.Success(reading)
}
