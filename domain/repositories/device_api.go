package repositories

import (
	"context"

	"github.com/git-756/discord-switchbot-lock/domain/entities"
)

// DeviceAPI abstracts the remote device-control service. Every operation
// returns exactly one Result and never panics.
type DeviceAPI interface {
	// ListDevices returns every physical device on the account
	ListDevices(ctx context.Context) entities.Result[[]entities.DeviceInfo]
	// GetLockStatus returns the lock position and battery of a smart lock
	GetLockStatus(ctx context.Context, deviceID string) entities.Result[entities.LockStatus]
	// SendLockCommand locks or unlocks a smart lock
	SendLockCommand(ctx context.Context, deviceID string, action entities.LockAction) entities.Result[entities.Unit]
	// GetSensorReading returns temperature, humidity and battery of a meter
	GetSensorReading(ctx context.Context, deviceID string) entities.Result[entities.SensorReading]
}
