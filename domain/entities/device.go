package entities

import (
	"errors"
	"fmt"
)

// LockAction is the command sent to a smart lock
type LockAction string

const (
	LockActionLock   LockAction = "lock"
	LockActionUnlock LockAction = "unlock"
)

const (
	defaultCommandParameter = "default"
	commandTypeCommand      = "command"
)

// DeviceInfo describes a physical device registered to the SwitchBot account
type DeviceInfo struct {
	ID                  string `json:"deviceId"`
	Name                string `json:"deviceName"`
	Type                string `json:"deviceType"`
	HubDeviceID         string `json:"hubDeviceId,omitempty"`
	CloudServiceEnabled bool   `json:"enableCloudService"`
}

var meterTypes = map[string]bool{
	"Meter":         true,
	"Meter Plus":    true,
	"Outdoor Meter": true,
	"Meter Pro":     true,
	"Meter Pro CO2": true,
	"WoIOSensor":    true,
}

// IsMeter reports whether the device is a thermo-hygrometer
func (d DeviceInfo) IsMeter() bool {
	return meterTypes[d.Type]
}

// DeviceCommand is the body of POST /devices/{deviceId}/commands
type DeviceCommand struct {
	Command     LockAction `json:"command"`
	Parameter   string     `json:"parameter"`
	CommandType string     `json:"commandType"`
}

// NewLockCommand builds a lock or unlock command with the fixed parameter and type
func NewLockCommand(action LockAction) DeviceCommand {
	return DeviceCommand{
		Command:     action,
		Parameter:   defaultCommandParameter,
		CommandType: commandTypeCommand,
	}
}

// Validate validates the command
func (c DeviceCommand) Validate() error {
	if c.Command != LockActionLock && c.Command != LockActionUnlock {
		return fmt.Errorf("unsupported command %q", c.Command)
	}
	if c.Parameter == "" {
		return errors.New("parameter is required")
	}
	if c.CommandType == "" {
		return errors.New("commandType is required")
	}
	return nil
}
