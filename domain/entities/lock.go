package entities

// LockStateKind is the normalized lock position
type LockStateKind string

const (
	LockStateLocked   LockStateKind = "locked"
	LockStateUnlocked LockStateKind = "unlocked"
	LockStateUnknown  LockStateKind = "unknown"
)

// LockState is the lock position reported by the device. Raw keeps the
// value the API sent so unrecognized states can still be shown.
type LockState struct {
	Kind LockStateKind
	Raw  string
}

// ParseLockState maps the lockState field of a status response.
// Anything other than "locked" or "unlocked" becomes unknown(raw).
func ParseLockState(raw string) LockState {
	switch raw {
	case string(LockStateLocked):
		return LockState{Kind: LockStateLocked, Raw: raw}
	case string(LockStateUnlocked):
		return LockState{Kind: LockStateUnlocked, Raw: raw}
	default:
		return LockState{Kind: LockStateUnknown, Raw: raw}
	}
}

// LockStatus is the result of a status query against a smart lock
type LockStatus struct {
	State     LockState
	Battery   *int
	DoorState string
}

// SensorReading is the result of a status query against a meter.
// Any field may be absent from the response.
type SensorReading struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Battery     *int     `json:"battery"`
}

// Empty reports whether the response carried none of the expected fields
func (r SensorReading) Empty() bool {
	return r.Temperature == nil && r.Humidity == nil && r.Battery == nil
}
