package roomcast

// ConnectionState represents the current state of the relay connection.
type ConnectionState int

const (
	// StateDisconnected means the client is not connected.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the client is establishing a connection.
	StateConnecting

	// StateConnected means the client is connected and ready.
	StateConnected

	// StateReconnecting means the client is attempting to reconnect after a drop.
	StateReconnecting

	// StateError means reconnection gave up or the connection failed terminally.
	StateError
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Role is the local device's role within a room. At most one participant
// per room holds RoleHost; only the host originates playback commands.
type Role int

const (
	// RoleNone means the device is not in a room.
	RoleNone Role = iota

	// RoleHost means the device drives playback for the room.
	RoleHost

	// RoleGuest means the device follows host-originated commands.
	RoleGuest
)

// String returns the string representation of a Role.
func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleGuest:
		return "guest"
	case RoleNone:
		return "none"
	default:
		return "unknown"
	}
}

// StateEvent represents a connection state change.
type StateEvent struct {
	OldState ConnectionState
	NewState ConnectionState
	Error    error // Optional error that caused the state change
}
