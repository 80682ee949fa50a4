package roomcast

import "time"

// DefaultServerURL is the public relay endpoint used when no URL is
// configured and none is persisted.
const DefaultServerURL = "wss://relay.roomcast.dev/ws"

// Config controls how the SDK connects and synchronizes.
type Config struct {
	// URL of the relay server. A persisted server URL override, if any,
	// takes precedence over this value.
	URL string

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	// PingInterval is the keepalive cadence on an open connection.
	PingInterval time.Duration

	// Reconnect backoff. Delay for attempt n is
	// InitialReconnectDelay * 2^min(n-1,4), capped at MaxReconnectDelay,
	// plus 0-20% jitter.
	InitialReconnectDelay time.Duration
	MaxReconnectDelay     time.Duration
	MaxReconnectAttempts  int

	// SessionGracePeriod is how long a persisted session stays eligible
	// for automatic reconnection.
	SessionGracePeriod time.Duration

	// HeartbeatInterval is the host's playback-position refresh cadence,
	// sent only while playing.
	HeartbeatInterval time.Duration

	// BufferFallbackTimeout force-applies a pending sync when a
	// buffer_complete never arrives for a buffering track.
	BufferFallbackTimeout time.Duration

	// SeekTolerance is the position delta below which remote seeks are
	// skipped to avoid audible jumps.
	SeekTolerance time.Duration

	// EchoCooldown is how long echo suppression is held after applying a
	// remote command, so the resulting player callback is not mistaken
	// for a local user action.
	EchoCooldown time.Duration

	// WakeLockLease bounds each wake-lock acquisition while in a room.
	WakeLockLease time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:                   DefaultServerURL,
		HandshakeTimeout:      10 * time.Second,
		ReadTimeout:           60 * time.Second,
		WriteTimeout:          10 * time.Second,
		PingInterval:          25 * time.Second,
		InitialReconnectDelay: time.Second,
		MaxReconnectDelay:     120 * time.Second,
		MaxReconnectAttempts:  15,
		SessionGracePeriod:    10 * time.Minute,
		HeartbeatInterval:     15 * time.Second,
		BufferFallbackTimeout: 5 * time.Second,
		SeekTolerance:         100 * time.Millisecond,
		EchoCooldown:          200 * time.Millisecond,
		WakeLockLease:         30 * time.Minute,
	}
}
