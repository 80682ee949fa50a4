package roomcast

// RoomCreatedEvent emitted when the server confirms room creation.
type RoomCreatedEvent struct {
	RoomCode string
	UserID   string
}

// JoinRequestEvent emitted to the host when a user asks to join.
type JoinRequestEvent struct {
	UserID   string
	Username string
}

// JoinApprovedEvent emitted when the local user's join was approved.
type JoinApprovedEvent struct {
	RoomCode string
	UserID   string
	State    RoomState
}

// JoinRejectedEvent emitted when the local user's join was rejected.
type JoinRejectedEvent struct {
	Reason string
}

// UserEvent emitted when a peer joins, leaves, reconnects, or drops.
type UserEvent struct {
	UserID   string
	Username string
}

// HostChangedEvent emitted when room authority moves to another user.
type HostChangedEvent struct {
	NewHostID   string
	NewHostName string
}

// KickedEvent emitted when the local user was removed from the room.
type KickedEvent struct {
	Reason string
}

// PlaybackSyncEvent carries a host playback command.
type PlaybackSyncEvent struct {
	Action PlaybackActionPayload
}

// BufferWaitEvent lists the peers still buffering the current track.
type BufferWaitEvent struct {
	TrackID    string
	WaitingFor []string
}

// BufferCompleteEvent signals that every peer finished buffering.
type BufferCompleteEvent struct {
	TrackID string
}

// SyncStateEvent carries a full out-of-band playback resync.
type SyncStateEvent struct {
	State SyncStatePayload
}

// ChatEvent emitted when a room chat message arrives.
type ChatEvent struct {
	UserID    string
	Username  string
	Message   string
	Timestamp int64
}

// SuggestionEvent emitted to the host when a guest suggests a track.
type SuggestionEvent struct {
	Suggestion Suggestion
}

// SuggestionResolvedEvent emitted when a suggestion was approved or
// rejected.
type SuggestionResolvedEvent struct {
	SuggestionID string
	Approved     bool
	Reason       string
	TrackInfo    *TrackInfo
}

// ReconnectedEvent emitted when a held session was restored server-side.
type ReconnectedEvent struct {
	RoomCode string
	UserID   string
	State    RoomState
	IsHost   bool
}

// ReconnectingEvent emitted before each reconnect attempt.
type ReconnectingEvent struct {
	Attempt     int
	MaxAttempts int
}

// ServerErrorEvent carries a protocol error response.
type ServerErrorEvent struct {
	Code    string
	Message string
}
