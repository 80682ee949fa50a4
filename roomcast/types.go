package roomcast

import "encoding/json"

// Message type strings, client -> server.
const (
	msgCreateRoom        = "create_room"
	msgJoinRoom          = "join_room"
	msgReconnect         = "reconnect"
	msgLeaveRoom         = "leave_room"
	msgApproveJoin       = "approve_join"
	msgRejectJoin        = "reject_join"
	msgKickUser          = "kick_user"
	msgPlaybackAction    = "playback_action"
	msgBufferReady       = "buffer_ready"
	msgChat              = "chat"
	msgSuggestTrack      = "suggest_track"
	msgApproveSuggestion = "approve_suggestion"
	msgRejectSuggestion  = "reject_suggestion"
	msgRequestSync       = "request_sync"
	msgPing              = "ping"
)

// Message type strings, server -> client.
const (
	msgRoomCreated        = "room_created"
	msgJoinRequest        = "join_request"
	msgJoinApproved       = "join_approved"
	msgJoinRejected       = "join_rejected"
	msgUserJoined         = "user_joined"
	msgUserLeft           = "user_left"
	msgHostChanged        = "host_changed"
	msgKicked             = "kicked"
	msgSyncPlayback       = "sync_playback"
	msgBufferWait         = "buffer_wait"
	msgBufferComplete     = "buffer_complete"
	msgSyncState          = "sync_state"
	msgChatMessage        = "chat_message"
	msgSuggestionReceived = "suggestion_received"
	msgSuggestionApproved = "suggestion_approved"
	msgSuggestionRejected = "suggestion_rejected"
	msgError              = "error"
	msgPong               = "pong"
	msgReconnected        = "reconnected"
	msgUserReconnected    = "user_reconnected"
	msgUserDisconnected   = "user_disconnected"
)

// Playback actions carried by playback_action and sync_playback.
const (
	ActionPlay        = "play"
	ActionPause       = "pause"
	ActionSeek        = "seek"
	ActionChangeTrack = "change_track"
	ActionSkipNext    = "skip_next"
	ActionSkipPrev    = "skip_prev"
	ActionQueueAdd    = "queue_add"
	ActionQueueRemove = "queue_remove"
	ActionQueueClear  = "queue_clear"
	ActionSyncQueue   = "sync_queue"
)

// Message is the wire envelope in both directions. A nil payload is
// valid for fire-and-forget types (ping, leave_room, request_sync).
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TrackInfo is the wire-transferable subset of a track.
type TrackInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album,omitempty"`
	Duration  int64  `json:"duration"` // milliseconds
	Thumbnail string `json:"thumbnail,omitempty"`
}

// UserInfo describes a room participant. IsConnected=false marks a
// temporarily dropped peer without removing them from the roster.
type UserInfo struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	IsHost      bool   `json:"isHost"`
	IsConnected bool   `json:"isConnected"`
}

// RoomState is the shared room snapshot. It is mutated only by the
// client in response to server events; accessors hand out copies.
type RoomState struct {
	RoomCode     string      `json:"roomCode"`
	HostID       string      `json:"hostId"`
	Users        []UserInfo  `json:"users"`
	IsPlaying    bool        `json:"isPlaying"`
	Position     int64       `json:"position"` // milliseconds
	CurrentTrack *TrackInfo  `json:"currentTrack,omitempty"`
	LastUpdate   int64       `json:"lastUpdate"` // epoch milliseconds
	Queue        []TrackInfo `json:"queue,omitempty"`
}

func (s *RoomState) clone() *RoomState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Users = append([]UserInfo(nil), s.Users...)
	cp.Queue = append([]TrackInfo(nil), s.Queue...)
	if s.CurrentTrack != nil {
		track := *s.CurrentTrack
		cp.CurrentTrack = &track
	}
	return &cp
}

// JoinRequest is a pending request from a user wanting to join the room.
// Visible to the host only.
type JoinRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Suggestion is a track suggested by a guest, pending host approval.
type Suggestion struct {
	SuggestionID string    `json:"suggestionId"`
	FromUsername string    `json:"fromUsername"`
	TrackInfo    TrackInfo `json:"trackInfo"`
}

// PlaybackActionPayload is the playback command exchanged between host
// and guests. Position is a pointer so "no position" is distinct from 0.
type PlaybackActionPayload struct {
	Action     string      `json:"action"`
	TrackID    string      `json:"trackId,omitempty"`
	Position   *int64      `json:"position,omitempty"`
	TrackInfo  *TrackInfo  `json:"trackInfo,omitempty"`
	InsertNext bool        `json:"insertNext,omitempty"`
	Queue      []TrackInfo `json:"queue,omitempty"`
	QueueTitle string      `json:"queueTitle,omitempty"`
}

// SyncStatePayload is a full playback resync, delivered out-of-band of
// the buffering barrier.
type SyncStatePayload struct {
	CurrentTrack *TrackInfo  `json:"currentTrack,omitempty"`
	IsPlaying    bool        `json:"isPlaying"`
	Position     int64       `json:"position"`
	LastUpdate   int64       `json:"lastUpdate"`
	Queue        []TrackInfo `json:"queue,omitempty"`
}

// Outbound payloads.

type createRoomPayload struct {
	Username string `json:"username"`
}

type joinRoomPayload struct {
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
}

type reconnectPayload struct {
	SessionToken string `json:"sessionToken"`
}

type approveJoinPayload struct {
	UserID string `json:"userId"`
}

type rejectJoinPayload struct {
	UserID string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

type kickUserPayload struct {
	UserID string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

type bufferReadyPayload struct {
	TrackID string `json:"trackId"`
}

type chatPayload struct {
	Message string `json:"message"`
}

type suggestTrackPayload struct {
	TrackInfo TrackInfo `json:"trackInfo"`
}

type approveSuggestionPayload struct {
	SuggestionID string `json:"suggestionId"`
}

type rejectSuggestionPayload struct {
	SuggestionID string `json:"suggestionId"`
	Reason       string `json:"reason,omitempty"`
}

// Inbound payloads.

type roomCreatedPayload struct {
	RoomCode     string `json:"roomCode"`
	UserID       string `json:"userId"`
	SessionToken string `json:"sessionToken"`
}

type joinApprovedPayload struct {
	RoomCode     string    `json:"roomCode"`
	UserID       string    `json:"userId"`
	SessionToken string    `json:"sessionToken"`
	State        RoomState `json:"state"`
}

type joinRejectedPayload struct {
	Reason string `json:"reason"`
}

type userJoinedPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type userLeftPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type hostChangedPayload struct {
	NewHostID   string `json:"newHostId"`
	NewHostName string `json:"newHostName"`
}

type kickedPayload struct {
	Reason string `json:"reason"`
}

type bufferWaitPayload struct {
	TrackID    string   `json:"trackId"`
	WaitingFor []string `json:"waitingFor"`
}

type bufferCompletePayload struct {
	TrackID string `json:"trackId"`
}

type chatMessagePayload struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type suggestionApprovedPayload struct {
	SuggestionID string    `json:"suggestionId"`
	TrackInfo    TrackInfo `json:"trackInfo"`
}

type suggestionRejectedPayload struct {
	SuggestionID string `json:"suggestionId"`
	Reason       string `json:"reason,omitempty"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type reconnectedPayload struct {
	RoomCode string    `json:"roomCode"`
	UserID   string    `json:"userId"`
	State    RoomState `json:"state"`
	IsHost   bool      `json:"isHost"`
}

type userReconnectedPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type userDisconnectedPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}
