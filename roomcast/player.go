package roomcast

import (
	"context"
	"time"
)

// MediaItem is a resolved, playable track.
type MediaItem struct {
	Track     TrackInfo
	StreamURL string
}

// Player is the local playback engine. Only the SyncEngine calls into
// it. Implementations must deliver listener notifications
// asynchronously, never from within a Player method call.
type Player interface {
	Play()
	Pause()
	SeekTo(positionMs int64)

	Position() int64 // milliseconds
	Duration() int64 // milliseconds
	IsPlaying() bool
	CurrentTrackID() string
	CurrentItem() (MediaItem, bool)

	// SetTrack loads and prepares a track without starting playback.
	SetTrack(item MediaItem)

	SetQueue(items []MediaItem)
	AddItem(item MediaItem, insertNext bool)
	RemoveItem(trackID string)
	ClearQueue()
	Next()
	Prev()

	// SetListener registers change notifications; nil detaches.
	SetListener(l PlayerListener)
}

// PlayerListener receives player change notifications.
type PlayerListener interface {
	PlayStateChanged(playing bool)
	TrackChanged(trackID string)
	// Seeked fires for user-initiated seeks only.
	Seeked(positionMs int64)
}

// TrackResolver turns a track id into a playable stream URL plus rich
// metadata.
type TrackResolver interface {
	Resolve(ctx context.Context, trackID string) (MediaItem, error)
}

// NotificationSink surfaces host-side approvals. Fire-and-forget; the
// SDK never reads anything back.
type NotificationSink interface {
	ShowJoinRequest(userID, username string, approve, reject func())
	ShowSuggestion(suggestionID, fromUsername string, track TrackInfo, approve, reject func())
	// Dismiss removes a notification by its user or suggestion id.
	Dismiss(id string)
}

// WakeLock keeps the device responsive while in a room. Acquire takes a
// bounded lease; Release must be idempotent.
type WakeLock interface {
	Acquire(lease time.Duration)
	Release()
}

type noopNotifier struct{}

func (noopNotifier) ShowJoinRequest(string, string, func(), func())           {}
func (noopNotifier) ShowSuggestion(string, string, TrackInfo, func(), func()) {}
func (noopNotifier) Dismiss(string)                                           {}

type noopWakeLock struct{}

func (noopWakeLock) Acquire(time.Duration) {}
func (noopWakeLock) Release()              {}
