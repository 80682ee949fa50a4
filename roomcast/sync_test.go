package roomcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakePlayer struct {
	mu       sync.Mutex
	playing  bool
	position int64
	item     *MediaItem
	queue    []MediaItem
	listener PlayerListener

	playCalls  int
	pauseCalls int
	seeks      []int64
	setTracks  []string
}

func (p *fakePlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	p.playCalls++
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.pauseCalls++
}

func (p *fakePlayer) SeekTo(positionMs int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = positionMs
	p.seeks = append(p.seeks, positionMs)
}

func (p *fakePlayer) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *fakePlayer) Duration() int64 { return 180_000 }

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) CurrentTrackID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.item == nil {
		return ""
	}
	return p.item.Track.ID
}

func (p *fakePlayer) CurrentItem() (MediaItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.item == nil {
		return MediaItem{}, false
	}
	return *p.item, true
}

func (p *fakePlayer) SetTrack(item MediaItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.item = &item
	p.position = 0
	p.setTracks = append(p.setTracks, item.Track.ID)
}

func (p *fakePlayer) SetQueue(items []MediaItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = items
}

func (p *fakePlayer) AddItem(item MediaItem, insertNext bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if insertNext {
		p.queue = append([]MediaItem{item}, p.queue...)
		return
	}
	p.queue = append(p.queue, item)
}

func (p *fakePlayer) RemoveItem(trackID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.queue {
		if p.queue[i].Track.ID == trackID {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			return
		}
	}
}

func (p *fakePlayer) ClearQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = nil
}

func (p *fakePlayer) Next() {}
func (p *fakePlayer) Prev() {}

func (p *fakePlayer) SetListener(l PlayerListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = l
}

func (p *fakePlayer) stats() (playCalls, pauseCalls, setTracks int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playCalls, p.pauseCalls, len(p.setTracks)
}

type fakeResolver struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (r *fakeResolver) Resolve(ctx context.Context, trackID string) (MediaItem, error) {
	r.mu.Lock()
	r.calls++
	err := r.err
	r.mu.Unlock()
	if err != nil {
		return MediaItem{}, err
	}
	return MediaItem{
		Track:     TrackInfo{ID: trackID, Title: "Track " + trackID, Duration: 180_000},
		StreamURL: fmt.Sprintf("https://cdn.example.com/%s.mp3", trackID),
	}, nil
}

func TestGuestAppliesPlayCommand(t *testing.T) {
	c := newTestClient(t)
	asGuest(t, c)
	e := NewSyncEngine(c, &fakeResolver{})
	fp := &fakePlayer{}
	fp.item = &MediaItem{Track: TrackInfo{ID: "t1"}}
	fp.position = 1_000
	e.SetPlayer(fp)

	pos := int64(30_000)
	c.handleIncoming(frame(t, msgSyncPlayback, PlaybackActionPayload{Action: ActionPlay, Position: &pos}))

	if !fp.IsPlaying() {
		t.Fatal("player should be playing")
	}
	if fp.Position() != 30_000 {
		t.Fatalf("drift not corrected: %d", fp.Position())
	}
}

func TestGuestSeekToleranceSkipsSmallDrift(t *testing.T) {
	c := newTestClient(t)
	asGuest(t, c)
	e := NewSyncEngine(c, &fakeResolver{})
	fp := &fakePlayer{}
	fp.item = &MediaItem{Track: TrackInfo{ID: "t1"}}
	fp.position = 30_050
	e.SetPlayer(fp)

	pos := int64(30_000)
	c.handleIncoming(frame(t, msgSyncPlayback, PlaybackActionPayload{Action: ActionPlay, Position: &pos}))

	fp.mu.Lock()
	seeks := len(fp.seeks)
	fp.mu.Unlock()
	if seeks != 0 {
		t.Fatalf("a 50ms drift must not trigger a seek: %v", fp.seeks)
	}
	if !fp.IsPlaying() {
		t.Fatal("player should still start")
	}
}

func TestGuestPauseCommand(t *testing.T) {
	c := newTestClient(t)
	asGuest(t, c)
	e := NewSyncEngine(c, &fakeResolver{})
	fp := &fakePlayer{playing: true}
	fp.item = &MediaItem{Track: TrackInfo{ID: "t1"}}
	e.SetPlayer(fp)

	pos := int64(15_000)
	c.handleIncoming(frame(t, msgSyncPlayback, PlaybackActionPayload{Action: ActionPause, Position: &pos}))

	if fp.IsPlaying() {
		t.Fatal("player should be paused")
	}
	if fp.Position() != 15_000 {
		t.Fatalf("pause position not applied: %d", fp.Position())
	}
}

// joinGuestWithWire brings a wired client into a room as guest.
func joinGuestWithWire(t *testing.T, c *Client, tap *wireTap) {
	t.Helper()
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	tap.last().in <- frame(t, msgJoinApproved, joinApprovedPayload{
		RoomCode: "ABCD", UserID: "u-guest", SessionToken: "tok",
		State: RoomState{RoomCode: "ABCD", HostID: "u-host", Users: []UserInfo{
			{UserID: "u-host", IsHost: true, IsConnected: true},
			{UserID: "u-guest", IsConnected: true},
		}},
	})
	waitFor(t, "room", c.InRoom)
}

func TestGuestChangeTrackWaitsAtBarrier(t *testing.T) {
	c, tap := newWiredClient(t)
	e := NewSyncEngine(c, &fakeResolver{})
	fp := &fakePlayer{}
	e.SetPlayer(fp)
	joinGuestWithWire(t, c, tap)

	track := TrackInfo{ID: "t2", Title: "Two"}
	tap.last().in <- frame(t, msgSyncPlayback, PlaybackActionPayload{
		Action: ActionChangeTrack, TrackID: "t2", TrackInfo: &track,
	})

	// The stream resolves, loads, and the client reports readiness.
	msg := tap.last().expectFrame(t, msgBufferReady)
	var rp bufferReadyPayload
	if err := decodePayload(msg, &rp); err != nil {
		t.Fatal(err)
	}
	if rp.TrackID != "t2" {
		t.Fatalf("buffer ready for wrong track: %s", rp.TrackID)
	}
	if fp.CurrentTrackID() != "t2" {
		t.Fatalf("track not loaded: %s", fp.CurrentTrackID())
	}
	if fp.IsPlaying() {
		t.Fatal("must hold paused until the room finishes buffering")
	}

	// A play command during buffering is deferred, not applied.
	pos := int64(0)
	tap.last().in <- frame(t, msgSyncPlayback, PlaybackActionPayload{Action: ActionPlay, Position: &pos})
	time.Sleep(20 * time.Millisecond)
	if fp.IsPlaying() {
		t.Fatal("play must wait for buffer_complete")
	}

	tap.last().in <- frame(t, msgBufferComplete, bufferCompletePayload{TrackID: "t2"})
	waitFor(t, "playback start", fp.IsPlaying)
}

// gatedResolver blocks Resolve until released, simulating a slow
// stream fetch.
type gatedResolver struct {
	release chan struct{}
}

func (r *gatedResolver) Resolve(ctx context.Context, trackID string) (MediaItem, error) {
	select {
	case <-r.release:
	case <-ctx.Done():
		return MediaItem{}, ctx.Err()
	}
	return MediaItem{
		Track:     TrackInfo{ID: trackID, Title: "Track " + trackID, Duration: 180_000},
		StreamURL: fmt.Sprintf("https://cdn.example.com/%s.mp3", trackID),
	}, nil
}

func TestBufferCompleteDuringResolveWaitsForLoad(t *testing.T) {
	c, tap := newWiredClient(t)
	gate := &gatedResolver{release: make(chan struct{})}
	e := NewSyncEngine(c, gate)
	fp := &fakePlayer{}
	fp.item = &MediaItem{Track: TrackInfo{ID: "t1"}}
	e.SetPlayer(fp)
	joinGuestWithWire(t, c, tap)

	track := TrackInfo{ID: "t2", Title: "Two"}
	tap.last().in <- frame(t, msgSyncPlayback, PlaybackActionPayload{
		Action: ActionChangeTrack, TrackID: "t2", TrackInfo: &track,
	})

	// The rest of the room finishes buffering while this device is
	// still resolving the stream.
	pos := int64(90_000)
	tap.last().in <- frame(t, msgSyncPlayback, PlaybackActionPayload{Action: ActionPlay, Position: &pos})
	tap.last().in <- frame(t, msgBufferComplete, bufferCompletePayload{TrackID: "t2"})
	time.Sleep(20 * time.Millisecond)

	fp.mu.Lock()
	seeks := len(fp.seeks)
	fp.mu.Unlock()
	if seeks != 0 || fp.IsPlaying() {
		t.Fatal("pending sync applied before the new track loaded")
	}

	close(gate.release)
	msg := tap.last().expectFrame(t, msgBufferReady)
	var rp bufferReadyPayload
	if err := decodePayload(msg, &rp); err != nil {
		t.Fatal(err)
	}
	if rp.TrackID != "t2" {
		t.Fatalf("buffer ready for wrong track: %s", rp.TrackID)
	}

	// The recorded completion releases the barrier once the load lands.
	waitFor(t, "playback start", fp.IsPlaying)
	if fp.CurrentTrackID() != "t2" {
		t.Fatalf("wrong track playing: %s", fp.CurrentTrackID())
	}
	if fp.Position() != 90_000 {
		t.Fatalf("pending position not applied: %d", fp.Position())
	}
	playCalls, _, _ := fp.stats()
	if playCalls != 1 {
		t.Fatalf("pending sync must apply exactly once: %d play calls", playCalls)
	}
}

func TestDuplicateBufferCompleteIsNoOp(t *testing.T) {
	c, tap := newWiredClient(t)
	e := NewSyncEngine(c, &fakeResolver{})
	fp := &fakePlayer{}
	e.SetPlayer(fp)
	joinGuestWithWire(t, c, tap)

	track := TrackInfo{ID: "t3"}
	tap.last().in <- frame(t, msgSyncPlayback, PlaybackActionPayload{
		Action: ActionChangeTrack, TrackID: "t3", TrackInfo: &track,
	})
	tap.last().expectFrame(t, msgBufferReady)

	pos := int64(0)
	tap.last().in <- frame(t, msgSyncPlayback, PlaybackActionPayload{Action: ActionPlay, Position: &pos})
	tap.last().in <- frame(t, msgBufferComplete, bufferCompletePayload{TrackID: "t3"})
	waitFor(t, "playback start", fp.IsPlaying)

	tap.last().in <- frame(t, msgBufferComplete, bufferCompletePayload{TrackID: "t3"})
	time.Sleep(20 * time.Millisecond)

	playCalls, _, _ := fp.stats()
	if playCalls != 1 {
		t.Fatalf("duplicate completion must not replay: %d play calls", playCalls)
	}
}

func TestBufferFallbackTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PingInterval = 0
	cfg.BufferFallbackTimeout = 25 * time.Millisecond
	c := NewClient(cfg)
	c.jitterFn = func() float64 { return 0 }
	t.Cleanup(c.Disconnect)
	tap := &wireTap{}
	c.dialFn = tap.dial

	e := NewSyncEngine(c, &fakeResolver{})
	fp := &fakePlayer{}
	e.SetPlayer(fp)
	joinGuestWithWire(t, c, tap)

	track := TrackInfo{ID: "t4"}
	tap.last().in <- frame(t, msgSyncPlayback, PlaybackActionPayload{
		Action: ActionChangeTrack, TrackID: "t4", TrackInfo: &track,
	})
	tap.last().expectFrame(t, msgBufferReady)
	pos := int64(0)
	tap.last().in <- frame(t, msgSyncPlayback, PlaybackActionPayload{Action: ActionPlay, Position: &pos})

	// buffer_complete never arrives; the fallback releases the barrier.
	waitFor(t, "fallback playback", fp.IsPlaying)
}

func TestResolveFailureReportsError(t *testing.T) {
	c := newTestClient(t)
	asGuest(t, c)
	e := NewSyncEngine(c, &fakeResolver{err: errors.New("catalog down")})
	fp := &fakePlayer{}
	e.SetPlayer(fp)

	var mu sync.Mutex
	var got error
	c.OnError(func(err error) {
		mu.Lock()
		got = err
		mu.Unlock()
	})

	track := TrackInfo{ID: "t5"}
	c.handleIncoming(frame(t, msgSyncPlayback, PlaybackActionPayload{
		Action: ActionChangeTrack, TrackID: "t5", TrackInfo: &track,
	}))

	waitFor(t, "resolve error", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil
	})
	mu.Lock()
	defer mu.Unlock()
	var rcErr *RoomcastError
	if !errors.As(got, &rcErr) || rcErr.Code != ErrorResolve {
		t.Fatalf("expected resolve error, got %v", got)
	}
	if _, _, setTracks := fp.stats(); setTracks != 0 {
		t.Fatal("failed resolution must not load a track")
	}
}

func hostWithWire(t *testing.T, c *Client, tap *wireTap) {
	t.Helper()
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	tap.last().in <- frame(t, msgRoomCreated, roomCreatedPayload{
		RoomCode: "ABCD", UserID: "u-host", SessionToken: "tok",
	})
	waitFor(t, "host room", c.IsHost)
}

func TestHostBroadcastsPlayState(t *testing.T) {
	c, tap := newWiredClient(t)
	e := NewSyncEngine(c, &fakeResolver{})
	fp := &fakePlayer{position: 12_000}
	fp.item = &MediaItem{Track: TrackInfo{ID: "t1"}}
	e.SetPlayer(fp)
	hostWithWire(t, c, tap)

	fp.playing = true
	e.PlayStateChanged(true)

	msg := tap.last().expectFrame(t, msgPlaybackAction)
	var p PlaybackActionPayload
	if err := decodePayload(msg, &p); err != nil {
		t.Fatal(err)
	}
	if p.Action != ActionPlay || p.Position == nil || *p.Position != 12_000 {
		t.Fatalf("unexpected broadcast: %+v", p)
	}
}

func TestHostTrackChangeSuppressesBarrierPause(t *testing.T) {
	c, tap := newWiredClient(t)
	e := NewSyncEngine(c, &fakeResolver{})
	fp := &fakePlayer{playing: true}
	fp.item = &MediaItem{Track: TrackInfo{ID: "t1"}}
	e.SetPlayer(fp)
	hostWithWire(t, c, tap)

	fp.mu.Lock()
	fp.item = &MediaItem{Track: TrackInfo{ID: "t2", Title: "Two"}}
	fp.mu.Unlock()
	e.TrackChanged("t2")

	msg := tap.last().expectFrame(t, msgPlaybackAction)
	var p PlaybackActionPayload
	if err := decodePayload(msg, &p); err != nil {
		t.Fatal(err)
	}
	if p.Action != ActionChangeTrack || p.TrackID != "t2" {
		t.Fatalf("unexpected broadcast: %+v", p)
	}
	tap.last().expectFrame(t, msgBufferReady)

	// The barrier pause is the engine's own doing; the resulting
	// listener callback must not broadcast a pause.
	e.PlayStateChanged(false)
	tap.last().expectNoFrame(t, 50*time.Millisecond)

	// Everyone buffered: the host resumes, and that is a real state
	// change worth broadcasting.
	tap.last().in <- frame(t, msgBufferComplete, bufferCompletePayload{TrackID: "t2"})
	waitFor(t, "host resume", fp.IsPlaying)
}

func TestHostHeartbeatWhilePlaying(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PingInterval = 0
	cfg.HeartbeatInterval = 10 * time.Millisecond
	c := NewClient(cfg)
	c.jitterFn = func() float64 { return 0 }
	t.Cleanup(c.Disconnect)
	tap := &wireTap{}
	c.dialFn = tap.dial

	e := NewSyncEngine(c, &fakeResolver{})
	fp := &fakePlayer{position: 5_000}
	fp.item = &MediaItem{Track: TrackInfo{ID: "t1"}}
	e.SetPlayer(fp)
	hostWithWire(t, c, tap)

	fp.playing = true
	e.PlayStateChanged(true)

	// The initial broadcast plus at least two heartbeats.
	for i := 0; i < 3; i++ {
		msg := tap.last().expectFrame(t, msgPlaybackAction)
		var p PlaybackActionPayload
		if err := decodePayload(msg, &p); err != nil {
			t.Fatal(err)
		}
		if p.Action != ActionPlay {
			t.Fatalf("heartbeat must be a play: %+v", p)
		}
	}

	// Pausing stops the heartbeat. Drain queued heartbeats until the
	// pause broadcast comes through, then expect silence.
	fp.playing = false
	e.PlayStateChanged(false)
	deadline := time.After(2 * time.Second)
	for {
		msg := tap.last().expectFrame(t, msgPlaybackAction)
		var p PlaybackActionPayload
		if err := decodePayload(msg, &p); err != nil {
			t.Fatal(err)
		}
		if p.Action == ActionPause {
			break
		}
		select {
		case <-deadline:
			t.Fatal("pause broadcast never arrived")
		default:
		}
	}
	tap.last().expectNoFrame(t, 50*time.Millisecond)
}

func TestLeaveRoomPausesPlayer(t *testing.T) {
	c, tap := newWiredClient(t)
	e := NewSyncEngine(c, &fakeResolver{})
	fp := &fakePlayer{playing: true}
	fp.item = &MediaItem{Track: TrackInfo{ID: "t1"}}
	e.SetPlayer(fp)
	joinGuestWithWire(t, c, tap)

	if err := c.LeaveRoom(); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if fp.IsPlaying() {
		t.Fatal("leaving the room must pause local playback")
	}
	tap.last().expectFrame(t, msgLeaveRoom)
}

func TestSyncStateBypassesBarrier(t *testing.T) {
	c, tap := newWiredClient(t)
	e := NewSyncEngine(c, &fakeResolver{})
	fp := &fakePlayer{}
	e.SetPlayer(fp)
	joinGuestWithWire(t, c, tap)

	track := TrackInfo{ID: "t8", Title: "Eight"}
	tap.last().in <- frame(t, msgSyncState, SyncStatePayload{
		CurrentTrack: &track,
		IsPlaying:    true,
		Position:     60_000,
		LastUpdate:   time.Now().UnixMilli(),
	})

	// No buffer_ready, no barrier: the track loads and plays directly.
	waitFor(t, "direct playback", fp.IsPlaying)
	if fp.CurrentTrackID() != "t8" {
		t.Fatalf("track not loaded: %s", fp.CurrentTrackID())
	}
	if fp.Position() < 60_000 {
		t.Fatalf("position not advanced: %d", fp.Position())
	}
}
