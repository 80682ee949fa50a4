package roomcast

import (
	"context"
	"sync"
	"time"
)

const resolveTimeout = 10 * time.Second

// SyncEngine connects a Player to the room. On the host it watches the
// player and broadcasts every change; on guests it applies the host's
// commands to the player. Remote commands are applied under echo
// suppression so they never bounce back as new broadcasts.
type SyncEngine struct {
	client   *Client
	resolver TrackResolver

	mu     sync.Mutex
	player Player

	// gen invalidates in-flight track resolutions. Bumped whenever a
	// newer command supersedes whatever is loading.
	gen int

	// applying > 0 while a remote command is being pushed into the
	// player; listener callbacks arriving in that window are echoes.
	applying     int
	applyRelease *time.Timer

	lastSyncedTrackID string
	lastSyncedPlaying bool

	// Buffering barrier bookkeeping for the track currently loading.
	// trackLoaded flips once SetTrack has run for awaitingTrack; a
	// buffer_complete that arrives before then is stashed in
	// earlyComplete and honored after the load, never against the track
	// still in the player.
	awaitingTrack string
	trackLoaded   bool
	earlyComplete string
	pendingPlay   bool
	pendingPos    *int64
	fallbackTimer *time.Timer

	hbStop chan struct{}
}

// NewSyncEngine wires a sync engine to the client. The resolver turns
// track ids into playable streams; it is required on guests and on
// hosts that accept suggestions.
func NewSyncEngine(client *Client, resolver TrackResolver) *SyncEngine {
	e := &SyncEngine{client: client, resolver: resolver}
	client.setEngine(e)
	return e
}

// SetPlayer attaches (or swaps) the local player. Attaching does not
// broadcast: the engine adopts the player's current state as already
// synced.
func (e *SyncEngine) SetPlayer(p Player) {
	e.mu.Lock()
	old := e.player
	e.player = p
	if p != nil {
		e.lastSyncedTrackID = p.CurrentTrackID()
		e.lastSyncedPlaying = p.IsPlaying()
	}
	e.mu.Unlock()
	if old != nil && old != p {
		old.SetListener(nil)
	}
	if p != nil {
		p.SetListener(e)
	}
}

// PlayerListener implementation: host-side change broadcasting.

func (e *SyncEngine) PlayStateChanged(playing bool) {
	e.mu.Lock()
	suppressed := e.applying > 0
	player := e.player
	changed := playing != e.lastSyncedPlaying
	if !suppressed && changed {
		e.lastSyncedPlaying = playing
	}
	e.mu.Unlock()
	if suppressed || !changed || player == nil || !e.client.IsHost() {
		return
	}
	pos := player.Position()
	action := ActionPause
	if playing {
		action = ActionPlay
	}
	if err := e.client.SendPlaybackAction(PlaybackActionPayload{Action: action, Position: &pos}); err != nil {
		e.client.logger.Warn("playback broadcast failed", map[string]any{"action": action, "error": err.Error()})
	}
	if playing {
		e.startHeartbeat()
	} else {
		e.stopHeartbeat()
	}
}

func (e *SyncEngine) TrackChanged(trackID string) {
	e.mu.Lock()
	suppressed := e.applying > 0
	player := e.player
	changed := trackID != "" && trackID != e.lastSyncedTrackID
	if !suppressed && changed {
		e.lastSyncedTrackID = trackID
	}
	e.mu.Unlock()
	if suppressed || !changed || player == nil || !e.client.IsHost() {
		return
	}
	item, ok := player.CurrentItem()
	if !ok {
		return
	}
	zero := int64(0)
	track := item.Track
	err := e.client.SendPlaybackAction(PlaybackActionPayload{
		Action:    ActionChangeTrack,
		TrackID:   trackID,
		TrackInfo: &track,
		Position:  &zero,
	})
	if err != nil {
		e.client.logger.Warn("track broadcast failed", map[string]any{"error": err.Error()})
		return
	}
	// The host waits at the barrier too: its own track is ready, so
	// report and hold until everyone else catches up.
	wasPlaying := player.IsPlaying()
	e.mu.Lock()
	e.gen++
	e.awaitingTrack = trackID
	e.trackLoaded = true // the host's own track is already in the player
	e.earlyComplete = ""
	e.pendingPlay = wasPlaying
	e.pendingPos = nil
	e.armFallbackLocked(trackID)
	e.beginApplyLocked()
	e.mu.Unlock()
	player.Pause()
	e.endApplySoon()
	if err := e.client.SendBufferReady(trackID); err != nil {
		e.client.logger.Warn("buffer ready not sent", map[string]any{"error": err.Error()})
	}
}

func (e *SyncEngine) Seeked(positionMs int64) {
	e.mu.Lock()
	suppressed := e.applying > 0
	e.mu.Unlock()
	if suppressed || !e.client.IsHost() {
		return
	}
	pos := positionMs
	if err := e.client.SendPlaybackAction(PlaybackActionPayload{Action: ActionSeek, Position: &pos}); err != nil {
		e.client.logger.Warn("seek broadcast failed", map[string]any{"error": err.Error()})
	}
}

// Client hooks. All run outside the client lock.

// hookPlaybackSync applies one host command to the guest player.
func (e *SyncEngine) hookPlaybackSync(p PlaybackActionPayload) {
	e.mu.Lock()
	player := e.player
	e.mu.Unlock()
	if player == nil {
		return
	}
	switch p.Action {
	case ActionPlay:
		e.mu.Lock()
		if e.awaitingTrack != "" {
			// Still buffering; remember the intent for the barrier release.
			e.pendingPlay = true
			e.pendingPos = p.Position
			e.mu.Unlock()
			return
		}
		e.beginApplyLocked()
		e.mu.Unlock()
		e.correctDrift(player, p.Position)
		if !player.IsPlaying() {
			player.Play()
		}
		e.endApplySoon()
	case ActionPause:
		e.mu.Lock()
		if e.awaitingTrack != "" {
			e.pendingPlay = false
			e.pendingPos = p.Position
			e.mu.Unlock()
			return
		}
		e.beginApplyLocked()
		e.mu.Unlock()
		if p.Position != nil {
			player.SeekTo(*p.Position)
		}
		if player.IsPlaying() {
			player.Pause()
		}
		e.endApplySoon()
	case ActionSeek:
		if p.Position == nil {
			return
		}
		e.mu.Lock()
		e.beginApplyLocked()
		e.mu.Unlock()
		player.SeekTo(*p.Position)
		e.endApplySoon()
	case ActionChangeTrack, ActionSkipNext, ActionSkipPrev:
		if p.TrackInfo == nil {
			e.client.logger.Warn("track change without track info", map[string]any{"action": p.Action})
			return
		}
		pos := int64(0)
		if p.Position != nil {
			pos = *p.Position
		}
		e.syncToTrack(*p.TrackInfo, pos, false)
	case ActionQueueAdd:
		if p.TrackInfo == nil {
			return
		}
		go e.resolveIntoQueue(*p.TrackInfo, p.InsertNext)
	case ActionQueueRemove:
		e.mu.Lock()
		e.beginApplyLocked()
		e.mu.Unlock()
		player.RemoveItem(p.TrackID)
		e.endApplySoon()
	case ActionQueueClear:
		e.mu.Lock()
		e.beginApplyLocked()
		e.mu.Unlock()
		player.ClearQueue()
		e.endApplySoon()
	case ActionSyncQueue:
		go e.resolveQueue(p.Queue)
	}
}

// hookSyncState applies a full snapshot, bypassing the buffering
// barrier. Used for request_sync responses.
func (e *SyncEngine) hookSyncState(s SyncStatePayload) {
	e.applyState(s.CurrentTrack, s.IsPlaying, s.Position, s.LastUpdate)
}

// hookBufferComplete releases the buffering barrier for trackID.
// Duplicate or stale completions are no-ops.
func (e *SyncEngine) hookBufferComplete(trackID string) {
	e.completeFor(trackID)
}

// hookPeerJoined pushes the host's current playback to the room so a
// fresh guest starts in sync.
func (e *SyncEngine) hookPeerJoined() {
	e.mu.Lock()
	player := e.player
	e.mu.Unlock()
	if player == nil || !e.client.IsHost() {
		return
	}
	item, ok := player.CurrentItem()
	if !ok {
		return
	}
	pos := player.Position()
	track := item.Track
	err := e.client.SendPlaybackAction(PlaybackActionPayload{
		Action:    ActionChangeTrack,
		TrackID:   track.ID,
		TrackInfo: &track,
		Position:  &pos,
	})
	if err != nil {
		e.client.logger.Warn("initial sync not sent", map[string]any{"error": err.Error()})
		return
	}
	if queue := e.client.Room(); queue != nil && len(queue.Queue) > 0 {
		_ = e.client.SendPlaybackAction(PlaybackActionPayload{Action: ActionSyncQueue, Queue: queue.Queue})
	}
	if player.IsPlaying() {
		_ = e.client.SendPlaybackAction(PlaybackActionPayload{Action: ActionPlay, Position: &pos})
	}
}

// roomEntered runs on join approval and on session restore.
func (e *SyncEngine) roomEntered(state RoomState, asHost bool) {
	if asHost {
		e.mu.Lock()
		player := e.player
		if player != nil {
			e.lastSyncedTrackID = player.CurrentTrackID()
			e.lastSyncedPlaying = player.IsPlaying()
		}
		e.mu.Unlock()
		if player != nil && player.IsPlaying() {
			e.startHeartbeat()
		}
		return
	}
	e.applyState(state.CurrentTrack, state.IsPlaying, state.Position, state.LastUpdate)
}

// roomExited pauses local playback and abandons any in-flight work.
// Idempotent.
func (e *SyncEngine) roomExited() {
	e.stopHeartbeat()
	e.mu.Lock()
	e.gen++
	e.awaitingTrack = ""
	e.trackLoaded = false
	e.earlyComplete = ""
	e.pendingPlay = false
	e.pendingPos = nil
	if e.fallbackTimer != nil {
		e.fallbackTimer.Stop()
		e.fallbackTimer = nil
	}
	player := e.player
	if player != nil {
		e.beginApplyLocked()
	}
	e.mu.Unlock()
	if player != nil {
		if player.IsPlaying() {
			player.Pause()
		}
		e.endApplySoon()
	}
}

// syncToTrack resolves a track and loads it behind the buffering
// barrier: the player holds paused until the room's buffer_complete, or
// until the fallback timeout if the server never answers.
func (e *SyncEngine) syncToTrack(track TrackInfo, position int64, autoplay bool) {
	e.mu.Lock()
	e.gen++
	g := e.gen
	// Marked as awaiting before resolution so a play arriving while the
	// stream loads is deferred to the barrier release.
	e.awaitingTrack = track.ID
	e.trackLoaded = false
	e.earlyComplete = ""
	e.pendingPlay = autoplay
	e.pendingPos = nil
	if e.fallbackTimer != nil {
		e.fallbackTimer.Stop()
		e.fallbackTimer = nil
	}
	e.mu.Unlock()
	go e.resolveAndLoad(g, track, position)
}

func (e *SyncEngine) resolveAndLoad(g int, track TrackInfo, position int64) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	item, err := e.resolve(ctx, track)
	if err != nil {
		e.mu.Lock()
		stale := e.gen != g
		if !stale && e.awaitingTrack == track.ID {
			e.awaitingTrack = ""
			e.trackLoaded = false
			e.earlyComplete = ""
			e.pendingPlay = false
			e.pendingPos = nil
		}
		e.mu.Unlock()
		if stale {
			return
		}
		e.client.logger.Error("track resolution failed", map[string]any{"track": track.ID, "error": err.Error()})
		e.client.dispatcher.fireError(WrapError(ErrorResolve, "resolving track "+track.ID, err))
		return
	}

	e.mu.Lock()
	if e.gen != g {
		e.mu.Unlock()
		return
	}
	player := e.player
	if player == nil {
		e.mu.Unlock()
		return
	}
	e.awaitingTrack = track.ID
	e.lastSyncedTrackID = track.ID
	e.armFallbackLocked(track.ID)
	e.beginApplyLocked()
	e.mu.Unlock()

	player.SetTrack(item)
	if position > 0 {
		player.SeekTo(position)
	}
	e.endApplySoon()

	e.mu.Lock()
	early := false
	if e.gen == g && e.awaitingTrack == track.ID {
		e.trackLoaded = true
		if e.earlyComplete == track.ID {
			e.earlyComplete = ""
			early = true
		}
	}
	e.mu.Unlock()

	if err := e.client.SendBufferReady(track.ID); err != nil {
		e.client.logger.Warn("buffer ready not sent", map[string]any{"error": err.Error()})
	}
	if early {
		// The room finished buffering while this device was still
		// loading; release the barrier now that the track is in place.
		e.completeFor(track.ID)
	}
}

// resolve short-circuits when the resolver is missing but the track
// already carries enough to play (not normally the case for guests).
func (e *SyncEngine) resolve(ctx context.Context, track TrackInfo) (MediaItem, error) {
	if e.resolver == nil {
		return MediaItem{}, NewError(ErrorResolve, "no track resolver configured")
	}
	item, err := e.resolver.Resolve(ctx, track.ID)
	if err != nil {
		return MediaItem{}, err
	}
	// Prefer the host's metadata; the resolver may return bare streams.
	if item.Track.Title == "" {
		item.Track = track
	}
	return item, nil
}

// armFallbackLocked schedules barrier release in case buffer_complete
// never arrives. Called with e.mu held.
func (e *SyncEngine) armFallbackLocked(trackID string) {
	if e.fallbackTimer != nil {
		e.fallbackTimer.Stop()
	}
	timeout := e.client.cfg.BufferFallbackTimeout
	if timeout <= 0 {
		return
	}
	e.fallbackTimer = time.AfterFunc(timeout, func() {
		e.client.logger.Warn("buffer barrier timed out, resuming", map[string]any{"track": trackID})
		e.completeFor(trackID)
	})
}

// completeFor releases the barrier for trackID exactly once; both
// buffer_complete and the fallback timer funnel through here.
func (e *SyncEngine) completeFor(trackID string) {
	e.mu.Lock()
	if e.awaitingTrack != trackID {
		e.mu.Unlock()
		return
	}
	if !e.trackLoaded {
		// The room finished before the local load did. Record the
		// completion; the pending sync is applied once SetTrack lands,
		// never against the track still in the player.
		e.earlyComplete = trackID
		e.mu.Unlock()
		return
	}
	e.awaitingTrack = ""
	e.trackLoaded = false
	e.earlyComplete = ""
	if e.fallbackTimer != nil {
		e.fallbackTimer.Stop()
		e.fallbackTimer = nil
	}
	play := e.pendingPlay
	pos := e.pendingPos
	e.pendingPlay = false
	e.pendingPos = nil
	player := e.player
	host := e.client.IsHost()
	if player != nil && !host {
		e.beginApplyLocked()
	}
	e.mu.Unlock()
	if player == nil {
		return
	}
	if host {
		// The host resumes without suppression so the play broadcast
		// reaches the room.
		if play {
			player.Play()
		}
		return
	}
	if pos != nil {
		player.SeekTo(*pos)
	}
	if play {
		player.Play()
	} else if player.IsPlaying() {
		player.Pause()
	}
	e.endApplySoon()
}

// applyState drives the player to a snapshot, bypassing the barrier.
// Position is advanced by the snapshot's age when playback is running.
func (e *SyncEngine) applyState(track *TrackInfo, playing bool, position, lastUpdate int64) {
	e.mu.Lock()
	player := e.player
	e.mu.Unlock()
	if player == nil {
		return
	}
	pos := position
	if playing && lastUpdate > 0 {
		if age := e.client.nowFn().UnixMilli() - lastUpdate; age > 0 {
			pos += age
		}
	}
	if track != nil && track.ID != player.CurrentTrackID() {
		e.mu.Lock()
		e.gen++
		g := e.gen
		e.awaitingTrack = ""
		e.trackLoaded = false
		e.earlyComplete = ""
		if e.fallbackTimer != nil {
			e.fallbackTimer.Stop()
			e.fallbackTimer = nil
		}
		e.mu.Unlock()
		go e.resolveAndApply(g, *track, playing, pos)
		return
	}
	e.mu.Lock()
	e.beginApplyLocked()
	e.mu.Unlock()
	e.correctDrift(player, &pos)
	if playing && !player.IsPlaying() {
		player.Play()
	} else if !playing && player.IsPlaying() {
		player.Pause()
	}
	e.endApplySoon()
}

// resolveAndApply loads a track and starts it immediately, without the
// buffering barrier.
func (e *SyncEngine) resolveAndApply(g int, track TrackInfo, playing bool, position int64) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	item, err := e.resolve(ctx, track)
	if err != nil {
		e.mu.Lock()
		stale := e.gen != g
		e.mu.Unlock()
		if stale {
			return
		}
		e.client.logger.Error("track resolution failed", map[string]any{"track": track.ID, "error": err.Error()})
		e.client.dispatcher.fireError(WrapError(ErrorResolve, "resolving track "+track.ID, err))
		return
	}
	e.mu.Lock()
	if e.gen != g || e.player == nil {
		e.mu.Unlock()
		return
	}
	player := e.player
	e.lastSyncedTrackID = track.ID
	e.beginApplyLocked()
	e.mu.Unlock()

	player.SetTrack(item)
	if position > 0 {
		player.SeekTo(position)
	}
	if playing {
		player.Play()
	}
	e.endApplySoon()
}

func (e *SyncEngine) resolveIntoQueue(track TrackInfo, insertNext bool) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	item, err := e.resolve(ctx, track)
	if err != nil {
		e.client.logger.Warn("queued track resolution failed", map[string]any{"track": track.ID, "error": err.Error()})
		return
	}
	e.mu.Lock()
	player := e.player
	if player != nil {
		e.beginApplyLocked()
	}
	e.mu.Unlock()
	if player == nil {
		return
	}
	player.AddItem(item, insertNext)
	e.endApplySoon()
}

func (e *SyncEngine) resolveQueue(tracks []TrackInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	items := make([]MediaItem, 0, len(tracks))
	for _, t := range tracks {
		item, err := e.resolve(ctx, t)
		if err != nil {
			e.client.logger.Warn("queued track resolution failed", map[string]any{"track": t.ID, "error": err.Error()})
			continue
		}
		items = append(items, item)
	}
	e.mu.Lock()
	player := e.player
	if player != nil {
		e.beginApplyLocked()
	}
	e.mu.Unlock()
	if player == nil {
		return
	}
	player.SetQueue(items)
	e.endApplySoon()
}

// correctDrift seeks only when the player is off by more than the
// configured tolerance, so heartbeats do not cause audible stutter.
func (e *SyncEngine) correctDrift(player Player, position *int64) {
	if position == nil {
		return
	}
	diff := player.Position() - *position
	if diff < 0 {
		diff = -diff
	}
	if time.Duration(diff)*time.Millisecond > e.client.cfg.SeekTolerance {
		player.SeekTo(*position)
	}
}

// Echo suppression. beginApplyLocked raises the suppression count;
// endApplySoon lowers it after the cooldown, covering listener
// callbacks that arrive asynchronously after the player call returns.

func (e *SyncEngine) beginApplyLocked() {
	e.applying++
}

func (e *SyncEngine) endApplySoon() {
	cooldown := e.client.cfg.EchoCooldown
	if cooldown <= 0 {
		cooldown = time.Millisecond
	}
	time.AfterFunc(cooldown, func() {
		e.mu.Lock()
		if e.applying > 0 {
			e.applying--
		}
		player := e.player
		if e.applying == 0 && player != nil {
			e.lastSyncedTrackID = player.CurrentTrackID()
			e.lastSyncedPlaying = player.IsPlaying()
		}
		e.mu.Unlock()
	})
}

// Host playback heartbeat: a periodic play-with-position broadcast that
// lets guests correct drift while a track runs.

func (e *SyncEngine) startHeartbeat() {
	interval := e.client.cfg.HeartbeatInterval
	if interval <= 0 {
		return
	}
	e.mu.Lock()
	if e.hbStop != nil {
		e.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	e.hbStop = stop
	e.mu.Unlock()

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				e.heartbeatTick()
			}
		}
	}()
}

func (e *SyncEngine) stopHeartbeat() {
	e.mu.Lock()
	if e.hbStop != nil {
		close(e.hbStop)
		e.hbStop = nil
	}
	e.mu.Unlock()
}

func (e *SyncEngine) heartbeatTick() {
	e.mu.Lock()
	player := e.player
	e.mu.Unlock()
	if player == nil || !e.client.IsHost() || !player.IsPlaying() {
		return
	}
	pos := player.Position()
	if err := e.client.SendPlaybackAction(PlaybackActionPayload{Action: ActionPlay, Position: &pos}); err != nil {
		e.client.logger.Debug("heartbeat not sent", map[string]any{"error": err.Error()})
	}
}
