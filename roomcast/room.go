package roomcast

import (
	"context"
	"strings"
	"time"

	"github.com/coder/websocket"
)

// handleIncoming decodes one frame and applies it to the room state
// machine. State moves under the client lock; callbacks fire after the
// lock is released so handlers can call back into the client freely.
func (c *Client) handleIncoming(data []byte) {
	msg, err := decodeMessage(data)
	if err != nil {
		c.logger.Warn("dropping malformed frame", map[string]any{"error": err.Error()})
		return
	}
	c.mu.Lock()
	fires := c.apply(msg)
	c.mu.Unlock()
	for _, fire := range fires {
		fire()
	}
}

// apply mutates room state for one server message and returns the
// callbacks to fire. Called with c.mu held. Payloads that fail to
// decode drop the whole message.
func (c *Client) apply(msg Message) []func() {
	switch msg.Type {
	case msgRoomCreated:
		var p roomCreatedPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applyRoomCreated(p)
	case msgJoinRequest:
		var p JoinRequest
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applyJoinRequest(p)
	case msgJoinApproved:
		var p joinApprovedPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applyJoinApproved(p)
	case msgJoinRejected:
		var p joinRejectedPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		c.pending = nil
		return []func(){func() { c.dispatcher.fireJoinRejected(JoinRejectedEvent{Reason: p.Reason}) }}
	case msgUserJoined:
		var p userJoinedPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applyUserJoined(p)
	case msgUserLeft:
		var p userLeftPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applyUserLeft(p)
	case msgHostChanged:
		var p hostChangedPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applyHostChanged(p)
	case msgKicked:
		var p kickedPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applyKicked(p)
	case msgSyncPlayback:
		var p PlaybackActionPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applySyncPlayback(p)
	case msgBufferWait:
		var p bufferWaitPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		c.bufferingUsers = append([]string(nil), p.WaitingFor...)
		return []func(){func() {
			c.dispatcher.fireBufferWait(BufferWaitEvent{TrackID: p.TrackID, WaitingFor: p.WaitingFor})
		}}
	case msgBufferComplete:
		var p bufferCompletePayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		c.bufferingUsers = nil
		eng := c.engine
		return []func(){func() {
			if eng != nil {
				eng.hookBufferComplete(p.TrackID)
			}
			c.dispatcher.fireBufferComplete(BufferCompleteEvent{TrackID: p.TrackID})
		}}
	case msgSyncState:
		var p SyncStatePayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applySyncState(p)
	case msgChatMessage:
		var p chatMessagePayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return []func(){func() {
			c.dispatcher.fireChat(ChatEvent{UserID: p.UserID, Username: p.Username, Message: p.Message, Timestamp: p.Timestamp})
		}}
	case msgSuggestionReceived:
		var p Suggestion
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applySuggestionReceived(p)
	case msgSuggestionApproved:
		var p suggestionApprovedPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		track := p.TrackInfo
		return c.applySuggestionResolved(SuggestionResolvedEvent{
			SuggestionID: p.SuggestionID,
			Approved:     true,
			TrackInfo:    &track,
		})
	case msgSuggestionRejected:
		var p suggestionRejectedPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applySuggestionResolved(SuggestionResolvedEvent{
			SuggestionID: p.SuggestionID,
			Approved:     false,
			Reason:       p.Reason,
		})
	case msgError:
		var p errorPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applyServerError(p)
	case msgPong:
		return nil
	case msgReconnected:
		var p reconnectedPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		return c.applyReconnected(p)
	case msgUserReconnected:
		var p userReconnectedPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		c.setUserConnected(p.UserID, true)
		return []func(){func() {
			c.dispatcher.fireUserReconnected(UserEvent{UserID: p.UserID, Username: p.Username})
		}}
	case msgUserDisconnected:
		var p userDisconnectedPayload
		if !c.decodeOrDrop(msg, &p) {
			return nil
		}
		c.setUserConnected(p.UserID, false)
		return []func(){func() {
			c.dispatcher.fireUserDisconnected(UserEvent{UserID: p.UserID, Username: p.Username})
		}}
	default:
		c.logger.Debug("unhandled message type", map[string]any{"type": msg.Type})
		return nil
	}
}

func (c *Client) decodeOrDrop(msg Message, v any) bool {
	if err := decodePayload(msg, v); err != nil {
		c.logger.Warn("dropping message with bad payload", map[string]any{
			"type":  msg.Type,
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (c *Client) applyRoomCreated(p roomCreatedPayload) []func() {
	c.role = RoleHost
	c.userID = p.UserID
	c.room = &RoomState{
		RoomCode: p.RoomCode,
		HostID:   p.UserID,
		Users: []UserInfo{{
			UserID:      p.UserID,
			Username:    c.storedUsername,
			IsHost:      true,
			IsConnected: true,
		}},
	}
	s := Session{
		Token:     p.SessionToken,
		RoomCode:  p.RoomCode,
		UserID:    p.UserID,
		IsHost:    true,
		StartedAt: c.nowFn(),
	}
	c.session = &s
	c.logger.Info("room created", map[string]any{"room": p.RoomCode})
	return []func(){func() {
		c.persistSessionAsync(s)
		c.wake.Acquire(c.cfg.WakeLockLease)
		c.dispatcher.fireRoomCreated(RoomCreatedEvent{RoomCode: p.RoomCode, UserID: p.UserID})
	}}
}

func (c *Client) applyJoinRequest(p JoinRequest) []func() {
	if c.role != RoleHost {
		c.logger.Warn("join request received while not host", map[string]any{"user": p.UserID})
		return nil
	}
	for _, jr := range c.pendingJoins {
		if jr.UserID == p.UserID {
			return nil
		}
	}
	c.pendingJoins = append(c.pendingJoins, p)
	return []func(){func() {
		c.notifier.ShowJoinRequest(p.UserID, p.Username,
			func() { _ = c.ApproveJoin(p.UserID) },
			func() { _ = c.RejectJoin(p.UserID, "") },
		)
		c.dispatcher.fireJoinRequest(JoinRequestEvent{UserID: p.UserID, Username: p.Username})
	}}
}

func (c *Client) applyJoinApproved(p joinApprovedPayload) []func() {
	c.role = RoleGuest
	c.userID = p.UserID
	state := p.State
	c.room = state.clone()
	s := Session{
		Token:     p.SessionToken,
		RoomCode:  p.RoomCode,
		UserID:    p.UserID,
		IsHost:    false,
		StartedAt: c.nowFn(),
	}
	c.session = &s
	eng := c.engine
	c.logger.Info("joined room", map[string]any{"room": p.RoomCode})
	return []func(){func() {
		c.persistSessionAsync(s)
		c.wake.Acquire(c.cfg.WakeLockLease)
		if eng != nil {
			eng.roomEntered(state, false)
		}
		c.dispatcher.fireJoinApproved(JoinApprovedEvent{RoomCode: p.RoomCode, UserID: p.UserID, State: state})
	}}
}

func (c *Client) applyUserJoined(p userJoinedPayload) []func() {
	if c.room == nil {
		return nil
	}
	found := false
	for i := range c.room.Users {
		if c.room.Users[i].UserID == p.UserID {
			c.room.Users[i].IsConnected = true
			c.room.Users[i].Username = p.Username
			found = true
			break
		}
	}
	if !found {
		c.room.Users = append(c.room.Users, UserInfo{
			UserID:      p.UserID,
			Username:    p.Username,
			IsConnected: true,
		})
	}
	for i, jr := range c.pendingJoins {
		if jr.UserID == p.UserID {
			c.pendingJoins = append(c.pendingJoins[:i], c.pendingJoins[i+1:]...)
			break
		}
	}
	host := c.role == RoleHost
	eng := c.engine
	return []func(){func() {
		c.notifier.Dismiss(p.UserID)
		c.dispatcher.fireUserJoined(UserEvent{UserID: p.UserID, Username: p.Username})
		// New guests start from nothing; the host pushes the current
		// playback state so they catch up immediately.
		if host && eng != nil {
			eng.hookPeerJoined()
		}
	}}
}

func (c *Client) applyUserLeft(p userLeftPayload) []func() {
	if c.room == nil {
		return nil
	}
	for i := range c.room.Users {
		if c.room.Users[i].UserID == p.UserID {
			c.room.Users = append(c.room.Users[:i], c.room.Users[i+1:]...)
			break
		}
	}
	for i, id := range c.bufferingUsers {
		if id == p.UserID {
			c.bufferingUsers = append(c.bufferingUsers[:i], c.bufferingUsers[i+1:]...)
			break
		}
	}
	return []func(){func() {
		c.dispatcher.fireUserLeft(UserEvent{UserID: p.UserID, Username: p.Username})
	}}
}

func (c *Client) applyHostChanged(p hostChangedPayload) []func() {
	if c.room == nil {
		return nil
	}
	known := false
	for i := range c.room.Users {
		if c.room.Users[i].UserID == p.NewHostID {
			known = true
			break
		}
	}
	if !known {
		c.logger.Warn("host change names unknown user, ignoring", map[string]any{"user": p.NewHostID})
		return nil
	}
	c.room.HostID = p.NewHostID
	for i := range c.room.Users {
		c.room.Users[i].IsHost = c.room.Users[i].UserID == p.NewHostID
	}
	fires := []func(){}
	if p.NewHostID == c.userID && c.role != RoleHost {
		c.role = RoleHost
		if c.session != nil {
			c.session.IsHost = true
			s := *c.session
			fires = append(fires, func() { c.persistSessionAsync(s) })
		}
		c.logger.Info("promoted to host", nil)
	} else if p.NewHostID != c.userID && c.role == RoleHost {
		c.role = RoleGuest
		if c.session != nil {
			c.session.IsHost = false
			s := *c.session
			fires = append(fires, func() { c.persistSessionAsync(s) })
		}
	}
	return append(fires, func() {
		c.dispatcher.fireHostChanged(HostChangedEvent{NewHostID: p.NewHostID, NewHostName: p.NewHostName})
	})
}

func (c *Client) applyKicked(p kickedPayload) []func() {
	c.room = nil
	c.role = RoleNone
	c.userID = ""
	c.session = nil
	c.pending = nil
	c.storedUsername = ""
	c.pendingJoins = nil
	c.pendingSuggestions = nil
	c.bufferingUsers = nil
	conn := c.conn
	eng := c.engine
	c.logger.Info("kicked from room", map[string]any{"reason": p.Reason})
	return []func(){func() {
		if eng != nil {
			eng.roomExited()
		}
		c.wake.Release()
		c.clearPersistedSessionAsync()
		c.dispatcher.fireKicked(KickedEvent{Reason: p.Reason})
		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "kicked")
		}
	}}
}

func (c *Client) applySyncPlayback(p PlaybackActionPayload) []func() {
	if c.room == nil {
		return nil
	}
	if c.role == RoleHost {
		// Hosts drive playback; a relayed command coming back is an echo.
		c.logger.Debug("ignoring playback sync while host", map[string]any{"action": p.Action})
		return nil
	}
	c.mutateRoomForAction(p)
	eng := c.engine
	return []func(){func() {
		if eng != nil {
			eng.hookPlaybackSync(p)
		}
		c.dispatcher.firePlaybackSync(PlaybackSyncEvent{Action: p})
	}}
}

// mutateRoomForAction folds one playback command into the room
// snapshot. Called with c.mu held; used for received commands on
// guests and for the host's own broadcasts.
func (c *Client) mutateRoomForAction(p PlaybackActionPayload) {
	now := c.nowFn().UnixMilli()
	switch p.Action {
	case ActionPlay:
		c.room.IsPlaying = true
		if p.Position != nil {
			c.room.Position = *p.Position
		}
	case ActionPause:
		c.room.IsPlaying = false
		if p.Position != nil {
			c.room.Position = *p.Position
		}
	case ActionSeek:
		if p.Position != nil {
			c.room.Position = *p.Position
		}
	case ActionChangeTrack, ActionSkipNext, ActionSkipPrev:
		if p.TrackInfo != nil {
			track := *p.TrackInfo
			c.room.CurrentTrack = &track
		}
		c.room.Position = 0
		if p.Position != nil {
			c.room.Position = *p.Position
		}
	case ActionQueueAdd:
		if p.TrackInfo != nil {
			c.queueAdd(*p.TrackInfo, p.InsertNext)
		}
	case ActionQueueRemove:
		c.queueRemove(p.TrackID)
	case ActionQueueClear:
		c.room.Queue = nil
	case ActionSyncQueue:
		c.room.Queue = append([]TrackInfo(nil), p.Queue...)
	default:
		c.logger.Debug("unknown playback action", map[string]any{"action": p.Action})
	}
	c.room.LastUpdate = now
}

func (c *Client) queueAdd(track TrackInfo, insertNext bool) {
	if insertNext && c.room.CurrentTrack != nil {
		for i := range c.room.Queue {
			if c.room.Queue[i].ID == c.room.CurrentTrack.ID {
				rest := append([]TrackInfo{track}, c.room.Queue[i+1:]...)
				c.room.Queue = append(c.room.Queue[:i+1], rest...)
				return
			}
		}
	}
	c.room.Queue = append(c.room.Queue, track)
}

func (c *Client) queueRemove(trackID string) {
	for i := range c.room.Queue {
		if c.room.Queue[i].ID == trackID {
			c.room.Queue = append(c.room.Queue[:i], c.room.Queue[i+1:]...)
			return
		}
	}
}

func (c *Client) applySyncState(p SyncStatePayload) []func() {
	if c.room == nil {
		return nil
	}
	if p.CurrentTrack != nil {
		track := *p.CurrentTrack
		c.room.CurrentTrack = &track
	}
	c.room.IsPlaying = p.IsPlaying
	c.room.Position = p.Position
	c.room.LastUpdate = p.LastUpdate
	if p.Queue != nil {
		c.room.Queue = append([]TrackInfo(nil), p.Queue...)
	}
	guest := c.role == RoleGuest
	eng := c.engine
	return []func(){func() {
		if guest && eng != nil {
			eng.hookSyncState(p)
		}
		c.dispatcher.fireSyncState(SyncStateEvent{State: p})
	}}
}

func (c *Client) applySuggestionReceived(p Suggestion) []func() {
	if c.role != RoleHost {
		c.logger.Warn("suggestion received while not host", map[string]any{"suggestion": p.SuggestionID})
		return nil
	}
	for _, s := range c.pendingSuggestions {
		if s.SuggestionID == p.SuggestionID {
			return nil
		}
	}
	c.pendingSuggestions = append(c.pendingSuggestions, p)
	return []func(){func() {
		c.notifier.ShowSuggestion(p.SuggestionID, p.FromUsername, p.TrackInfo,
			func() { _ = c.ApproveSuggestion(p.SuggestionID) },
			func() { _ = c.RejectSuggestion(p.SuggestionID, "") },
		)
		c.dispatcher.fireSuggestion(SuggestionEvent{Suggestion: p})
	}}
}

func (c *Client) applySuggestionResolved(ev SuggestionResolvedEvent) []func() {
	for i, s := range c.pendingSuggestions {
		if s.SuggestionID == ev.SuggestionID {
			c.pendingSuggestions = append(c.pendingSuggestions[:i], c.pendingSuggestions[i+1:]...)
			break
		}
	}
	return []func(){func() {
		c.notifier.Dismiss(ev.SuggestionID)
		c.dispatcher.fireSuggestionResolved(ev)
	}}
}

// applyServerError handles protocol errors. A dead session token clears
// the persisted session; a guest who still knows the room code and
// username rejoins through the normal approval flow.
func (c *Client) applyServerError(p errorPayload) []func() {
	code := ParseErrorCode(p.Code)
	c.logger.Warn("server error", map[string]any{"code": p.Code, "message": p.Message})

	fires := []func(){func() {
		c.dispatcher.fireServerError(ServerErrorEvent{Code: p.Code, Message: p.Message})
	}}

	if code != ErrorSessionNotFound {
		return fires
	}

	var roomCode, username string
	wasHost := false
	if c.session != nil {
		roomCode = c.session.RoomCode
		wasHost = c.session.IsHost
	}
	username = c.storedUsername
	c.session = nil
	c.room = nil
	c.role = RoleNone
	c.userID = ""

	fires = append(fires, func() { c.clearPersistedSessionAsync() })

	if !wasHost && roomCode != "" && username != "" {
		if c.rejoinTimer != nil {
			c.rejoinTimer.Stop()
		}
		c.rejoinTimer = time.AfterFunc(500*time.Millisecond, func() {
			c.logger.Info("session expired, rejoining room", map[string]any{"room": roomCode})
			if err := c.JoinRoom(roomCode, username); err != nil {
				c.dispatcher.fireError(err)
			}
		})
	}
	return fires
}

func (c *Client) applyReconnected(p reconnectedPayload) []func() {
	if p.IsHost {
		c.role = RoleHost
	} else {
		c.role = RoleGuest
	}
	c.userID = p.UserID
	state := p.State
	c.room = state.clone()
	c.bufferingUsers = nil
	var persist *Session
	if c.session != nil {
		c.session.RoomCode = p.RoomCode
		c.session.IsHost = p.IsHost
		// A successful reconnect restarts the grace window.
		c.session.StartedAt = c.nowFn()
		snap := *c.session
		persist = &snap
	}
	eng := c.engine
	c.logger.Info("session restored", map[string]any{"room": p.RoomCode, "host": p.IsHost})
	return []func(){func() {
		if persist != nil {
			c.persistSessionAsync(*persist)
		}
		c.wake.Acquire(c.cfg.WakeLockLease)
		if eng != nil {
			eng.roomEntered(state, p.IsHost)
		}
		c.dispatcher.fireReconnected(ReconnectedEvent{
			RoomCode: p.RoomCode,
			UserID:   p.UserID,
			State:    state,
			IsHost:   p.IsHost,
		})
	}}
}

func (c *Client) setUserConnected(userID string, connected bool) {
	if c.room == nil {
		return
	}
	for i := range c.room.Users {
		if c.room.Users[i].UserID == userID {
			c.room.Users[i].IsConnected = connected
			return
		}
	}
}

// Outbound operations.

// CreateRoom asks the server for a new room with the local user as
// host. When offline the request is captured and replayed once the
// connection opens; a dial is kicked off if needed.
func (c *Client) CreateRoom(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return NewError(ErrorInvalidMessage, "username required")
	}
	c.mu.Lock()
	c.storedUsername = username
	connected := c.state == StateConnected
	if !connected {
		c.pending = &pendingAction{join: false, username: username}
	}
	c.mu.Unlock()

	c.saveUsernameAsync(username)
	if connected {
		return c.send(msgCreateRoom, createRoomPayload{Username: username})
	}
	go func() { _ = c.Connect(context.Background()) }()
	return nil
}

// JoinRoom asks to join an existing room. Room codes are
// case-insensitive on the wire; uppercase is canonical.
func (c *Client) JoinRoom(roomCode, username string) error {
	roomCode = strings.ToUpper(strings.TrimSpace(roomCode))
	username = strings.TrimSpace(username)
	if roomCode == "" || username == "" {
		return NewError(ErrorInvalidMessage, "room code and username required")
	}
	c.mu.Lock()
	c.storedUsername = username
	connected := c.state == StateConnected
	if !connected {
		c.pending = &pendingAction{join: true, roomCode: roomCode, username: username}
	}
	c.mu.Unlock()

	c.saveUsernameAsync(username)
	if connected {
		return c.send(msgJoinRoom, joinRoomPayload{RoomCode: roomCode, Username: username})
	}
	go func() { _ = c.Connect(context.Background()) }()
	return nil
}

func (c *Client) saveUsernameAsync(username string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.SaveUsername(ctx, username); err != nil {
			c.logger.Warn("saving username failed", map[string]any{"error": err.Error()})
		}
	}()
}

// LeaveRoom exits the current room. The connection stays open so the
// user can create or join another room immediately.
func (c *Client) LeaveRoom() error {
	c.mu.Lock()
	inRoom := c.room != nil
	eng := c.engine
	c.room = nil
	c.role = RoleNone
	c.userID = ""
	c.session = nil
	c.pending = nil
	c.pendingJoins = nil
	c.pendingSuggestions = nil
	c.bufferingUsers = nil
	c.stopTimersLocked()
	c.mu.Unlock()

	if !inRoom {
		return NewError(ErrorNotInRoom, "not in a room")
	}
	if eng != nil {
		eng.roomExited()
	}
	c.wake.Release()
	c.clearPersistedSessionAsync()
	if err := c.send(msgLeaveRoom, nil); err != nil {
		c.logger.Warn("leave notification not sent", map[string]any{"error": err.Error()})
	}
	c.logger.Info("left room", nil)
	return nil
}

// ApproveJoin admits a pending user. Host only.
func (c *Client) ApproveJoin(userID string) error {
	if err := c.requireHost(); err != nil {
		return err
	}
	c.dropPendingJoin(userID)
	c.notifier.Dismiss(userID)
	return c.send(msgApproveJoin, approveJoinPayload{UserID: userID})
}

// RejectJoin declines a pending user. Host only.
func (c *Client) RejectJoin(userID, reason string) error {
	if err := c.requireHost(); err != nil {
		return err
	}
	c.dropPendingJoin(userID)
	c.notifier.Dismiss(userID)
	return c.send(msgRejectJoin, rejectJoinPayload{UserID: userID, Reason: reason})
}

func (c *Client) dropPendingJoin(userID string) {
	c.mu.Lock()
	for i, jr := range c.pendingJoins {
		if jr.UserID == userID {
			c.pendingJoins = append(c.pendingJoins[:i], c.pendingJoins[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

// KickUser removes a member from the room. Host only.
func (c *Client) KickUser(userID, reason string) error {
	if err := c.requireHost(); err != nil {
		return err
	}
	return c.send(msgKickUser, kickUserPayload{UserID: userID, Reason: reason})
}

// SendPlaybackAction broadcasts a playback command to the room. Host
// only; guests express intent through suggestions instead.
func (c *Client) SendPlaybackAction(p PlaybackActionPayload) error {
	if err := c.requireHost(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.room != nil {
		c.mutateRoomForAction(p)
	}
	c.mu.Unlock()
	return c.send(msgPlaybackAction, p)
}

// SendBufferReady tells the server the local player finished loading
// the given track.
func (c *Client) SendBufferReady(trackID string) error {
	if err := c.requireRoom(); err != nil {
		return err
	}
	return c.send(msgBufferReady, bufferReadyPayload{TrackID: trackID})
}

// SendChat posts a chat message to the room.
func (c *Client) SendChat(message string) error {
	if err := c.requireRoom(); err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return NewError(ErrorInvalidMessage, "empty chat message")
	}
	return c.send(msgChat, chatPayload{Message: message})
}

// SuggestTrack asks the host to queue a track. Guest only; the host
// queues tracks directly through SendPlaybackAction.
func (c *Client) SuggestTrack(track TrackInfo) error {
	if err := c.requireGuest(); err != nil {
		return err
	}
	return c.send(msgSuggestTrack, suggestTrackPayload{TrackInfo: track})
}

// ApproveSuggestion accepts a guest's suggestion. Host only. The
// caller decides what to do with the track (queue it, play it).
func (c *Client) ApproveSuggestion(suggestionID string) error {
	if err := c.requireHost(); err != nil {
		return err
	}
	return c.send(msgApproveSuggestion, approveSuggestionPayload{SuggestionID: suggestionID})
}

// RejectSuggestion declines a guest's suggestion. Host only.
func (c *Client) RejectSuggestion(suggestionID, reason string) error {
	if err := c.requireHost(); err != nil {
		return err
	}
	return c.send(msgRejectSuggestion, rejectSuggestionPayload{SuggestionID: suggestionID, Reason: reason})
}

// RequestSync asks the server for a full playback state snapshot.
func (c *Client) RequestSync() error {
	if err := c.requireRoom(); err != nil {
		return err
	}
	return c.send(msgRequestSync, nil)
}

func (c *Client) requireHost() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return NewError(ErrorNotInRoom, "not in a room")
	}
	if c.role != RoleHost {
		return NewError(ErrorNotHost, "host privileges required")
	}
	return nil
}

func (c *Client) requireGuest() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return NewError(ErrorNotInRoom, "not in a room")
	}
	if c.role == RoleHost {
		return NewError(ErrorNotGuest, "guest privileges required")
	}
	return nil
}

func (c *Client) requireRoom() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return NewError(ErrorNotInRoom, "not in a room")
	}
	return nil
}
