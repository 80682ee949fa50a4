package roomcast

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/roomcast/roomcast-sdk-go/roomcast/internal"

	"github.com/coder/websocket"
)

// wire is the transport surface the client drives. Satisfied by
// internal.Conn; tests substitute their own.
type wire interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// pendingAction is a create/join request captured while offline and
// replayed once connected. At most one is held; the most recent wins.
type pendingAction struct {
	join     bool
	roomCode string
	username string
}

// Client owns the relay connection, the session, and the room state
// machine. Construct one per app with NewClient and share it by
// reference; there is no ambient singleton.
type Client struct {
	cfg        Config
	logger     Logger
	store      Store
	notifier   NotificationSink
	wake       WakeLock
	dispatcher Dispatcher

	dialFn   func(ctx context.Context, rawURL string) (wire, error)
	nowFn    func() time.Time
	jitterFn func() float64

	mu         sync.Mutex
	state      ConnectionState
	conn       wire
	connCancel context.CancelFunc
	writeCh    chan []byte
	closed     bool

	session        *Session
	storedUsername string
	pending        *pendingAction
	attempts       int
	reconnectTimer *time.Timer
	rejoinTimer    *time.Timer

	role               Role
	room               *RoomState
	userID             string
	pendingJoins       []JoinRequest
	pendingSuggestions []Suggestion
	bufferingUsers     []string

	engine *SyncEngine
}

// NewClient constructs a client with the provided config. Use
// DefaultConfig() as a starting point and modify as needed.
func NewClient(cfg Config) *Client {
	c := &Client{
		cfg:      cfg,
		logger:   noopLogger{},
		store:    NewMemStore(),
		notifier: noopNotifier{},
		wake:     noopWakeLock{},
		nowFn:    time.Now,
		jitterFn: defaultJitter,
	}
	c.dialFn = func(ctx context.Context, rawURL string) (wire, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		ws, _, err := websocket.Dial(ctx, u.String(), nil)
		if err != nil {
			return nil, err
		}
		return internal.NewConn(ws, cfg.ReadTimeout, cfg.WriteTimeout), nil
	}
	return c
}

// SetLogger overrides the logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l != nil {
		c.logger = l
	}
}

// SetStore overrides the persistence store. Defaults to an in-memory
// store, which does not survive process restarts.
func (c *Client) SetStore(s Store) {
	if s != nil {
		c.store = s
	}
}

// SetNotificationSink overrides the notification sink (optional).
func (c *Client) SetNotificationSink(n NotificationSink) {
	if n != nil {
		c.notifier = n
	}
}

// SetWakeLock overrides the wake lock (optional).
func (c *Client) SetWakeLock(w WakeLock) {
	if w != nil {
		c.wake = w
	}
}

func (c *Client) setEngine(e *SyncEngine) {
	c.mu.Lock()
	c.engine = e
	c.mu.Unlock()
}

// Connect dials the relay server. A no-op when already connected or
// connecting. If a session within the grace period is held, a
// reconnect message is sent on open; otherwise any pending create/join
// action is replayed.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return NewError(ErrorDisconnected, "client closed")
	}
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		c.logger.Warn("already connected or connecting", nil)
		return nil
	}
	old := c.state
	c.state = StateConnecting
	c.mu.Unlock()
	c.dispatcher.fireStateChanged(StateEvent{OldState: old, NewState: StateConnecting})
	return c.dial(ctx)
}

func (c *Client) dial(ctx context.Context) error {
	rawURL := c.serverURL(ctx)
	c.logger.Info("connecting to server", map[string]any{"url": rawURL})

	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	w, err := c.dialFn(dialCtx, rawURL)
	if err != nil {
		c.logger.Error("dial failed", map[string]any{"error": err.Error()})
		c.handleDialFailure(err)
		return WrapError(ErrorConnection, "dial "+rawURL, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.conn = w
	c.connCancel = cancel
	c.writeCh = make(chan []byte, 32)
	c.attempts = 0
	old := c.state
	c.state = StateConnected

	var onOpenType string
	var onOpenPayload any
	if c.session != nil {
		onOpenType = msgReconnect
		onOpenPayload = reconnectPayload{SessionToken: c.session.Token}
		c.logger.Info("resuming previous session", map[string]any{"room": c.session.RoomCode})
	} else if c.pending != nil {
		pa := *c.pending
		c.pending = nil
		if pa.join {
			onOpenType = msgJoinRoom
			onOpenPayload = joinRoomPayload{RoomCode: pa.roomCode, Username: pa.username}
		} else {
			onOpenType = msgCreateRoom
			onOpenPayload = createRoomPayload{Username: pa.username}
		}
	}
	c.mu.Unlock()

	c.dispatcher.fireStateChanged(StateEvent{OldState: old, NewState: StateConnected})

	go c.readLoop(runCtx, w)
	go c.writeLoop(runCtx, w)
	go c.keepalive(runCtx)

	if onOpenType != "" {
		if err := c.send(onOpenType, onOpenPayload); err != nil {
			c.logger.Warn("on-open send failed", map[string]any{"type": onOpenType, "error": err.Error()})
		}
	}
	return nil
}

// serverURL prefers a persisted override, then the configured URL, then
// the default relay endpoint.
func (c *Client) serverURL(ctx context.Context) string {
	if override, ok, err := c.store.Get(ctx, KeyServerURL); err == nil && ok && override != "" {
		return override
	}
	if c.cfg.URL != "" {
		return c.cfg.URL
	}
	return DefaultServerURL
}

// SetServerURL persists a relay URL override. An empty URL removes the
// override.
func (c *Client) SetServerURL(ctx context.Context, rawURL string) error {
	if rawURL == "" {
		return c.store.Delete(ctx, KeyServerURL)
	}
	if _, err := url.Parse(rawURL); err != nil {
		return WrapError(ErrorInvalidMessage, "invalid server url", err)
	}
	return c.store.Set(ctx, KeyServerURL, rawURL)
}

// Disconnect tears everything down: socket, session, persisted state,
// room membership, and any scheduled reconnect. The client is done
// after this; construct a new one to connect again.
func (c *Client) Disconnect() {
	c.mu.Lock()
	eng := c.engine
	c.mu.Unlock()
	if eng != nil {
		eng.roomExited()
	}

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	c.stopTimersLocked()
	c.session = nil
	c.storedUsername = ""
	c.pending = nil
	c.room = nil
	c.role = RoleNone
	c.userID = ""
	c.pendingJoins = nil
	c.pendingSuggestions = nil
	c.bufferingUsers = nil
	c.attempts = 0
	c.closed = true
	old := c.state
	c.state = StateDisconnected
	c.mu.Unlock()

	c.wake.Release()
	c.clearPersistedSessionAsync()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	if old != StateDisconnected {
		c.dispatcher.fireStateChanged(StateEvent{OldState: old, NewState: StateDisconnected})
	}
	c.dispatcher.fireDisconnected()
	c.logger.Info("disconnected from server", nil)
}

// ForceReconnect closes the current socket with a benign code, resets
// the backoff counter, and reconnects after a short fixed delay.
func (c *Client) ForceReconnect() {
	c.logger.Info("forcing reconnection", nil)
	c.mu.Lock()
	c.attempts = 0
	conn := c.conn
	c.conn = nil
	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	c.stopTimersLocked()
	old := c.state
	c.state = StateDisconnected
	c.reconnectTimer = time.AfterFunc(500*time.Millisecond, c.reconnectNow)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "forcing reconnection")
	}
	if old != StateDisconnected {
		c.dispatcher.fireStateChanged(StateEvent{OldState: old, NewState: StateDisconnected})
	}
}

// stopTimersLocked cancels any scheduled reconnect or rejoin. Safe to
// call repeatedly.
func (c *Client) stopTimersLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.rejoinTimer != nil {
		c.rejoinTimer.Stop()
		c.rejoinTimer = nil
	}
}

func (c *Client) reconnectNow() {
	c.mu.Lock()
	if c.closed || c.conn != nil || (c.state != StateReconnecting && c.state != StateDisconnected) {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	_ = c.dial(context.Background())
}

// handleDialFailure decides between scheduling a retry and giving up,
// mirroring the socket-close policy.
func (c *Client) handleDialFailure(err error) {
	c.mu.Lock()
	basis := c.session != nil || c.room != nil || c.pending != nil
	c.mu.Unlock()
	if basis {
		c.scheduleReconnect(err)
		return
	}
	c.setState(StateDisconnected, err)
}

// handleSocketClosed runs when the read or write loop exits for a
// connection. The wire identity check makes teardown idempotent when
// both loops fail at once or the close was intentional.
func (c *Client) handleSocketClosed(w wire, cause error) {
	c.mu.Lock()
	if c.conn != w || c.conn == nil {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	c.pendingJoins = nil
	c.bufferingUsers = nil
	basis := c.session != nil || c.room != nil || c.pending != nil
	c.mu.Unlock()

	if basis {
		c.logger.Info("connection lost, will attempt to reconnect", nil)
		c.scheduleReconnect(cause)
		return
	}
	c.setState(StateDisconnected, cause)
	c.dispatcher.fireDisconnected()
}

// scheduleReconnect applies the backoff policy. After the attempt
// budget is spent the state becomes Error; a held session survives so
// the user can retry manually, otherwise all local room state is
// cleared.
func (c *Client) scheduleReconnect(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.attempts < c.cfg.MaxReconnectAttempts {
		c.attempts++
		attempt := c.attempts
		delay := backoffDelay(attempt, c.cfg.InitialReconnectDelay, c.cfg.MaxReconnectDelay, c.jitterFn)
		old := c.state
		c.state = StateReconnecting
		if c.reconnectTimer != nil {
			c.reconnectTimer.Stop()
		}
		c.reconnectTimer = time.AfterFunc(delay, c.reconnectNow)
		c.mu.Unlock()

		c.logger.Info("scheduling reconnect", map[string]any{
			"attempt": attempt,
			"max":     c.cfg.MaxReconnectAttempts,
			"delay":   delay.String(),
		})
		if old != StateReconnecting {
			c.dispatcher.fireStateChanged(StateEvent{OldState: old, NewState: StateReconnecting, Error: cause})
		}
		c.dispatcher.fireReconnecting(ReconnectingEvent{Attempt: attempt, MaxAttempts: c.cfg.MaxReconnectAttempts})
		return
	}

	sessionHeld := c.session != nil
	if !sessionHeld {
		c.room = nil
		c.role = RoleNone
		c.userID = ""
		c.pending = nil
		c.storedUsername = ""
	}
	old := c.state
	c.state = StateError
	c.mu.Unlock()

	if sessionHeld {
		c.logger.Error("reconnection failed, session preserved for manual retry", nil)
	} else {
		c.logger.Error("reconnection failed", nil)
		c.clearPersistedSessionAsync()
	}
	c.dispatcher.fireStateChanged(StateEvent{OldState: old, NewState: StateError, Error: cause})
	c.dispatcher.fireError(WrapError(ErrorReconnectExhausted, "reconnection gave up", cause))
}

func (c *Client) setState(s ConnectionState, cause error) {
	c.mu.Lock()
	old := c.state
	if old == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()
	c.dispatcher.fireStateChanged(StateEvent{OldState: old, NewState: s, Error: cause})
}

func (c *Client) readLoop(ctx context.Context, w wire) {
	for {
		data, err := w.Read(ctx)
		if err != nil {
			if isExpectedDisconnect(ctx, err) {
				c.handleSocketClosed(w, nil)
				return
			}
			c.logger.Warn("read loop exit", map[string]any{"error": err.Error()})
			c.handleSocketClosed(w, err)
			return
		}
		c.handleIncoming(data)
	}
}

func (c *Client) writeLoop(ctx context.Context, w wire) {
	c.mu.Lock()
	ch := c.writeCh
	c.mu.Unlock()
	for {
		select {
		case data := <-ch:
			if err := w.Write(ctx, data); err != nil {
				c.logger.Warn("write loop exit", map[string]any{"error": err.Error()})
				c.handleSocketClosed(w, err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// keepalive pings the server on a fixed cadence for as long as the
// connection lives. This is the protocol ping; the host playback
// heartbeat is the sync engine's concern.
func (c *Client) keepalive(ctx context.Context) {
	if c.cfg.PingInterval <= 0 {
		return
	}
	t := time.NewTicker(c.cfg.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := c.send(msgPing, nil); err != nil {
				return
			}
		}
	}
}

// send encodes and queues one frame. Fails fast when not connected;
// only create/join requests are captured for replay, and that happens
// in their own entry points.
func (c *Client) send(typ string, payload any) error {
	data, err := encodeMessage(typ, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	connected := c.state == StateConnected && c.writeCh != nil
	ch := c.writeCh
	c.mu.Unlock()
	if !connected {
		return NewError(ErrorNotConnected, "not connected")
	}
	select {
	case ch <- data:
		return nil
	default:
		c.logger.Warn("write buffer full, dropping frame", map[string]any{"type": typ})
		return NewError(ErrorTimeout, "write buffer full")
	}
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the socket is open and ready.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Role returns the local device's current room role.
func (c *Client) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// IsHost reports whether the local device currently drives playback.
func (c *Client) IsHost() bool {
	return c.Role() == RoleHost
}

// InRoom reports whether the local device is a room member.
func (c *Client) InRoom() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room != nil
}

// Room returns a copy of the current room state, or nil when not in a
// room.
func (c *Client) Room() *RoomState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room.clone()
}

// UserID returns the server-assigned id for the local user.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// PendingJoinRequests returns the host's open join requests.
func (c *Client) PendingJoinRequests() []JoinRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]JoinRequest(nil), c.pendingJoins...)
}

// PendingSuggestions returns the host's open track suggestions.
func (c *Client) PendingSuggestions() []Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Suggestion(nil), c.pendingSuggestions...)
}

// BufferingUsers returns the peers still buffering the current track.
func (c *Client) BufferingUsers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.bufferingUsers...)
}

// Callback registration, one per event type.

func (c *Client) OnStateChanged(fn func(StateEvent)) { c.dispatcher.SetOnStateChanged(fn) }
func (c *Client) OnRoomCreated(fn func(RoomCreatedEvent)) {
	c.dispatcher.SetOnRoomCreated(fn)
}
func (c *Client) OnJoinRequest(fn func(JoinRequestEvent)) {
	c.dispatcher.SetOnJoinRequest(fn)
}
func (c *Client) OnJoinApproved(fn func(JoinApprovedEvent)) {
	c.dispatcher.SetOnJoinApproved(fn)
}
func (c *Client) OnJoinRejected(fn func(JoinRejectedEvent)) {
	c.dispatcher.SetOnJoinRejected(fn)
}
func (c *Client) OnUserJoined(fn func(UserEvent))       { c.dispatcher.SetOnUserJoined(fn) }
func (c *Client) OnUserLeft(fn func(UserEvent))         { c.dispatcher.SetOnUserLeft(fn) }
func (c *Client) OnUserReconnected(fn func(UserEvent))  { c.dispatcher.SetOnUserReconnected(fn) }
func (c *Client) OnUserDisconnected(fn func(UserEvent)) { c.dispatcher.SetOnUserDisconnected(fn) }
func (c *Client) OnHostChanged(fn func(HostChangedEvent)) {
	c.dispatcher.SetOnHostChanged(fn)
}
func (c *Client) OnKicked(fn func(KickedEvent)) { c.dispatcher.SetOnKicked(fn) }
func (c *Client) OnPlaybackSync(fn func(PlaybackSyncEvent)) {
	c.dispatcher.SetOnPlaybackSync(fn)
}
func (c *Client) OnBufferWait(fn func(BufferWaitEvent)) { c.dispatcher.SetOnBufferWait(fn) }
func (c *Client) OnBufferComplete(fn func(BufferCompleteEvent)) {
	c.dispatcher.SetOnBufferComplete(fn)
}
func (c *Client) OnSyncState(fn func(SyncStateEvent)) { c.dispatcher.SetOnSyncState(fn) }
func (c *Client) OnChat(fn func(ChatEvent))           { c.dispatcher.SetOnChat(fn) }
func (c *Client) OnSuggestion(fn func(SuggestionEvent)) {
	c.dispatcher.SetOnSuggestion(fn)
}
func (c *Client) OnSuggestionResolved(fn func(SuggestionResolvedEvent)) {
	c.dispatcher.SetOnSuggestionResolved(fn)
}
func (c *Client) OnReconnecting(fn func(ReconnectingEvent)) {
	c.dispatcher.SetOnReconnecting(fn)
}
func (c *Client) OnReconnected(fn func(ReconnectedEvent)) {
	c.dispatcher.SetOnReconnected(fn)
}
func (c *Client) OnServerError(fn func(ServerErrorEvent)) {
	c.dispatcher.SetOnServerError(fn)
}
func (c *Client) OnDisconnected(fn func()) { c.dispatcher.SetOnDisconnected(fn) }
func (c *Client) OnError(fn func(error))   { c.dispatcher.SetOnError(fn) }

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
