package roomcast

import (
	"context"
	"strconv"
	"time"
)

// Session identifies the local user's room membership across
// reconnects. It is persisted on every change and cleared on explicit
// leave, kick, or unrecoverable error.
type Session struct {
	Token     string
	RoomCode  string
	UserID    string
	IsHost    bool
	StartedAt time.Time
}

// RestoreSession loads a persisted session from the store. Sessions
// older than the grace period are cleared instead of restored. Call it
// once before Connect to resume a room after a process restart.
func (c *Client) RestoreSession(ctx context.Context) error {
	token, _, err := c.store.Get(ctx, KeySessionToken)
	if err != nil {
		return WrapError(ErrorUnknown, "load persisted session", err)
	}
	if token == "" {
		return nil
	}
	roomCode, _, err := c.store.Get(ctx, KeyRoomCode)
	if err != nil {
		return WrapError(ErrorUnknown, "load persisted session", err)
	}
	userID, _, _ := c.store.Get(ctx, KeyUserID)
	isHostRaw, _, _ := c.store.Get(ctx, KeyIsHost)
	startedRaw, _, _ := c.store.Get(ctx, KeySessionStartedAt)

	startedMs, err := strconv.ParseInt(startedRaw, 10, 64)
	if err != nil {
		startedMs = 0
	}
	started := time.UnixMilli(startedMs)
	age := c.nowFn().Sub(started)

	if roomCode == "" || age >= c.cfg.SessionGracePeriod {
		c.logger.Warn("persisted session expired", map[string]any{"age": age.String()})
		_ = c.store.Delete(ctx, sessionKeys...)
		return nil
	}

	username, _, _ := c.store.Get(ctx, KeyUsername)

	c.mu.Lock()
	c.session = &Session{
		Token:     token,
		RoomCode:  roomCode,
		UserID:    userID,
		IsHost:    isHostRaw == "true",
		StartedAt: started,
	}
	c.userID = userID
	if username != "" {
		c.storedUsername = username
	}
	c.mu.Unlock()

	c.logger.Info("restored persisted session", map[string]any{
		"room": roomCode,
		"host": isHostRaw == "true",
	})
	return nil
}

// persistSessionAsync writes a session snapshot without blocking the
// message loop.
func (c *Client) persistSessionAsync(s Session) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		pairs := [][2]string{
			{KeySessionToken, s.Token},
			{KeyRoomCode, s.RoomCode},
			{KeyUserID, s.UserID},
			{KeyIsHost, strconv.FormatBool(s.IsHost)},
			{KeySessionStartedAt, strconv.FormatInt(s.StartedAt.UnixMilli(), 10)},
		}
		for _, kv := range pairs {
			if err := c.store.Set(ctx, kv[0], kv[1]); err != nil {
				c.logger.Error("persist session", map[string]any{"key": kv[0], "error": err.Error()})
				return
			}
		}
	}()
}

// clearPersistedSessionAsync removes all session keys without blocking
// the message loop.
func (c *Client) clearPersistedSessionAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.store.Delete(ctx, sessionKeys...); err != nil {
			c.logger.Error("clear persisted session", map[string]any{"error": err.Error()})
		}
	}()
}

// SavedUsername returns the persisted display name, if any.
func (c *Client) SavedUsername(ctx context.Context) (string, error) {
	name, _, err := c.store.Get(ctx, KeyUsername)
	return name, err
}

// SaveUsername persists the display name for future sessions.
func (c *Client) SaveUsername(ctx context.Context, username string) error {
	return c.store.Set(ctx, KeyUsername, username)
}

// Session returns a copy of the current session, if one is held.
func (c *Client) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// HasPersistedSession reports whether a session eligible for reconnect
// is held in memory.
func (c *Client) HasPersistedSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.Token != "" && c.session.RoomCode != ""
}

// PersistedRoomCode returns the room code of the held session, if any.
func (c *Client) PersistedRoomCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.RoomCode
}

// SessionAge returns how long ago the held session started, or zero.
func (c *Client) SessionAge() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.StartedAt.IsZero() {
		return 0
	}
	return c.nowFn().Sub(c.session.StartedAt)
}
