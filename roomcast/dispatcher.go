package roomcast

// Dispatcher routes typed events to registered callbacks. One callback
// per event type; discrete events are delivered at least once, state
// snapshots are last-value-wins via the client accessors.
type Dispatcher struct {
	onStateChanged       func(StateEvent)
	onRoomCreated        func(RoomCreatedEvent)
	onJoinRequest        func(JoinRequestEvent)
	onJoinApproved       func(JoinApprovedEvent)
	onJoinRejected       func(JoinRejectedEvent)
	onUserJoined         func(UserEvent)
	onUserLeft           func(UserEvent)
	onUserReconnected    func(UserEvent)
	onUserDisconnected   func(UserEvent)
	onHostChanged        func(HostChangedEvent)
	onKicked             func(KickedEvent)
	onPlaybackSync       func(PlaybackSyncEvent)
	onBufferWait         func(BufferWaitEvent)
	onBufferComplete     func(BufferCompleteEvent)
	onSyncState          func(SyncStateEvent)
	onChat               func(ChatEvent)
	onSuggestion         func(SuggestionEvent)
	onSuggestionResolved func(SuggestionResolvedEvent)
	onReconnecting       func(ReconnectingEvent)
	onReconnected        func(ReconnectedEvent)
	onServerError        func(ServerErrorEvent)
	onDisconnected       func()
	onError              func(error)
}

func (d *Dispatcher) SetOnStateChanged(fn func(StateEvent))       { d.onStateChanged = fn }
func (d *Dispatcher) SetOnRoomCreated(fn func(RoomCreatedEvent))  { d.onRoomCreated = fn }
func (d *Dispatcher) SetOnJoinRequest(fn func(JoinRequestEvent))  { d.onJoinRequest = fn }
func (d *Dispatcher) SetOnJoinApproved(fn func(JoinApprovedEvent)) {
	d.onJoinApproved = fn
}
func (d *Dispatcher) SetOnJoinRejected(fn func(JoinRejectedEvent)) {
	d.onJoinRejected = fn
}
func (d *Dispatcher) SetOnUserJoined(fn func(UserEvent))       { d.onUserJoined = fn }
func (d *Dispatcher) SetOnUserLeft(fn func(UserEvent))         { d.onUserLeft = fn }
func (d *Dispatcher) SetOnUserReconnected(fn func(UserEvent))  { d.onUserReconnected = fn }
func (d *Dispatcher) SetOnUserDisconnected(fn func(UserEvent)) { d.onUserDisconnected = fn }
func (d *Dispatcher) SetOnHostChanged(fn func(HostChangedEvent)) {
	d.onHostChanged = fn
}
func (d *Dispatcher) SetOnKicked(fn func(KickedEvent)) { d.onKicked = fn }
func (d *Dispatcher) SetOnPlaybackSync(fn func(PlaybackSyncEvent)) {
	d.onPlaybackSync = fn
}
func (d *Dispatcher) SetOnBufferWait(fn func(BufferWaitEvent)) { d.onBufferWait = fn }
func (d *Dispatcher) SetOnBufferComplete(fn func(BufferCompleteEvent)) {
	d.onBufferComplete = fn
}
func (d *Dispatcher) SetOnSyncState(fn func(SyncStateEvent)) { d.onSyncState = fn }
func (d *Dispatcher) SetOnChat(fn func(ChatEvent))           { d.onChat = fn }
func (d *Dispatcher) SetOnSuggestion(fn func(SuggestionEvent)) {
	d.onSuggestion = fn
}
func (d *Dispatcher) SetOnSuggestionResolved(fn func(SuggestionResolvedEvent)) {
	d.onSuggestionResolved = fn
}
func (d *Dispatcher) SetOnReconnecting(fn func(ReconnectingEvent)) {
	d.onReconnecting = fn
}
func (d *Dispatcher) SetOnReconnected(fn func(ReconnectedEvent)) {
	d.onReconnected = fn
}
func (d *Dispatcher) SetOnServerError(fn func(ServerErrorEvent)) {
	d.onServerError = fn
}
func (d *Dispatcher) SetOnDisconnected(fn func()) { d.onDisconnected = fn }
func (d *Dispatcher) SetOnError(fn func(error))   { d.onError = fn }

func (d *Dispatcher) fireStateChanged(ev StateEvent) {
	if d.onStateChanged != nil {
		d.onStateChanged(ev)
	}
}

func (d *Dispatcher) fireRoomCreated(ev RoomCreatedEvent) {
	if d.onRoomCreated != nil {
		d.onRoomCreated(ev)
	}
}

func (d *Dispatcher) fireJoinRequest(ev JoinRequestEvent) {
	if d.onJoinRequest != nil {
		d.onJoinRequest(ev)
	}
}

func (d *Dispatcher) fireJoinApproved(ev JoinApprovedEvent) {
	if d.onJoinApproved != nil {
		d.onJoinApproved(ev)
	}
}

func (d *Dispatcher) fireJoinRejected(ev JoinRejectedEvent) {
	if d.onJoinRejected != nil {
		d.onJoinRejected(ev)
	}
}

func (d *Dispatcher) fireUserJoined(ev UserEvent) {
	if d.onUserJoined != nil {
		d.onUserJoined(ev)
	}
}

func (d *Dispatcher) fireUserLeft(ev UserEvent) {
	if d.onUserLeft != nil {
		d.onUserLeft(ev)
	}
}

func (d *Dispatcher) fireUserReconnected(ev UserEvent) {
	if d.onUserReconnected != nil {
		d.onUserReconnected(ev)
	}
}

func (d *Dispatcher) fireUserDisconnected(ev UserEvent) {
	if d.onUserDisconnected != nil {
		d.onUserDisconnected(ev)
	}
}

func (d *Dispatcher) fireHostChanged(ev HostChangedEvent) {
	if d.onHostChanged != nil {
		d.onHostChanged(ev)
	}
}

func (d *Dispatcher) fireKicked(ev KickedEvent) {
	if d.onKicked != nil {
		d.onKicked(ev)
	}
}

func (d *Dispatcher) firePlaybackSync(ev PlaybackSyncEvent) {
	if d.onPlaybackSync != nil {
		d.onPlaybackSync(ev)
	}
}

func (d *Dispatcher) fireBufferWait(ev BufferWaitEvent) {
	if d.onBufferWait != nil {
		d.onBufferWait(ev)
	}
}

func (d *Dispatcher) fireBufferComplete(ev BufferCompleteEvent) {
	if d.onBufferComplete != nil {
		d.onBufferComplete(ev)
	}
}

func (d *Dispatcher) fireSyncState(ev SyncStateEvent) {
	if d.onSyncState != nil {
		d.onSyncState(ev)
	}
}

func (d *Dispatcher) fireChat(ev ChatEvent) {
	if d.onChat != nil {
		d.onChat(ev)
	}
}

func (d *Dispatcher) fireSuggestion(ev SuggestionEvent) {
	if d.onSuggestion != nil {
		d.onSuggestion(ev)
	}
}

func (d *Dispatcher) fireSuggestionResolved(ev SuggestionResolvedEvent) {
	if d.onSuggestionResolved != nil {
		d.onSuggestionResolved(ev)
	}
}

func (d *Dispatcher) fireReconnecting(ev ReconnectingEvent) {
	if d.onReconnecting != nil {
		d.onReconnecting(ev)
	}
}

func (d *Dispatcher) fireReconnected(ev ReconnectedEvent) {
	if d.onReconnected != nil {
		d.onReconnected(ev)
	}
}

func (d *Dispatcher) fireServerError(ev ServerErrorEvent) {
	if d.onServerError != nil {
		d.onServerError(ev)
	}
}

func (d *Dispatcher) fireDisconnected() {
	if d.onDisconnected != nil {
		d.onDisconnected()
	}
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
