package chat

import (
	"sync"
	"time"
)

// DefaultTypingTTL is how long a typing flag survives without a
// refresh before the peer is told typing stopped.
const DefaultTypingTTL = 3000 * time.Millisecond

type typingFlag struct {
	peerID string
	setAt  time.Time
	timer  *time.Timer
}

// TypingCoordinator tracks who is typing to whom and auto-expires the
// flag. Expiry and an explicit stop compete for the same per-typist
// entry; whichever fires first deletes it and the other becomes a
// no-op, so the peer sees exactly one typing=false.
type TypingCoordinator struct {
	mu       sync.Mutex
	registry *Registry
	ttl      time.Duration
	flags    map[string]*typingFlag // keyed by typist id
}

func NewTypingCoordinator(registry *Registry, ttl time.Duration) *TypingCoordinator {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingCoordinator{
		registry: registry,
		ttl:      ttl,
		flags:    make(map[string]*typingFlag),
	}
}

// Start records that typist is typing to peer and notifies the peer's
// live connection. A start with no live peer connection is a no-op.
// Repeated starts reset the expiry window.
func (t *TypingCoordinator) Start(typistID, peerID string) {
	peer, ok := t.registry.Lookup(peerID)
	if !ok {
		return
	}

	t.mu.Lock()
	if prev, ok := t.flags[typistID]; ok {
		prev.timer.Stop()
	}
	fl := &typingFlag{peerID: peerID, setAt: time.Now()}
	fl.timer = time.AfterFunc(t.ttl, func() { t.expire(typistID, fl) })
	t.flags[typistID] = fl
	t.mu.Unlock()

	peer.Push(EvUserTyping, UserTypingPayload{UserID: typistID, IsTyping: true})
}

// Stop clears the flag and notifies the peer. Safe to call when no
// flag is set.
func (t *TypingCoordinator) Stop(typistID string) {
	t.mu.Lock()
	fl, ok := t.flags[typistID]
	if ok {
		fl.timer.Stop()
		delete(t.flags, typistID)
	}
	t.mu.Unlock()
	if !ok {
		return
	}
	t.notifyStopped(typistID, fl.peerID)
}

// expire fires on the timer. The flag identity check makes a late fire
// after a stop, or after a newer start replaced the entry, a no-op.
func (t *TypingCoordinator) expire(typistID string, fl *typingFlag) {
	t.mu.Lock()
	cur, ok := t.flags[typistID]
	if !ok || cur != fl {
		t.mu.Unlock()
		return
	}
	delete(t.flags, typistID)
	t.mu.Unlock()
	t.notifyStopped(typistID, fl.peerID)
}

func (t *TypingCoordinator) notifyStopped(typistID, peerID string) {
	if peer, ok := t.registry.Lookup(peerID); ok {
		peer.Push(EvUserTyping, UserTypingPayload{UserID: typistID, IsTyping: false})
	}
}

// Typing reports whether typist currently has a flag set. Test hook.
func (t *TypingCoordinator) Typing(typistID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.flags[typistID]
	return ok
}
