package chat_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/ravikumargowda24/tapmindchat2/internal/chat"
)

// fakeConn records pushes for assertions.
type fakeConn struct {
	mu     sync.Mutex
	pushes []pushed
}

type pushed struct {
	event string
	data  any
}

func (f *fakeConn) Push(event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, pushed{event: event, data: data})
}

func (f *fakeConn) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.pushes {
		if p.event == event {
			n++
		}
	}
	return n
}

func (f *fakeConn) last(t *testing.T, event string) pushed {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.pushes) - 1; i >= 0; i-- {
		if f.pushes[i].event == event {
			return f.pushes[i]
		}
	}
	t.Fatalf("no push with event %q", event)
	return pushed{}
}

// decodeData re-marshals a pushed payload into dst.
func decodeData(t *testing.T, p pushed, dst any) {
	t.Helper()
	b, err := json.Marshal(p.data)
	if err != nil {
		t.Fatalf("marshal pushed data: %v", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		t.Fatalf("unmarshal pushed data: %v", err)
	}
}

func TestRegistry_RegisterLookup(t *testing.T) {
	r := chat.NewRegistry()
	conn := &fakeConn{}

	r.Register("u1", conn)

	got, ok := r.Lookup("u1")
	if !ok || got != chat.Connection(conn) {
		t.Fatalf("Lookup after Register = %v, %v; want registered conn", got, ok)
	}
}

func TestRegistry_ReplaceNotAppend(t *testing.T) {
	r := chat.NewRegistry()
	a := &fakeConn{}
	b := &fakeConn{}

	r.Register("u1", a)
	r.Register("u1", b)

	if got, _ := r.Lookup("u1"); got != chat.Connection(b) {
		t.Fatal("expected newer connection to win")
	}
	if r.Online() != 1 {
		t.Fatalf("Online() = %d, want 1", r.Online())
	}
}

func TestRegistry_StaleUnregisterIsNoop(t *testing.T) {
	r := chat.NewRegistry()
	a := &fakeConn{}
	b := &fakeConn{}

	r.Register("u1", a)
	r.Register("u1", b)

	if id, ok := r.Unregister(a); ok {
		t.Fatalf("stale Unregister evicted %q", id)
	}
	if got, ok := r.Lookup("u1"); !ok || got != chat.Connection(b) {
		t.Fatal("newer registration was evicted by stale unregister")
	}
}

func TestRegistry_UnregisterCurrent(t *testing.T) {
	r := chat.NewRegistry()
	a := &fakeConn{}

	r.Register("u1", a)

	id, ok := r.Unregister(a)
	if !ok || id != "u1" {
		t.Fatalf("Unregister = %q, %v; want u1, true", id, ok)
	}
	if _, ok := r.Lookup("u1"); ok {
		t.Fatal("identity still reachable after unregister")
	}
	if id, ok := r.Unregister(a); ok {
		t.Fatalf("second Unregister returned %q, want no-op", id)
	}
}
