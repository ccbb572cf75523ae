package chat_test

import (
	"testing"
	"time"

	"github.com/ravikumargowda24/tapmindchat2/internal/chat"
)

func TestTyping_StartNotifiesPeer(t *testing.T) {
	reg := chat.NewRegistry()
	tc := chat.NewTypingCoordinator(reg, time.Second)
	peer := &fakeConn{}
	reg.Register("bob", peer)

	tc.Start("alice", "bob")

	if peer.count(chat.EvUserTyping) != 1 {
		t.Fatalf("peer got %d typing events, want 1", peer.count(chat.EvUserTyping))
	}
	var got chat.UserTypingPayload
	decodeData(t, peer.last(t, chat.EvUserTyping), &got)
	if got.UserID != "alice" || !got.IsTyping {
		t.Fatalf("payload = %+v, want alice typing", got)
	}
}

func TestTyping_OfflinePeerIsNoop(t *testing.T) {
	reg := chat.NewRegistry()
	tc := chat.NewTypingCoordinator(reg, time.Second)

	tc.Start("alice", "bob")

	if tc.Typing("alice") {
		t.Fatal("flag set although peer had no live connection")
	}
}

func TestTyping_AutoExpiryFiresOnce(t *testing.T) {
	reg := chat.NewRegistry()
	tc := chat.NewTypingCoordinator(reg, 30*time.Millisecond)
	peer := &fakeConn{}
	reg.Register("bob", peer)

	tc.Start("alice", "bob")
	time.Sleep(120 * time.Millisecond)

	if tc.Typing("alice") {
		t.Fatal("flag survived past the TTL")
	}
	if got := peer.count(chat.EvUserTyping); got != 2 {
		t.Fatalf("peer got %d typing events, want start + one expiry", got)
	}
	var last chat.UserTypingPayload
	decodeData(t, peer.last(t, chat.EvUserTyping), &last)
	if last.IsTyping {
		t.Fatal("expiry did not report typing stopped")
	}
}

func TestTyping_StopBeatsExpiry(t *testing.T) {
	reg := chat.NewRegistry()
	tc := chat.NewTypingCoordinator(reg, 40*time.Millisecond)
	peer := &fakeConn{}
	reg.Register("bob", peer)

	tc.Start("alice", "bob")
	tc.Stop("alice")
	time.Sleep(120 * time.Millisecond)

	// Start, then exactly one stop. The expired timer must not add a
	// second one.
	if got := peer.count(chat.EvUserTyping); got != 2 {
		t.Fatalf("peer got %d typing events, want 2", got)
	}
}

func TestTyping_RestartResetsWindow(t *testing.T) {
	reg := chat.NewRegistry()
	tc := chat.NewTypingCoordinator(reg, 60*time.Millisecond)
	peer := &fakeConn{}
	reg.Register("bob", peer)

	tc.Start("alice", "bob")
	time.Sleep(40 * time.Millisecond)
	tc.Start("alice", "bob")
	time.Sleep(40 * time.Millisecond)

	if !tc.Typing("alice") {
		t.Fatal("refreshed flag expired on the original window")
	}

	tc.Stop("alice")
}

func TestTyping_StopWithoutFlagIsNoop(t *testing.T) {
	reg := chat.NewRegistry()
	tc := chat.NewTypingCoordinator(reg, time.Second)
	peer := &fakeConn{}
	reg.Register("bob", peer)

	tc.Stop("alice")

	if peer.count(chat.EvUserTyping) != 0 {
		t.Fatal("stop without a flag pushed an event")
	}
}
