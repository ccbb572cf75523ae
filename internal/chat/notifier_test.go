package chat_test

import (
	"testing"
	"time"

	"github.com/ravikumargowda24/tapmindchat2/internal/chat"
	"github.com/ravikumargowda24/tapmindchat2/internal/store"
)

func TestNotifier_ChannelCreated(t *testing.T) {
	reg := chat.NewRegistry()
	n := chat.NewNotifier(reg)
	admin := &fakeConn{}
	bob := &fakeConn{}
	reg.Register("admin", admin)
	reg.Register("bob", bob)

	ch := &store.Channel{
		ID:        "ch1",
		Name:      "planning",
		AdminID:   "admin",
		MemberIDs: []string{"bob", "offline"},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	n.ChannelCreated(ch)

	for name, conn := range map[string]*fakeConn{"admin": admin, "bob": bob} {
		if conn.count(chat.EvNewChannelAdded) != 1 {
			t.Fatalf("%s got %d pushes", name, conn.count(chat.EvNewChannelAdded))
		}
	}
	var got chat.ChannelPayload
	decodeData(t, bob.last(t, chat.EvNewChannelAdded), &got)
	if got.ID != "ch1" || got.Name != "planning" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestNotifier_MembersAdded_SplitsNewFromExisting(t *testing.T) {
	reg := chat.NewRegistry()
	n := chat.NewNotifier(reg)
	admin := &fakeConn{}
	existing := &fakeConn{}
	fresh := &fakeConn{}
	reg.Register("admin", admin)
	reg.Register("existing", existing)
	reg.Register("fresh", fresh)

	ch := &store.Channel{
		ID:        "ch1",
		AdminID:   "admin",
		MemberIDs: []string{"existing", "fresh"},
	}
	n.MembersAdded(ch, []string{"fresh"}, "admin")

	// New member gets the full channel so it can render without a fetch.
	if fresh.count(chat.EvNewChannelAdded) != 1 || fresh.count(chat.EvChannelMembersAdded) != 0 {
		t.Fatal("new member did not get the full-channel event")
	}
	// Existing members only get the membership delta.
	for name, conn := range map[string]*fakeConn{"admin": admin, "existing": existing} {
		if conn.count(chat.EvChannelMembersAdded) != 1 || conn.count(chat.EvNewChannelAdded) != 0 {
			t.Fatalf("%s did not get exactly the delta event", name)
		}
	}
	var delta chat.MembersAddedPayload
	decodeData(t, existing.last(t, chat.EvChannelMembersAdded), &delta)
	if delta.AddedBy != "admin" || len(delta.NewMembers) != 1 || delta.NewMembers[0] != "fresh" {
		t.Fatalf("delta = %+v", delta)
	}
}

func TestNotifier_MemberRemoved_DualNotification(t *testing.T) {
	reg := chat.NewRegistry()
	n := chat.NewNotifier(reg)
	admin := &fakeConn{}
	removed := &fakeConn{}
	reg.Register("admin", admin)
	reg.Register("bob", removed)

	// Post-removal channel: bob is no longer a member.
	ch := &store.Channel{ID: "ch1", AdminID: "admin"}
	n.MemberRemoved(ch, "bob", "admin")

	if admin.count(chat.EvChannelMemberRemoved) != 1 {
		t.Fatal("remaining member did not get the removal event")
	}
	if removed.count(chat.EvRemovedFromChannel) != 1 {
		t.Fatal("removed member did not get the distinct event")
	}
	if removed.count(chat.EvChannelMemberRemoved) != 0 {
		t.Fatal("removed member got the remaining-members event")
	}
	var got chat.RemovedFromChannelPayload
	decodeData(t, removed.last(t, chat.EvRemovedFromChannel), &got)
	if got.ChannelID != "ch1" || got.RemovedBy != "admin" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestNotifier_ChannelDeleted(t *testing.T) {
	reg := chat.NewRegistry()
	n := chat.NewNotifier(reg)
	admin := &fakeConn{}
	bob := &fakeConn{}
	reg.Register("admin", admin)
	reg.Register("bob", bob)

	ch := &store.Channel{ID: "ch1", AdminID: "admin", MemberIDs: []string{"bob"}}
	n.ChannelDeleted(ch, "admin")

	for name, conn := range map[string]*fakeConn{"admin": admin, "bob": bob} {
		if conn.count(chat.EvChannelDeleted) != 1 {
			t.Fatalf("%s got %d delete events", name, conn.count(chat.EvChannelDeleted))
		}
	}
}
