package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ravikumargowda24/tapmindchat2/internal/store"
	"github.com/ravikumargowda24/tapmindchat2/internal/store/memory"
)

func addUser(t *testing.T, s *memory.Store, id, first, last, email string) {
	t.Helper()
	err := s.CreateUser(context.Background(), &store.User{
		ID: id, FirstName: first, LastName: last, Email: email,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestUsers_GetAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	addUser(t, s, "u1", "Ada", "Lovelace", "ada@example.com")

	u, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if u.FirstName != "Ada" {
		t.Fatalf("u = %+v", u)
	}

	if _, err := s.GetUser(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUsers_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	addUser(t, s, "u1", "Ada", "Lovelace", "ada@example.com")

	u, _ := s.GetUser(ctx, "u1")
	u.FirstName = "mutated"

	again, _ := s.GetUser(ctx, "u1")
	if again.FirstName != "Ada" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestContacts_ExcludesCallerAndSorts(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	addUser(t, s, "u1", "Zed", "Shaw", "zed@example.com")
	addUser(t, s, "u2", "Ada", "Lovelace", "ada@example.com")
	addUser(t, s, "u3", "Bob", "Tables", "bob@example.com")

	out, err := s.Contacts(ctx, "u3")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].FirstName != "Ada" || out[1].FirstName != "Zed" {
		t.Fatalf("contacts = %+v", out)
	}
}

func TestSearchContacts_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	addUser(t, s, "u1", "Ada", "Lovelace", "ada@example.com")
	addUser(t, s, "u2", "Bob", "Tables", "bob@example.com")

	out, err := s.SearchContacts(ctx, "u2", "LOVE")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "u1" {
		t.Fatalf("search = %+v", out)
	}

	// The caller never matches themselves.
	out, _ = s.SearchContacts(ctx, "u1", "ada")
	if len(out) != 0 {
		t.Fatalf("search matched the caller: %+v", out)
	}
}

func TestContactsForList_RecentFirst(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	addUser(t, s, "me", "Me", "Self", "me@example.com")
	addUser(t, s, "old", "Old", "Friend", "old@example.com")
	addUser(t, s, "new", "New", "Friend", "new@example.com")

	base := time.Now()
	msgs := []*store.Message{
		{ID: "m1", SenderID: "me", RecipientID: "old", Content: "a", Type: store.TypeText, Timestamp: base.Add(-time.Hour)},
		{ID: "m2", SenderID: "old", RecipientID: "me", Content: "b", Type: store.TypeText, Timestamp: base.Add(-30 * time.Minute)},
		{ID: "m3", SenderID: "new", RecipientID: "me", Content: "c", Type: store.TypeText, Timestamp: base},
	}
	for _, m := range msgs {
		if err := s.CreateMessage(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	out, err := s.ContactsForList(ctx, "me")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d contacts, want 2", len(out))
	}
	if out[0].User.ID != "new" || out[1].User.ID != "old" {
		t.Fatalf("order = %s, %s", out[0].User.ID, out[1].User.ID)
	}
	if !out[1].LastMessageTime.Equal(base.Add(-30 * time.Minute)) {
		t.Fatal("last message time is not the most recent exchange")
	}
}

func TestMessages_FingerprintUniqueness(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	m1 := &store.Message{ID: "m1", SenderID: "a", RecipientID: "b", Content: "x", Type: store.TypeText, Timestamp: time.Now(), Fingerprint: "fp"}
	if err := s.CreateMessage(ctx, m1); err != nil {
		t.Fatal(err)
	}
	m2 := &store.Message{ID: "m2", SenderID: "a", RecipientID: "b", Content: "x", Type: store.TypeText, Timestamp: time.Now(), Fingerprint: "fp"}
	if err := s.CreateMessage(ctx, m2); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	// Deleting releases the fingerprint for reuse.
	if err := s.DeleteMessage(ctx, "m1"); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateMessage(ctx, m2); err != nil {
		t.Fatalf("fingerprint not released on delete: %v", err)
	}
}

func TestMessages_Conversation(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	base := time.Now()

	seed := []*store.Message{
		{ID: "m2", SenderID: "b", RecipientID: "a", Content: "2", Type: store.TypeText, Timestamp: base.Add(time.Second)},
		{ID: "m1", SenderID: "a", RecipientID: "b", Content: "1", Type: store.TypeText, Timestamp: base},
		{ID: "m3", SenderID: "a", RecipientID: "c", Content: "other", Type: store.TypeText, Timestamp: base},
		{ID: "m4", SenderID: "a", ChannelID: "ch", Content: "chan", Type: store.TypeText, Timestamp: base},
	}
	for _, m := range seed {
		if err := s.CreateMessage(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	out, err := s.Conversation(ctx, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != "m1" || out[1].ID != "m2" {
		t.Fatalf("conversation = %+v", out)
	}
}

func TestMessages_UpdateContent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	m := &store.Message{ID: "m1", SenderID: "a", RecipientID: "b", Content: "typo", Type: store.TypeText, Timestamp: time.Now()}
	if err := s.CreateMessage(ctx, m); err != nil {
		t.Fatal(err)
	}

	at := time.Now()
	updated, err := s.UpdateContent(ctx, "m1", "fixed", at)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Content != "fixed" || !updated.Edited || !updated.EditedAt.Equal(at) {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := s.UpdateContent(ctx, "nope", "x", at); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestChannels_MembershipMutations(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ch := &store.Channel{ID: "ch1", Name: "ops", AdminID: "admin", MemberIDs: []string{"a"}}
	if err := s.CreateChannel(ctx, ch); err != nil {
		t.Fatal(err)
	}

	got, err := s.AddMembers(ctx, "ch1", []string{"b", "a", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.MemberIDs) != 3 {
		t.Fatalf("members after add = %v", got.MemberIDs)
	}

	got, err = s.RemoveMember(ctx, "ch1", "b")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range got.MemberIDs {
		if id == "b" {
			t.Fatal("removed member still present")
		}
	}

	if _, err := s.AddMembers(ctx, "nope", []string{"x"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestChannels_MessageListAndHistory(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ch := &store.Channel{ID: "ch1", Name: "ops", AdminID: "admin"}
	if err := s.CreateChannel(ctx, ch); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"m1", "m2"} {
		m := &store.Message{ID: id, SenderID: "admin", ChannelID: "ch1", Content: id, Type: store.TypeText, Timestamp: time.Now()}
		if err := s.CreateMessage(ctx, m); err != nil {
			t.Fatal(err)
		}
		if err := s.AppendMessage(ctx, "ch1", id); err != nil {
			t.Fatal(err)
		}
	}

	history, err := s.ChannelMessages(ctx, "ch1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].ID != "m1" || history[1].ID != "m2" {
		t.Fatalf("history = %+v", history)
	}

	if err := s.PullMessage(ctx, "ch1", "m1"); err != nil {
		t.Fatal(err)
	}
	history, _ = s.ChannelMessages(ctx, "ch1")
	if len(history) != 1 || history[0].ID != "m2" {
		t.Fatalf("history after pull = %+v", history)
	}
}

func TestChannels_ForUserOrdering(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	first := &store.Channel{ID: "ch1", Name: "old", AdminID: "admin", UpdatedAt: time.Now().Add(-time.Hour)}
	second := &store.Channel{ID: "ch2", Name: "fresh", AdminID: "x", MemberIDs: []string{"admin"}, UpdatedAt: time.Now()}
	noise := &store.Channel{ID: "ch3", Name: "other", AdminID: "someone"}
	for _, c := range []*store.Channel{first, second, noise} {
		if err := s.CreateChannel(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	out, err := s.ChannelsForUser(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != "ch2" || out[1].ID != "ch1" {
		t.Fatalf("channels = %+v", out)
	}
}
