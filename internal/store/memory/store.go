// Package memory provides a mutex-guarded in-memory implementation of
// the store ports. It backs local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ravikumargowda24/tapmindchat2/internal/store"
)

type Store struct {
	mu sync.RWMutex

	users    map[string]*store.User
	messages map[string]*store.Message
	channels map[string]*store.Channel

	// fingerprint -> message id, mirrors the document store's unique index
	fingerprints map[string]string
}

func New() *Store {
	return &Store{
		users:        make(map[string]*store.User),
		messages:     make(map[string]*store.Message),
		channels:     make(map[string]*store.Channel),
		fingerprints: make(map[string]string),
	}
}

// ---- UserStore ----

func (s *Store) CreateUser(_ context.Context, u *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) Contacts(_ context.Context, excludeID string) ([]*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*store.User, 0, len(s.users))
	for id, u := range s.users {
		if id == excludeID {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SearchContacts(_ context.Context, excludeID, term string) ([]*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := strings.ToLower(term)
	var out []*store.User
	for id, u := range s.users {
		if id == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.FirstName), t) ||
			strings.Contains(strings.ToLower(u.LastName), t) ||
			strings.Contains(strings.ToLower(u.Email), t) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ContactsForList(_ context.Context, userID string) ([]*store.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	last := map[string]time.Time{}
	for _, m := range s.messages {
		if m.ChannelID != "" {
			continue
		}
		var peer string
		switch {
		case m.SenderID == userID:
			peer = m.RecipientID
		case m.RecipientID == userID:
			peer = m.SenderID
		default:
			continue
		}
		if m.Timestamp.After(last[peer]) {
			last[peer] = m.Timestamp
		}
	}

	out := make([]*store.Contact, 0, len(last))
	for peer, ts := range last {
		u, ok := s.users[peer]
		if !ok {
			continue
		}
		out = append(out, &store.Contact{User: *u, LastMessageTime: ts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageTime.After(out[j].LastMessageTime) })
	return out, nil
}

func (s *Store) UpdatePresence(_ context.Context, id string, status store.PresenceStatus, lastSeen time.Time, currentChat string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Status = status
	u.LastSeen = lastSeen
	u.CurrentChat = currentChat
	return nil
}

// ---- MessageStore ----

func (s *Store) CreateMessage(_ context.Context, m *store.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Fingerprint != "" {
		if _, dup := s.fingerprints[m.Fingerprint]; dup {
			return store.ErrDuplicate
		}
		s.fingerprints[m.Fingerprint] = m.ID
	}
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *Store) GetMessage(_ context.Context, id string) (*store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Store) UpdateContent(_ context.Context, id, content string, editedAt time.Time) (*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m.Content = content
	m.Edited = true
	m.EditedAt = editedAt
	cp := *m
	return &cp, nil
}

func (s *Store) DeleteMessage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return store.ErrNotFound
	}
	if m.Fingerprint != "" {
		delete(s.fingerprints, m.Fingerprint)
	}
	delete(s.messages, id)
	return nil
}

func (s *Store) Conversation(_ context.Context, a, b string) ([]*store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Message
	for _, m := range s.messages {
		if m.ChannelID != "" {
			continue
		}
		if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ---- ChannelStore ----

func (s *Store) CreateChannel(_ context.Context, c *store.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneChannel(c)
	s.channels[c.ID] = cp
	return nil
}

func (s *Store) GetChannel(_ context.Context, id string) (*store.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.channels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneChannel(c), nil
}

func (s *Store) DeleteChannel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.channels[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.channels, id)
	return nil
}

func (s *Store) ChannelsForUser(_ context.Context, userID string) ([]*store.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Channel
	for _, c := range s.channels {
		if c.IsMember(userID) {
			out = append(out, cloneChannel(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) AddMembers(_ context.Context, channelID string, memberIDs []string) (*store.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.channels[channelID]
	if !ok {
		return nil, store.ErrNotFound
	}
	existing := make(map[string]bool, len(c.MemberIDs))
	for _, id := range c.MemberIDs {
		existing[id] = true
	}
	for _, id := range memberIDs {
		if !existing[id] {
			c.MemberIDs = append(c.MemberIDs, id)
			existing[id] = true
		}
	}
	c.UpdatedAt = time.Now()
	return cloneChannel(c), nil
}

func (s *Store) RemoveMember(_ context.Context, channelID, memberID string) (*store.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.channels[channelID]
	if !ok {
		return nil, store.ErrNotFound
	}
	kept := c.MemberIDs[:0]
	for _, id := range c.MemberIDs {
		if id != memberID {
			kept = append(kept, id)
		}
	}
	c.MemberIDs = kept
	c.UpdatedAt = time.Now()
	return cloneChannel(c), nil
}

func (s *Store) AppendMessage(_ context.Context, channelID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.channels[channelID]
	if !ok {
		return store.ErrNotFound
	}
	c.MessageIDs = append(c.MessageIDs, messageID)
	c.UpdatedAt = time.Now()
	return nil
}

func (s *Store) PullMessage(_ context.Context, channelID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.channels[channelID]
	if !ok {
		return store.ErrNotFound
	}
	kept := c.MessageIDs[:0]
	for _, id := range c.MessageIDs {
		if id != messageID {
			kept = append(kept, id)
		}
	}
	c.MessageIDs = kept
	return nil
}

func (s *Store) ChannelMessages(_ context.Context, channelID string) ([]*store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.channels[channelID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]*store.Message, 0, len(c.MessageIDs))
	for _, id := range c.MessageIDs {
		if m, ok := s.messages[id]; ok {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func cloneChannel(c *store.Channel) *store.Channel {
	cp := *c
	cp.MemberIDs = append([]string(nil), c.MemberIDs...)
	cp.MessageIDs = append([]string(nil), c.MessageIDs...)
	return &cp
}
