// Package firestore implements the store ports on Cloud Firestore.
package firestore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ravikumargowda24/tapmindchat2/internal/store"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore-backed store for the given project.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) usersCol() *firestore.CollectionRef    { return s.client.Collection("users") }
func (s *Store) messagesCol() *firestore.CollectionRef { return s.client.Collection("messages") }
func (s *Store) channelsCol() *firestore.CollectionRef { return s.client.Collection("channels") }

// fingerprints is a dedicated collection keyed by fingerprint; Create on
// an existing key yields AlreadyExists, which is the store-level side of
// the duplicate-submission guard.
func (s *Store) fingerprintsCol() *firestore.CollectionRef {
	return s.client.Collection("message_fingerprints")
}

type userDoc struct {
	Email       string    `firestore:"email"`
	FirstName   string    `firestore:"first_name"`
	LastName    string    `firestore:"last_name"`
	Image       string    `firestore:"image"`
	Color       string    `firestore:"color"`
	Status      string    `firestore:"status"`
	LastSeen    time.Time `firestore:"last_seen"`
	CurrentChat string    `firestore:"current_chat"`
}

type messageDoc struct {
	SenderID          string    `firestore:"sender_id"`
	RecipientID       string    `firestore:"recipient_id"`
	ChannelID         string    `firestore:"channel_id"`
	Content           string    `firestore:"content"`
	Type              string    `firestore:"type"`
	FileURL           string    `firestore:"file_url"`
	Timestamp         time.Time `firestore:"timestamp"`
	Edited            bool      `firestore:"edited"`
	EditedAt          time.Time `firestore:"edited_at"`
	Forwarded         bool      `firestore:"forwarded"`
	OriginalMessageID string    `firestore:"original_message_id"`
	Fingerprint       string    `firestore:"fingerprint"`
}

type channelDoc struct {
	Name       string    `firestore:"name"`
	AdminID    string    `firestore:"admin_id"`
	MemberIDs  []string  `firestore:"member_ids"`
	MessageIDs []string  `firestore:"message_ids"`
	CreatedAt  time.Time `firestore:"created_at"`
	UpdatedAt  time.Time `firestore:"updated_at"`
}

func toUser(id string, d userDoc) *store.User {
	return &store.User{
		ID:          id,
		Email:       d.Email,
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Image:       d.Image,
		Color:       d.Color,
		Status:      store.PresenceStatus(d.Status),
		LastSeen:    d.LastSeen,
		CurrentChat: d.CurrentChat,
	}
}

func toMessage(id string, d messageDoc) *store.Message {
	return &store.Message{
		ID:                id,
		SenderID:          d.SenderID,
		RecipientID:       d.RecipientID,
		ChannelID:         d.ChannelID,
		Content:           d.Content,
		Type:              store.MessageType(d.Type),
		FileURL:           d.FileURL,
		Timestamp:         d.Timestamp,
		Edited:            d.Edited,
		EditedAt:          d.EditedAt,
		Forwarded:         d.Forwarded,
		OriginalMessageID: d.OriginalMessageID,
		Fingerprint:       d.Fingerprint,
	}
}

func toChannel(id string, d channelDoc) *store.Channel {
	return &store.Channel{
		ID:         id,
		Name:       d.Name,
		AdminID:    d.AdminID,
		MemberIDs:  d.MemberIDs,
		MessageIDs: d.MessageIDs,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// ---- UserStore ----

func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	doc := userDoc{
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Image:       u.Image,
		Color:       u.Color,
		Status:      string(u.Status),
		LastSeen:    u.LastSeen,
		CurrentChat: u.CurrentChat,
	}
	if _, err := s.usersCol().Doc(u.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateUser: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	snap, err := s.usersCol().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetUser: %w", err)
	}
	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("firestore GetUser decode: %w", err)
	}
	return toUser(id, d), nil
}

func (s *Store) Contacts(ctx context.Context, excludeID string) ([]*store.User, error) {
	iter := s.usersCol().OrderBy("first_name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*store.User
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore Contacts: %w", err)
		}
		if snap.Ref.ID == excludeID {
			continue
		}
		var d userDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode userDoc: %w", err)
		}
		out = append(out, toUser(snap.Ref.ID, d))
	}
	return out, nil
}

// SearchContacts scans and filters client-side: Firestore has no
// substring operator and the user collection is small.
func (s *Store) SearchContacts(ctx context.Context, excludeID, term string) ([]*store.User, error) {
	users, err := s.Contacts(ctx, excludeID)
	if err != nil {
		return nil, err
	}
	t := strings.ToLower(term)
	var out []*store.User
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.FirstName), t) ||
			strings.Contains(strings.ToLower(u.LastName), t) ||
			strings.Contains(strings.ToLower(u.Email), t) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) ContactsForList(ctx context.Context, userID string) ([]*store.Contact, error) {
	last := map[string]time.Time{}

	collect := func(field string) error {
		iter := s.messagesCol().Where(field, "==", userID).Documents(ctx)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return fmt.Errorf("firestore ContactsForList: %w", err)
			}
			var d messageDoc
			if err := snap.DataTo(&d); err != nil {
				return fmt.Errorf("decode messageDoc: %w", err)
			}
			if d.ChannelID != "" {
				continue
			}
			peer := d.RecipientID
			if field == "recipient_id" {
				peer = d.SenderID
			}
			if d.Timestamp.After(last[peer]) {
				last[peer] = d.Timestamp
			}
		}
	}
	if err := collect("sender_id"); err != nil {
		return nil, err
	}
	if err := collect("recipient_id"); err != nil {
		return nil, err
	}

	out := make([]*store.Contact, 0, len(last))
	for peer, ts := range last {
		u, err := s.GetUser(ctx, peer)
		if err != nil {
			if err == store.ErrNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, &store.Contact{User: *u, LastMessageTime: ts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageTime.After(out[j].LastMessageTime) })
	return out, nil
}

func (s *Store) UpdatePresence(ctx context.Context, id string, st store.PresenceStatus, lastSeen time.Time, currentChat string) error {
	doc := map[string]interface{}{
		"status":       string(st),
		"last_seen":    lastSeen,
		"current_chat": currentChat,
	}
	if _, err := s.usersCol().Doc(id).Set(ctx, doc, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore UpdatePresence: %w", err)
	}
	return nil
}

// ---- MessageStore ----

func (s *Store) CreateMessage(ctx context.Context, m *store.Message) error {
	if m.Fingerprint != "" {
		_, err := s.fingerprintsCol().Doc(m.Fingerprint).Create(ctx, map[string]interface{}{
			"message_id": m.ID,
			"created_at": m.Timestamp,
		})
		if err != nil {
			if status.Code(err) == codes.AlreadyExists {
				return store.ErrDuplicate
			}
			return fmt.Errorf("firestore CreateMessage fingerprint: %w", err)
		}
	}

	doc := messageDoc{
		SenderID:          m.SenderID,
		RecipientID:       m.RecipientID,
		ChannelID:         m.ChannelID,
		Content:           m.Content,
		Type:              string(m.Type),
		FileURL:           m.FileURL,
		Timestamp:         m.Timestamp,
		Edited:            m.Edited,
		EditedAt:          m.EditedAt,
		Forwarded:         m.Forwarded,
		OriginalMessageID: m.OriginalMessageID,
		Fingerprint:       m.Fingerprint,
	}
	if _, err := s.messagesCol().Doc(m.ID).Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return store.ErrDuplicate
		}
		return fmt.Errorf("firestore CreateMessage: %w", err)
	}
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*store.Message, error) {
	snap, err := s.messagesCol().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetMessage: %w", err)
	}
	var d messageDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("firestore GetMessage decode: %w", err)
	}
	return toMessage(id, d), nil
}

func (s *Store) UpdateContent(ctx context.Context, id, content string, editedAt time.Time) (*store.Message, error) {
	ref := s.messagesCol().Doc(id)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "content", Value: content},
		{Path: "edited", Value: true},
		{Path: "edited_at", Value: editedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("firestore UpdateContent: %w", err)
	}
	return s.GetMessage(ctx, id)
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	m, err := s.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if m.Fingerprint != "" {
		if _, err := s.fingerprintsCol().Doc(m.Fingerprint).Delete(ctx); err != nil {
			return fmt.Errorf("firestore DeleteMessage fingerprint: %w", err)
		}
	}
	if _, err := s.messagesCol().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore DeleteMessage: %w", err)
	}
	return nil
}

func (s *Store) Conversation(ctx context.Context, a, b string) ([]*store.Message, error) {
	var out []*store.Message

	collect := func(sender, recipient string) error {
		iter := s.messagesCol().
			Where("sender_id", "==", sender).
			Where("recipient_id", "==", recipient).
			Documents(ctx)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return fmt.Errorf("firestore Conversation: %w", err)
			}
			var d messageDoc
			if err := snap.DataTo(&d); err != nil {
				return fmt.Errorf("decode messageDoc: %w", err)
			}
			out = append(out, toMessage(snap.Ref.ID, d))
		}
	}
	if err := collect(a, b); err != nil {
		return nil, err
	}
	if err := collect(b, a); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ---- ChannelStore ----

func (s *Store) CreateChannel(ctx context.Context, c *store.Channel) error {
	doc := channelDoc{
		Name:       c.Name,
		AdminID:    c.AdminID,
		MemberIDs:  c.MemberIDs,
		MessageIDs: c.MessageIDs,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if _, err := s.channelsCol().Doc(c.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateChannel: %w", err)
	}
	return nil
}

func (s *Store) GetChannel(ctx context.Context, id string) (*store.Channel, error) {
	snap, err := s.channelsCol().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetChannel: %w", err)
	}
	var d channelDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("firestore GetChannel decode: %w", err)
	}
	return toChannel(id, d), nil
}

func (s *Store) DeleteChannel(ctx context.Context, id string) error {
	if _, err := s.GetChannel(ctx, id); err != nil {
		return err
	}
	if _, err := s.channelsCol().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore DeleteChannel: %w", err)
	}
	return nil
}

func (s *Store) ChannelsForUser(ctx context.Context, userID string) ([]*store.Channel, error) {
	byID := map[string]*store.Channel{}

	collect := func(q firestore.Query) error {
		iter := q.Documents(ctx)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return fmt.Errorf("firestore ChannelsForUser: %w", err)
			}
			var d channelDoc
			if err := snap.DataTo(&d); err != nil {
				return fmt.Errorf("decode channelDoc: %w", err)
			}
			byID[snap.Ref.ID] = toChannel(snap.Ref.ID, d)
		}
	}
	if err := collect(s.channelsCol().Where("admin_id", "==", userID)); err != nil {
		return nil, err
	}
	if err := collect(s.channelsCol().Where("member_ids", "array-contains", userID)); err != nil {
		return nil, err
	}

	out := make([]*store.Channel, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) AddMembers(ctx context.Context, channelID string, memberIDs []string) (*store.Channel, error) {
	ids := make([]interface{}, len(memberIDs))
	for i, id := range memberIDs {
		ids[i] = id
	}
	_, err := s.channelsCol().Doc(channelID).Update(ctx, []firestore.Update{
		{Path: "member_ids", Value: firestore.ArrayUnion(ids...)},
		{Path: "updated_at", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("firestore AddMembers: %w", err)
	}
	return s.GetChannel(ctx, channelID)
}

func (s *Store) RemoveMember(ctx context.Context, channelID, memberID string) (*store.Channel, error) {
	_, err := s.channelsCol().Doc(channelID).Update(ctx, []firestore.Update{
		{Path: "member_ids", Value: firestore.ArrayRemove(memberID)},
		{Path: "updated_at", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("firestore RemoveMember: %w", err)
	}
	return s.GetChannel(ctx, channelID)
}

func (s *Store) AppendMessage(ctx context.Context, channelID, messageID string) error {
	_, err := s.channelsCol().Doc(channelID).Update(ctx, []firestore.Update{
		{Path: "message_ids", Value: firestore.ArrayUnion(messageID)},
		{Path: "updated_at", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return store.ErrNotFound
		}
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) PullMessage(ctx context.Context, channelID, messageID string) error {
	_, err := s.channelsCol().Doc(channelID).Update(ctx, []firestore.Update{
		{Path: "message_ids", Value: firestore.ArrayRemove(messageID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return store.ErrNotFound
		}
		return fmt.Errorf("firestore PullMessage: %w", err)
	}
	return nil
}

func (s *Store) ChannelMessages(ctx context.Context, channelID string) ([]*store.Message, error) {
	c, err := s.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	out := make([]*store.Message, 0, len(c.MessageIDs))
	for _, id := range c.MessageIDs {
		m, err := s.GetMessage(ctx, id)
		if err != nil {
			if err == store.ErrNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
