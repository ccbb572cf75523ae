package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned by MessageStore.Create when a message with
	// the same fingerprint already exists. Callers treat it as an
	// idempotent no-op, never as a failure.
	ErrDuplicate = errors.New("store: duplicate")
)

// UserStore defines user persistence and presence writes.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	// Contacts returns every user except excludeID, ordered by name.
	Contacts(ctx context.Context, excludeID string) ([]*User, error)
	// SearchContacts matches term case-insensitively against first name,
	// last name, and email, excluding excludeID.
	SearchContacts(ctx context.Context, excludeID, term string) ([]*User, error)
	// ContactsForList returns the users userID has exchanged direct
	// messages with, most recent conversation first.
	ContactsForList(ctx context.Context, userID string) ([]*Contact, error)
	// UpdatePresence writes the live presence fields for id.
	UpdatePresence(ctx context.Context, id string, status PresenceStatus, lastSeen time.Time, currentChat string) error
}

// MessageStore defines message persistence.
type MessageStore interface {
	// CreateMessage persists m. Returns ErrDuplicate if a message with
	// m.Fingerprint is already stored.
	CreateMessage(ctx context.Context, m *Message) error
	GetMessage(ctx context.Context, id string) (*Message, error)
	// UpdateContent replaces the message body and marks it edited.
	UpdateContent(ctx context.Context, id, content string, editedAt time.Time) (*Message, error)
	DeleteMessage(ctx context.Context, id string) error
	// Conversation returns the direct messages between a and b in either
	// direction, timestamp ascending.
	Conversation(ctx context.Context, a, b string) ([]*Message, error)
}

// ChannelStore defines channel persistence and membership writes.
type ChannelStore interface {
	CreateChannel(ctx context.Context, c *Channel) error
	GetChannel(ctx context.Context, id string) (*Channel, error)
	DeleteChannel(ctx context.Context, id string) error
	// ChannelsForUser returns channels where userID is admin or member,
	// most recently updated first.
	ChannelsForUser(ctx context.Context, userID string) ([]*Channel, error)
	AddMembers(ctx context.Context, channelID string, memberIDs []string) (*Channel, error)
	RemoveMember(ctx context.Context, channelID, memberID string) (*Channel, error)
	// AppendMessage adds messageID to the channel's message list.
	AppendMessage(ctx context.Context, channelID, messageID string) error
	// PullMessage removes messageID from the channel's message list.
	PullMessage(ctx context.Context, channelID, messageID string) error
	// ChannelMessages returns the channel's messages in append order.
	ChannelMessages(ctx context.Context, channelID string) ([]*Message, error)
}

// Store bundles the three ports; both adapters implement it.
type Store interface {
	UserStore
	MessageStore
	ChannelStore
}
