package store

import "time"

// PresenceStatus is a user's live availability.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusOffline PresenceStatus = "offline"
)

// MessageType distinguishes plain text from file attachments.
type MessageType string

const (
	TypeText MessageType = "text"
	TypeFile MessageType = "file"
)

// User is the identity record owned by the external store. The realtime
// core reads display fields for hydration and writes the presence fields.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Image     string
	Color     string

	Status      PresenceStatus
	LastSeen    time.Time
	CurrentChat string // peer the user currently has open, empty if none
}

// Message is a durable chat message, direct or channel-scoped.
// Channel messages carry an empty RecipientID.
type Message struct {
	ID          string
	SenderID    string
	RecipientID string
	ChannelID   string
	Content     string
	Type        MessageType
	FileURL     string
	Timestamp   time.Time

	Edited   bool
	EditedAt time.Time

	Forwarded         bool
	OriginalMessageID string

	// Fingerprint backs the store-level uniqueness constraint that
	// pairs with the in-memory duplicate suppressor.
	Fingerprint string
}

// Channel is a group conversation with a single admin.
type Channel struct {
	ID         string
	Name       string
	AdminID    string
	MemberIDs  []string
	MessageIDs []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Recipients returns the channel's member set including the admin,
// deduplicated.
func (c *Channel) Recipients() []string {
	seen := make(map[string]bool, len(c.MemberIDs)+1)
	out := make([]string, 0, len(c.MemberIDs)+1)
	for _, id := range c.MemberIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if !seen[c.AdminID] {
		out = append(out, c.AdminID)
	}
	return out
}

// IsMember reports whether id is the admin or a member.
func (c *Channel) IsMember(id string) bool {
	if id == c.AdminID {
		return true
	}
	for _, m := range c.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// Contact is a user summary plus the time of the most recent direct
// message exchanged with the caller.
type Contact struct {
	User            User
	LastMessageTime time.Time
}
