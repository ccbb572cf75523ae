package chat

import (
	"encoding/json"
	"time"

	"github.com/ravikumargowda24/tapmindchat2/internal/store"
)

// Client-to-server events.
const (
	EvSendDirectMessage  = "send-direct-message"
	EvSendChannelMessage = "send-channel-message"
	EvEditMessage        = "edit-message"
	EvDeleteMessage      = "delete-message"
	EvTyping             = "typing"
	EvUserStatus         = "user-status"

	// Notify-only membership events. The store mutation happens over
	// HTTP; these let a client fan the change out to live members.
	EvChannelMembersAdded  = "channel-members-added"
	EvChannelMemberRemoved = "channel-member-removed"
	EvChannelDeleted       = "channel-deleted"
	EvChannelCreated       = "new-channel-notify"
)

// Server-to-client events.
const (
	EvReceiveMessage        = "receive-message"
	EvReceiveChannelMessage = "receive-channel-message"
	EvMessageEdited         = "message-edited"
	EvMessageDeleted        = "message-deleted"
	EvUserStatusChanged     = "user-status-changed"
	EvUserTyping            = "user-typing"
	EvNewChannelAdded       = "new-channel-added"
	EvRemovedFromChannel    = "removed-from-channel"
)

// Envelope is the wire format for every websocket frame, both
// directions: an event name plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// UserSummary is the display projection of a user attached to
// hydrated messages and contact lists.
type UserSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Image     string `json:"image,omitempty"`
	Color     string `json:"color,omitempty"`
}

// MessagePayload is a persisted message hydrated with sender (and for
// direct messages, recipient) display fields.
type MessagePayload struct {
	ID                string       `json:"id"`
	Sender            UserSummary  `json:"sender"`
	Recipient         *UserSummary `json:"recipient,omitempty"`
	ChannelID         string       `json:"channelId,omitempty"`
	Content           string       `json:"content,omitempty"`
	Type              string       `json:"type"`
	FileURL           string       `json:"fileUrl,omitempty"`
	Timestamp         time.Time    `json:"timestamp"`
	Edited            bool         `json:"edited,omitempty"`
	EditedAt          *time.Time   `json:"editedAt,omitempty"`
	Forwarded         bool         `json:"forwarded,omitempty"`
	OriginalMessageID string       `json:"originalMessageId,omitempty"`
}

// ChannelPayload is the full channel object pushed to newly added
// members so their client can list the channel without a refetch.
type ChannelPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AdminID   string    `json:"adminId"`
	MemberIDs []string  `json:"memberIds"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func channelPayload(c *store.Channel) ChannelPayload {
	return ChannelPayload{
		ID:        c.ID,
		Name:      c.Name,
		AdminID:   c.AdminID,
		MemberIDs: c.MemberIDs,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Inbound payloads.

type SendDirectPayload struct {
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	Type        string    `json:"type"`
	FileURL     string    `json:"fileUrl,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

type SendChannelPayload struct {
	ChannelID string    `json:"channelId"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	FileURL   string    `json:"fileUrl,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

type EditPayload struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type DeletePayload struct {
	MessageID string `json:"messageId"`
}

type TypingPayload struct {
	RecipientID string `json:"recipientId"`
	IsTyping    bool   `json:"isTyping"`
}

type StatusPayload struct {
	Status      string `json:"status"`
	CurrentChat string `json:"currentChat,omitempty"`
}

type MembersAddedPayload struct {
	ChannelID  string   `json:"channelId"`
	NewMembers []string `json:"newMembers"`
	AddedBy    string   `json:"addedBy"`
}

type MemberRemovedPayload struct {
	ChannelID       string `json:"channelId"`
	RemovedMemberID string `json:"removedMemberId"`
	RemovedBy       string `json:"removedBy"`
}

type ChannelDeletedPayload struct {
	ChannelID string `json:"channelId"`
	DeletedBy string `json:"deletedBy"`
}

type ChannelCreatedPayload struct {
	ChannelID string `json:"channelId"`
}

// Outbound payloads.

type StatusChangedPayload struct {
	UserID   string    `json:"userId"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"lastSeen"`
}

type UserTypingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type MessageEditedPayload struct {
	MessageID      string         `json:"messageId"`
	SenderID       string         `json:"senderId"`
	RecipientID    string         `json:"recipientId,omitempty"`
	ChannelID      string         `json:"channelId,omitempty"`
	UpdatedMessage MessagePayload `json:"updatedMessage"`
}

type MessageDeletedPayload struct {
	MessageID   string `json:"messageId"`
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId,omitempty"`
	ChannelID   string `json:"channelId,omitempty"`
}

type RemovedFromChannelPayload struct {
	ChannelID string `json:"channelId"`
	RemovedBy string `json:"removedBy"`
}
