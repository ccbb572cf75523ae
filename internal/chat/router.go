package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ravikumargowda24/tapmindchat2/internal/store"
)

// MessageEnvelope is an inbound message before persistence.
type MessageEnvelope struct {
	SenderID    string
	RecipientID string
	ChannelID   string
	Content     string
	Type        store.MessageType
	FileURL     string
	Timestamp   time.Time

	Forwarded         bool
	OriginalMessageID string
}

// ForwardResult reports the outcome for one forward target. Targets
// are independent; partial success across a batch is expected.
type ForwardResult struct {
	TargetID  string `json:"targetId"`
	Channel   bool   `json:"channel"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Router accepts inbound message envelopes, persists them through the
// store, resolves the recipient set, and pushes to each recipient's
// live connection. Fan-out is best-effort live delivery; durability is
// the store's job.
type Router struct {
	st       store.Store
	registry *Registry
	dedup    *Suppressor
	log      *slog.Logger

	routed     metric.Int64Counter
	dropped    metric.Int64Counter
	fanoutSize metric.Int64Histogram
}

func NewRouter(st store.Store, registry *Registry, dedup *Suppressor, log *slog.Logger) *Router {
	meter := otel.Meter("tapmindchat2/chat")
	routed, _ := meter.Int64Counter("messages_routed_total",
		metric.WithDescription("Messages persisted and dispatched"))
	dropped, _ := meter.Int64Counter("messages_deduped_total",
		metric.WithDescription("Messages dropped as duplicate submissions"))
	fanoutSize, _ := meter.Int64Histogram("message_fanout_size",
		metric.WithDescription("Live connections reached per dispatch"))
	return &Router{
		st:         st,
		registry:   registry,
		dedup:      dedup,
		log:        log,
		routed:     routed,
		dropped:    dropped,
		fanoutSize: fanoutSize,
	}
}

// SendDirect handles the direct-message path. A duplicate submission is
// silently dropped and returns (nil, nil). On success the hydrated
// message is pushed to both the recipient's and the sender's live
// connections, so other sender sessions stay in sync.
func (r *Router) SendDirect(ctx context.Context, env MessageEnvelope) (*store.Message, error) {
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now()
	}
	fp := Fingerprint(env.SenderID, env.RecipientID, env.Content, env.Timestamp)
	if !r.dedup.CheckAndInsert(fp) {
		r.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "direct")))
		r.log.Debug("duplicate direct message dropped", "sender", env.SenderID, "recipient", env.RecipientID)
		return nil, nil
	}

	msg := r.newMessage(env, fp)
	if err := r.st.CreateMessage(ctx, msg); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// The store's uniqueness constraint caught it first; same
			// idempotent outcome as the suppressor.
			r.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "direct")))
			return nil, nil
		}
		r.dedup.Release(fp)
		return nil, fmt.Errorf("persist direct message: %w", err)
	}

	payload := r.HydrateMessage(ctx, msg)
	n := r.push(env.RecipientID, EvReceiveMessage, payload)
	n += r.push(env.SenderID, EvReceiveMessage, payload)
	r.routed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "direct")))
	r.fanoutSize.Record(ctx, int64(n))
	return msg, nil
}

// SendChannel handles the channel path: persist with an empty recipient,
// append to the channel's message list, then push to every live member
// including the admin. Members without a live connection receive the
// message on their next full-history fetch.
func (r *Router) SendChannel(ctx context.Context, env MessageEnvelope) (*store.Message, error) {
	env.RecipientID = ""
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now()
	}
	fp := Fingerprint(env.SenderID, env.ChannelID, env.Content, env.Timestamp)
	if !r.dedup.CheckAndInsert(fp) {
		r.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "channel")))
		r.log.Debug("duplicate channel message dropped", "sender", env.SenderID, "channel", env.ChannelID)
		return nil, nil
	}

	ch, err := r.st.GetChannel(ctx, env.ChannelID)
	if err != nil {
		r.dedup.Release(fp)
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load channel %s: %w", env.ChannelID, err)
	}

	msg := r.newMessage(env, fp)
	if err := r.st.CreateMessage(ctx, msg); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			r.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "channel")))
			return nil, nil
		}
		r.dedup.Release(fp)
		return nil, fmt.Errorf("persist channel message: %w", err)
	}
	if err := r.st.AppendMessage(ctx, env.ChannelID, msg.ID); err != nil {
		// Roll the created message back so a retry re-runs instead of
		// being dropped as a duplicate of a message no channel lists.
		if derr := r.st.DeleteMessage(ctx, msg.ID); derr != nil {
			r.log.Warn("rollback of unlisted channel message failed", "message", msg.ID, "error", derr)
		}
		r.dedup.Release(fp)
		return nil, fmt.Errorf("append message to channel %s: %w", env.ChannelID, err)
	}

	payload := r.HydrateMessage(ctx, msg)
	n := 0
	for _, memberID := range ch.Recipients() {
		n += r.push(memberID, EvReceiveChannelMessage, payload)
	}
	r.routed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "channel")))
	r.fanoutSize.Record(ctx, int64(n))
	return msg, nil
}

// Forward re-sends an existing message to each target recipient and
// channel as a fresh envelope marked forwarded. Each target goes
// through the normal direct or channel path independently; there is no
// atomicity across the batch.
func (r *Router) Forward(ctx context.Context, actorID, messageID string, recipientIDs, channelIDs []string) ([]ForwardResult, error) {
	orig, err := r.st.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	results := make([]ForwardResult, 0, len(recipientIDs)+len(channelIDs))
	base := MessageEnvelope{
		SenderID:          actorID,
		Content:           orig.Content,
		Type:              orig.Type,
		FileURL:           orig.FileURL,
		Forwarded:         true,
		OriginalMessageID: messageID,
	}

	for _, rid := range recipientIDs {
		env := base
		env.RecipientID = rid
		env.Timestamp = time.Now()
		msg, err := r.SendDirect(ctx, env)
		results = append(results, forwardResult(rid, false, msg, err))
	}
	for _, cid := range channelIDs {
		env := base
		env.ChannelID = cid
		env.Timestamp = time.Now()
		msg, err := r.SendChannel(ctx, env)
		results = append(results, forwardResult(cid, true, msg, err))
	}
	return results, nil
}

func forwardResult(target string, channel bool, msg *store.Message, err error) ForwardResult {
	res := ForwardResult{TargetID: target, Channel: channel}
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if msg != nil {
		res.MessageID = msg.ID
	}
	return res
}

// Edit mutates the content of a text message. Only the original sender
// may edit. An edit notification, not a full re-send, goes to the same
// recipient set the original delivery used.
func (r *Router) Edit(ctx context.Context, actorID, messageID, content string) (*store.Message, error) {
	msg, err := r.st.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actorID {
		return nil, ErrUnauthorized
	}
	if msg.Type != store.TypeText {
		return nil, ErrNotEditable
	}

	updated, err := r.st.UpdateContent(ctx, messageID, content, time.Now())
	if err != nil {
		return nil, fmt.Errorf("update message %s: %w", messageID, err)
	}

	payload := MessageEditedPayload{
		MessageID:      messageID,
		SenderID:       msg.SenderID,
		RecipientID:    msg.RecipientID,
		ChannelID:      msg.ChannelID,
		UpdatedMessage: r.HydrateMessage(ctx, updated),
	}
	for _, id := range r.resolveRecipients(ctx, msg) {
		r.push(id, EvMessageEdited, payload)
	}
	return updated, nil
}

// Delete removes a message. The sender may delete their own direct
// message; only the channel admin may delete a channel message, which
// is also pulled from the channel's message list. A delete notification
// carrying the message id goes to the original recipient set.
func (r *Router) Delete(ctx context.Context, actorID, messageID string) (*MessageDeletedPayload, error) {
	msg, err := r.st.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if msg.ChannelID == "" {
		if msg.SenderID != actorID {
			return nil, ErrUnauthorized
		}
	} else {
		ch, err := r.st.GetChannel(ctx, msg.ChannelID)
		if err != nil {
			return nil, err
		}
		if ch.AdminID != actorID {
			return nil, ErrUnauthorized
		}
	}

	if err := r.st.DeleteMessage(ctx, messageID); err != nil {
		return nil, fmt.Errorf("delete message %s: %w", messageID, err)
	}
	if msg.ChannelID != "" {
		if err := r.st.PullMessage(ctx, msg.ChannelID, messageID); err != nil {
			r.log.Warn("pull message from channel failed", "channel", msg.ChannelID, "message", messageID, "error", err)
		}
	}

	payload := MessageDeletedPayload{
		MessageID:   messageID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		ChannelID:   msg.ChannelID,
	}
	for _, id := range r.resolveRecipients(ctx, msg) {
		r.push(id, EvMessageDeleted, payload)
	}
	return &payload, nil
}

// HydrateMessage joins the stored message with sender and recipient
// display fields. Hydration is best-effort: the message is already
// durable, so a failed user read degrades to an id-only summary.
func (r *Router) HydrateMessage(ctx context.Context, msg *store.Message) MessagePayload {
	p := MessagePayload{
		ID:                msg.ID,
		Sender:            r.userSummary(ctx, msg.SenderID),
		ChannelID:         msg.ChannelID,
		Content:           msg.Content,
		Type:              string(msg.Type),
		FileURL:           msg.FileURL,
		Timestamp:         msg.Timestamp,
		Edited:            msg.Edited,
		Forwarded:         msg.Forwarded,
		OriginalMessageID: msg.OriginalMessageID,
	}
	if msg.Edited {
		at := msg.EditedAt
		p.EditedAt = &at
	}
	if msg.RecipientID != "" {
		rec := r.userSummary(ctx, msg.RecipientID)
		p.Recipient = &rec
	}
	return p
}

func (r *Router) userSummary(ctx context.Context, id string) UserSummary {
	u, err := r.st.GetUser(ctx, id)
	if err != nil {
		r.log.Warn("hydrate user failed", "user", id, "error", err)
		return UserSummary{ID: id}
	}
	return UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Image:     u.Image,
		Color:     u.Color,
	}
}

// resolveRecipients returns the delivery set for msg: sender plus
// recipient for a direct message, the member set including the admin
// for a channel message.
func (r *Router) resolveRecipients(ctx context.Context, msg *store.Message) []string {
	if msg.ChannelID == "" {
		if msg.RecipientID == "" || msg.RecipientID == msg.SenderID {
			return []string{msg.SenderID}
		}
		return []string{msg.SenderID, msg.RecipientID}
	}
	ch, err := r.st.GetChannel(ctx, msg.ChannelID)
	if err != nil {
		r.log.Warn("resolve channel recipients failed", "channel", msg.ChannelID, "error", err)
		return nil
	}
	return ch.Recipients()
}

func (r *Router) newMessage(env MessageEnvelope, fp string) *store.Message {
	return &store.Message{
		ID:                uuid.NewString(),
		SenderID:          env.SenderID,
		RecipientID:       env.RecipientID,
		ChannelID:         env.ChannelID,
		Content:           env.Content,
		Type:              env.Type,
		FileURL:           env.FileURL,
		Timestamp:         env.Timestamp,
		Forwarded:         env.Forwarded,
		OriginalMessageID: env.OriginalMessageID,
		Fingerprint:       fp,
	}
}

// push delivers one event to userID's live connection if present and
// reports whether a connection was reached.
func (r *Router) push(userID, event string, data any) int {
	conn, ok := r.registry.Lookup(userID)
	if !ok {
		return 0
	}
	conn.Push(event, data)
	return 1
}
