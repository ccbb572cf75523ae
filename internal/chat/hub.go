package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ravikumargowda24/tapmindchat2/internal/store"
)

// Options tune the time-driven parts of the core. Zero values fall
// back to the defaults; tests shrink them.
type Options struct {
	TypingTTL time.Duration
	DedupTTL  time.Duration
	// Clock overrides the duplicate suppressor's time source.
	Clock func() time.Time
}

// Hub owns the realtime core: the connection registry, presence,
// typing, the message router, and the membership notifier. It is the
// transport layer's entry point: connection lifecycle hooks plus
// inbound event dispatch.
type Hub struct {
	Registry *Registry
	Presence *PresenceTracker
	Typing   *TypingCoordinator
	Router   *Router
	Notifier *Notifier
	Dedup    *Suppressor

	st  store.Store
	log *slog.Logger
}

func NewHub(st store.Store, log *slog.Logger, opts Options) *Hub {
	registry := NewRegistry()
	dedup := NewSuppressor(opts.DedupTTL, opts.Clock)
	h := &Hub{
		Registry: registry,
		Presence: NewPresenceTracker(registry, st, log),
		Typing:   NewTypingCoordinator(registry, opts.TypingTTL),
		Router:   NewRouter(st, registry, dedup, log),
		Notifier: NewNotifier(registry),
		Dedup:    dedup,
		st:       st,
		log:      log,
	}
	return h
}

// Run starts the background sweeps and blocks until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.Dedup.Run(ctx)
}

// ConnectionOpened registers the connection for its identity (replacing
// any prior one) and marks the user online.
func (h *Hub) ConnectionOpened(ctx context.Context, c *Client) {
	h.Registry.Register(c.UserID, c)
	h.Presence.HandleConnect(ctx, c.UserID)
	h.log.Info("connection opened", "user", c.UserID, "conn", c.ConnID)
}

// ConnectionClosed drops the registration if c is still current and,
// only then, marks the user offline. A stale close after a fast
// reconnect changes nothing.
func (h *Hub) ConnectionClosed(c *Client) {
	userID, wasCurrent := h.Registry.Unregister(c)
	c.closeSend()
	if !wasCurrent {
		h.log.Debug("stale connection closed", "conn", c.ConnID)
		return
	}
	h.Typing.Stop(userID)
	h.Presence.HandleDisconnect(context.Background(), userID)
	h.log.Info("connection closed", "user", userID, "conn", c.ConnID)
}

// Dispatch routes one inbound envelope from c. Handler errors are
// logged; the connection itself is never failed by a bad operation.
func (h *Hub) Dispatch(c *Client, env *Envelope) {
	ctx := context.Background()
	var err error

	switch env.Event {
	case EvSendDirectMessage:
		var p SendDirectPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			_, err = h.Router.SendDirect(ctx, MessageEnvelope{
				SenderID:    c.UserID,
				RecipientID: p.RecipientID,
				Content:     p.Content,
				Type:        messageType(p.Type),
				FileURL:     p.FileURL,
				Timestamp:   p.Timestamp,
			})
		}

	case EvSendChannelMessage:
		var p SendChannelPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			_, err = h.Router.SendChannel(ctx, MessageEnvelope{
				SenderID:  c.UserID,
				ChannelID: p.ChannelID,
				Content:   p.Content,
				Type:      messageType(p.Type),
				FileURL:   p.FileURL,
				Timestamp: p.Timestamp,
			})
		}

	case EvEditMessage:
		var p EditPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			_, err = h.Router.Edit(ctx, c.UserID, p.MessageID, p.Content)
		}

	case EvDeleteMessage:
		var p DeletePayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			_, err = h.Router.Delete(ctx, c.UserID, p.MessageID)
		}

	case EvTyping:
		var p TypingPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			if p.IsTyping {
				h.Typing.Start(c.UserID, p.RecipientID)
			} else {
				h.Typing.Stop(c.UserID)
			}
		}

	case EvUserStatus:
		var p StatusPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			h.Presence.HandleStatus(ctx, c.UserID, store.PresenceStatus(p.Status), p.CurrentChat)
		}

	case EvChannelCreated:
		var p ChannelCreatedPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			var ch *store.Channel
			if ch, err = h.st.GetChannel(ctx, p.ChannelID); err == nil {
				h.Notifier.ChannelCreated(ch)
			}
		}

	case EvChannelMembersAdded:
		var p MembersAddedPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			var ch *store.Channel
			if ch, err = h.st.GetChannel(ctx, p.ChannelID); err == nil {
				h.Notifier.MembersAdded(ch, p.NewMembers, p.AddedBy)
			}
		}

	case EvChannelMemberRemoved:
		var p MemberRemovedPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			var ch *store.Channel
			if ch, err = h.st.GetChannel(ctx, p.ChannelID); err == nil {
				h.Notifier.MemberRemoved(ch, p.RemovedMemberID, p.RemovedBy)
			}
		}

	case EvChannelDeleted:
		var p ChannelDeletedPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			var ch *store.Channel
			if ch, err = h.st.GetChannel(ctx, p.ChannelID); err == nil {
				h.Notifier.ChannelDeleted(ch, p.DeletedBy)
			}
		}

	default:
		h.log.Debug("unknown event", "event", env.Event, "user", c.UserID)
		return
	}

	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Warn("event dispatch failed", "event", env.Event, "user", c.UserID, "error", err)
	}
}

func messageType(t string) store.MessageType {
	if t == string(store.TypeFile) {
		return store.TypeFile
	}
	return store.TypeText
}
