package chat

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ravikumargowda24/tapmindchat2/internal/store"
)

var validStatuses = map[store.PresenceStatus]bool{
	store.StatusOnline:  true,
	store.StatusAway:    true,
	store.StatusOffline: true,
}

// PresenceTracker maintains each user's availability. Every transition
// is written to the store best-effort (presence is soft state; a failed
// write is logged and swallowed) and pushed to the user's current chat
// peer only, never broadcast globally.
type PresenceTracker struct {
	registry *Registry
	users    store.UserStore
	log      *slog.Logger
	now      func() time.Time

	transitions metric.Int64Counter
}

func NewPresenceTracker(registry *Registry, users store.UserStore, log *slog.Logger) *PresenceTracker {
	meter := otel.Meter("tapmindchat2/chat")
	transitions, _ := meter.Int64Counter("presence_transitions_total",
		metric.WithDescription("Presence status transitions"))
	return &PresenceTracker{
		registry:    registry,
		users:       users,
		log:         log,
		now:         time.Now,
		transitions: transitions,
	}
}

// HandleConnect marks userID online. The current chat peer is not yet
// known at handshake time.
func (p *PresenceTracker) HandleConnect(ctx context.Context, userID string) {
	p.write(ctx, userID, store.StatusOnline, "")
}

// HandleStatus applies an explicit status change (including visibility
// changes mapped to away/online by the client) and notifies the peer
// the user currently has open, if that peer is live.
func (p *PresenceTracker) HandleStatus(ctx context.Context, userID string, status store.PresenceStatus, currentChat string) {
	if !validStatuses[status] {
		p.log.Warn("invalid presence status", "user", userID, "status", status)
		return
	}
	p.write(ctx, userID, status, currentChat)
	p.notifyPeer(userID, status, currentChat)
}

// HandleDisconnect marks userID offline. The live currentChat value is
// no longer in hand, so the last known value is reloaded from the store
// before deciding whether a peer gets notified.
func (p *PresenceTracker) HandleDisconnect(ctx context.Context, userID string) {
	peer := ""
	if u, err := p.users.GetUser(ctx, userID); err == nil {
		peer = u.CurrentChat
	} else {
		p.log.Warn("presence reload failed", "user", userID, "error", err)
	}
	p.write(ctx, userID, store.StatusOffline, "")
	p.notifyPeer(userID, store.StatusOffline, peer)
}

func (p *PresenceTracker) write(ctx context.Context, userID string, status store.PresenceStatus, currentChat string) {
	p.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	if err := p.users.UpdatePresence(ctx, userID, status, p.now(), currentChat); err != nil {
		p.log.Warn("presence write failed", "user", userID, "status", status, "error", err)
	}
}

func (p *PresenceTracker) notifyPeer(userID string, status store.PresenceStatus, peerID string) {
	if peerID == "" {
		return
	}
	peer, ok := p.registry.Lookup(peerID)
	if !ok {
		return
	}
	peer.Push(EvUserStatusChanged, StatusChangedPayload{
		UserID:   userID,
		Status:   string(status),
		LastSeen: p.now(),
	})
}
