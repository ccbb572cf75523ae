package chat

import (
	"github.com/ravikumargowda24/tapmindchat2/internal/store"
)

// Notifier broadcasts channel membership changes to the affected live
// connections. Store mutations happen elsewhere; this only fans out.
type Notifier struct {
	registry *Registry
}

func NewNotifier(registry *Registry) *Notifier {
	return &Notifier{registry: registry}
}

// ChannelCreated pushes the full channel object to every live member
// so their client can add it without a separate fetch.
func (n *Notifier) ChannelCreated(ch *store.Channel) {
	payload := channelPayload(ch)
	for _, id := range ch.Recipients() {
		n.push(id, EvNewChannelAdded, payload)
	}
}

// MembersAdded notifies pre-existing live members of the new member
// list, and separately pushes the full channel object to each newly
// added member. ch is the post-addition channel.
func (n *Notifier) MembersAdded(ch *store.Channel, newMemberIDs []string, addedBy string) {
	isNew := make(map[string]bool, len(newMemberIDs))
	for _, id := range newMemberIDs {
		isNew[id] = true
	}

	added := MembersAddedPayload{ChannelID: ch.ID, NewMembers: newMemberIDs, AddedBy: addedBy}
	full := channelPayload(ch)
	for _, id := range ch.Recipients() {
		if isNew[id] {
			n.push(id, EvNewChannelAdded, full)
		} else {
			n.push(id, EvChannelMembersAdded, added)
		}
	}
}

// MemberRemoved notifies the remaining live members with the standard
// event and the removed member with a distinct event, since that client
// must stop treating the channel as joined rather than just update a
// list. ch is the post-removal channel.
func (n *Notifier) MemberRemoved(ch *store.Channel, removedID, removedBy string) {
	payload := MemberRemovedPayload{ChannelID: ch.ID, RemovedMemberID: removedID, RemovedBy: removedBy}
	for _, id := range ch.Recipients() {
		n.push(id, EvChannelMemberRemoved, payload)
	}
	n.push(removedID, EvRemovedFromChannel, RemovedFromChannelPayload{ChannelID: ch.ID, RemovedBy: removedBy})
}

// ChannelDeleted notifies all live members, the actor included, with
// the channel id and the actor id.
func (n *Notifier) ChannelDeleted(ch *store.Channel, deletedBy string) {
	payload := ChannelDeletedPayload{ChannelID: ch.ID, DeletedBy: deletedBy}
	for _, id := range ch.Recipients() {
		n.push(id, EvChannelDeleted, payload)
	}
}

func (n *Notifier) push(userID, event string, data any) {
	if conn, ok := n.registry.Lookup(userID); ok {
		conn.Push(event, data)
	}
}
