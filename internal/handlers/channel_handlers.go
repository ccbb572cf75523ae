package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ravikumargowda24/tapmindchat2/internal/auth"
	"github.com/ravikumargowda24/tapmindchat2/internal/chat"
	"github.com/ravikumargowda24/tapmindchat2/internal/store"
)

// CreateChannel POST /api/channels/create-channel.
func (h *Handlers) CreateChannel(c *fiber.Ctx) error {
	var body struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Channel name is required."})
	}
	userID := auth.UserID(c)

	if _, err := h.st.GetUser(c.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Admin user not found."})
		}
		return h.fail(c, err)
	}
	if err := h.validateMembers(c, body.Members); err != nil {
		return err
	}

	now := time.Now()
	ch := &store.Channel{
		ID:        uuid.NewString(),
		Name:      body.Name,
		AdminID:   userID,
		MemberIDs: body.Members,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.st.CreateChannel(c.Context(), ch); err != nil {
		return h.fail(c, err)
	}
	h.hub.Notifier.ChannelCreated(ch)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"channel": channelJSON(ch)})
}

// GetUserChannels GET /api/channels/get-user-channels.
func (h *Handlers) GetUserChannels(c *fiber.Ctx) error {
	channels, err := h.st.ChannelsForUser(c.Context(), auth.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]fiber.Map, 0, len(channels))
	for _, ch := range channels {
		out = append(out, channelJSON(ch))
	}
	return c.JSON(fiber.Map{"channels": out})
}

// GetChannelMessages GET /api/channels/get-channel-messages/:channelId.
func (h *Handlers) GetChannelMessages(c *fiber.Ctx) error {
	channelID := c.Params("channelId")
	msgs, err := h.st.ChannelMessages(c.Context(), channelID)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]chat.MessagePayload, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, h.hub.Router.HydrateMessage(c.Context(), m))
	}
	return c.JSON(fiber.Map{"messages": out})
}

// AddMembers POST /api/channels/:channelId/add-members is admin only;
// already-present users are skipped and the notifier fans the change
// out to live connections.
func (h *Handlers) AddMembers(c *fiber.Ctx) error {
	channelID := c.Params("channelId")
	var body struct {
		MemberIDs []string `json:"memberIds"`
	}
	if err := c.BodyParser(&body); err != nil || len(body.MemberIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Member ids are required."})
	}
	userID := auth.UserID(c)

	ch, err := h.st.GetChannel(c.Context(), channelID)
	if err != nil {
		return h.fail(c, err)
	}
	if ch.AdminID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Only admin can add members"})
	}
	if err := h.validateMembers(c, body.MemberIDs); err != nil {
		return err
	}

	newIDs := make([]string, 0, len(body.MemberIDs))
	for _, id := range body.MemberIDs {
		if !ch.IsMember(id) {
			newIDs = append(newIDs, id)
		}
	}
	if len(newIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "All selected users are already members"})
	}

	updated, err := h.st.AddMembers(c.Context(), channelID, newIDs)
	if err != nil {
		return h.fail(c, err)
	}
	h.hub.Notifier.MembersAdded(updated, newIDs, userID)

	return c.JSON(fiber.Map{
		"message": "Members added successfully",
		"channel": channelJSON(updated),
	})
}

// RemoveMember POST /api/channels/:channelId/remove-member is admin
// only; the admin cannot be removed.
func (h *Handlers) RemoveMember(c *fiber.Ctx) error {
	channelID := c.Params("channelId")
	var body struct {
		MemberID string `json:"memberId"`
	}
	if err := c.BodyParser(&body); err != nil || body.MemberID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Member id is required."})
	}
	userID := auth.UserID(c)

	ch, err := h.st.GetChannel(c.Context(), channelID)
	if err != nil {
		return h.fail(c, err)
	}
	if ch.AdminID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Only admin can remove members"})
	}
	if ch.AdminID == body.MemberID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot remove admin from channel"})
	}

	updated, err := h.st.RemoveMember(c.Context(), channelID, body.MemberID)
	if err != nil {
		return h.fail(c, err)
	}
	h.hub.Notifier.MemberRemoved(updated, body.MemberID, userID)

	return c.JSON(fiber.Map{"message": "Member removed successfully"})
}

// DeleteChannel DELETE /api/channels/:channelId is admin only. The
// member set is captured before deletion so the notification still
// reaches everyone.
func (h *Handlers) DeleteChannel(c *fiber.Ctx) error {
	channelID := c.Params("channelId")
	userID := auth.UserID(c)

	ch, err := h.st.GetChannel(c.Context(), channelID)
	if err != nil {
		return h.fail(c, err)
	}
	if ch.AdminID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Only admin can delete channel"})
	}

	if err := h.st.DeleteChannel(c.Context(), channelID); err != nil {
		return h.fail(c, err)
	}
	h.hub.Notifier.ChannelDeleted(ch, userID)

	return c.JSON(fiber.Map{"message": "Channel deleted successfully"})
}

func (h *Handlers) validateMembers(c *fiber.Ctx, memberIDs []string) error {
	for _, id := range memberIDs {
		if _, err := h.st.GetUser(c.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Some members are not valid users."})
			}
			return h.fail(c, err)
		}
	}
	return nil
}

func channelJSON(ch *store.Channel) fiber.Map {
	return fiber.Map{
		"id":        ch.ID,
		"name":      ch.Name,
		"adminId":   ch.AdminID,
		"memberIds": ch.MemberIDs,
		"createdAt": ch.CreatedAt,
		"updatedAt": ch.UpdatedAt,
	}
}
