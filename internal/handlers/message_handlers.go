package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ravikumargowda24/tapmindchat2/internal/auth"
	"github.com/ravikumargowda24/tapmindchat2/internal/chat"
)

// GetMessages POST /api/messages/get-messages returns the direct-message history
// between the caller and the peer in the body.
func (h *Handlers) GetMessages(c *fiber.Ctx) error {
	var body struct {
		ID string `json:"id"`
	}
	if err := c.BodyParser(&body); err != nil || body.ID == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Both user IDs are required.")
	}
	userID := auth.UserID(c)

	msgs, err := h.st.Conversation(c.Context(), userID, body.ID)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]chat.MessagePayload, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, h.hub.Router.HydrateMessage(c.Context(), m))
	}
	return c.JSON(fiber.Map{"messages": out})
}

// UploadFile POST /api/messages/upload-file stores the attachment
// under a millisecond-stamped directory and returns its path.
func (h *Handlers) UploadFile(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("File is required.")
	}

	dir := filepath.Join(h.uploadDir, fmt.Sprintf("%d", time.Now().UnixMilli()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return h.fail(c, err)
	}
	dest := filepath.Join(dir, filepath.Base(file.Filename))
	if err := c.SaveFile(file, dest); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"filePath": dest})
}

// ForwardMessage POST /api/messages/forward-message re-sends an
// existing message to each listed contact and channel independently.
func (h *Handlers) ForwardMessage(c *fiber.Ctx) error {
	var body struct {
		MessageID  string   `json:"messageId"`
		Recipients []string `json:"recipients"`
		Channels   []string `json:"channels"`
	}
	if err := c.BodyParser(&body); err != nil || body.MessageID == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Message ID is required.")
	}

	results, err := h.hub.Router.Forward(c.Context(), auth.UserID(c), body.MessageID, body.Recipients, body.Channels)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": results})
}

// EditMessage PUT /api/messages/edit-message.
func (h *Handlers) EditMessage(c *fiber.Ctx) error {
	var body struct {
		MessageID string `json:"messageId"`
		Content   string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil || body.MessageID == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Message ID is required.")
	}

	updated, err := h.hub.Router.Edit(c.Context(), auth.UserID(c), body.MessageID, body.Content)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"messageId":      updated.ID,
		"senderId":       updated.SenderID,
		"recipientId":    updated.RecipientID,
		"channelId":      updated.ChannelID,
		"updatedMessage": h.hub.Router.HydrateMessage(c.Context(), updated),
	})
}

// DeleteMessage DELETE /api/messages/delete-message.
func (h *Handlers) DeleteMessage(c *fiber.Ctx) error {
	var body struct {
		MessageID string `json:"messageId"`
	}
	if err := c.BodyParser(&body); err != nil || body.MessageID == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Message ID is required.")
	}

	notice, err := h.hub.Router.Delete(c.Context(), auth.UserID(c), body.MessageID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(notice)
}

// MarkAsRead POST /api/messages/mark-as-read acknowledges; unread counts live
// client-side; the endpoint just acknowledges.
func (h *Handlers) MarkAsRead(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}
