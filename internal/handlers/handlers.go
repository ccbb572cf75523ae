// Package handlers wires the HTTP and websocket surface onto the
// realtime core and the store.
package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ravikumargowda24/tapmindchat2/internal/chat"
	"github.com/ravikumargowda24/tapmindchat2/internal/store"
)

type Handlers struct {
	st        store.Store
	hub       *chat.Hub
	uploadDir string
	log       *slog.Logger
}

func New(st store.Store, hub *chat.Hub, uploadDir string, log *slog.Logger) *Handlers {
	return &Handlers{st: st, hub: hub, uploadDir: uploadDir, log: log}
}

// fail maps core errors onto HTTP statuses.
func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, chat.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "unauthorized"})
	case errors.Is(err, chat.ErrNotEditable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		h.log.Error("request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
