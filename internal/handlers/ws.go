package handlers

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/ravikumargowda24/tapmindchat2/internal/auth"
	"github.com/ravikumargowda24/tapmindchat2/internal/chat"
)

// RequireUpgrade gates the websocket route: non-upgrade requests are
// rejected before the handshake handler runs.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WS GET /ws upgrades the connection and binds it to the identity the
// auth middleware verified. A handshake without an identity is
// rejected.
func (h *Handlers) WS() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(auth.LocalUserID).(string)
		if userID == "" {
			_ = conn.Close()
			return
		}

		client := chat.NewClient(h.hub, userID, conn)
		h.hub.ConnectionOpened(context.Background(), client)

		go client.WritePump()
		client.ReadPump()
	})
}
