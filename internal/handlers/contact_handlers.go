package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ravikumargowda24/tapmindchat2/internal/auth"
	"github.com/ravikumargowda24/tapmindchat2/internal/store"
)

// GetAllContacts GET /api/contacts/all returns every user except the caller,
// for recipient pickers.
func (h *Handlers) GetAllContacts(c *fiber.Ctx) error {
	users, err := h.st.Contacts(c.Context(), auth.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		out = append(out, contactJSON(u))
	}
	return c.JSON(fiber.Map{"contacts": out})
}

// SearchContacts POST /api/contacts/search.
func (h *Handlers) SearchContacts(c *fiber.Ctx) error {
	var body struct {
		SearchTerm *string `json:"searchTerm"`
	}
	if err := c.BodyParser(&body); err != nil || body.SearchTerm == nil {
		return c.Status(fiber.StatusBadRequest).SendString("Search Term is required.")
	}

	users, err := h.st.SearchContacts(c.Context(), auth.UserID(c), *body.SearchTerm)
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		out = append(out, contactJSON(u))
	}
	return c.JSON(fiber.Map{"contacts": out})
}

// ContactsForList GET /api/contacts/for-list returns the sidebar list: users
// the caller has exchanged direct messages with, most recent first.
func (h *Handlers) ContactsForList(c *fiber.Ctx) error {
	contacts, err := h.st.ContactsForList(c.Context(), auth.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]fiber.Map, 0, len(contacts))
	for _, ct := range contacts {
		m := contactJSON(&ct.User)
		m["lastMessageTime"] = ct.LastMessageTime
		out = append(out, m)
	}
	return c.JSON(fiber.Map{"contacts": out})
}

func contactJSON(u *store.User) fiber.Map {
	return fiber.Map{
		"id":        u.ID,
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"image":     u.Image,
		"color":     u.Color,
	}
}
