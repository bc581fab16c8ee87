package handlers

import (
	"github.com/ghostlan/ghostlan/internal/handlers/dto"
	"github.com/ghostlan/ghostlan/internal/projector"
	ws "github.com/ghostlan/ghostlan/internal/websocket"
)

// refreshUsers пересобирает снапшот {users, chats} и доставляет каждому
// из перечисленных пользователей его собственный срез: только те чаты,
// которые он должен видеть.
func (h *IntentHandler) refreshUsers(userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	contacts, views, err := h.buildSnapshot()
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		data := dto.InitialData{
			Users: contacts,
			Chats: projector.VisibleTo(views, userID),
		}
		message, err := ws.MarshalEvent(ws.EventInitialData, data)
		if err != nil {
			return err
		}
		h.hub.SendToUser(userID, message)
	}
	return nil
}

func (h *IntentHandler) buildSnapshot() ([]dto.Contact, []projector.ChatView, error) {
	users, err := h.db.ListUsers()
	if err != nil {
		return nil, nil, err
	}
	chats, err := h.db.ListChats()
	if err != nil {
		return nil, nil, err
	}
	messages, err := h.db.ListMessages()
	if err != nil {
		return nil, nil, err
	}

	online := h.presence.Online()
	contacts := make([]dto.Contact, len(users))
	for i, u := range users {
		contacts[i] = dto.Contact{
			ID:         u.ID,
			Name:       u.Name,
			Role:       u.Role,
			Department: u.Department,
			IsOnline:   online[u.ID],
		}
	}

	return contacts, projector.ProjectAll(chats, messages), nil
}
