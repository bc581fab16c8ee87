package handlers

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ghostlan/ghostlan/internal/database"
	"github.com/ghostlan/ghostlan/internal/handlers/dto"
	"github.com/ghostlan/ghostlan/internal/models"
	"github.com/ghostlan/ghostlan/internal/projector"
	ws "github.com/ghostlan/ghostlan/internal/websocket"
)

// handleRegister привязывает соединение к заявленной идентичности и
// отправляет ей полный снапшот. Идентичность не проверяется — это
// осознанная дыра доверия локальной сети.
func (h *IntentHandler) handleRegister(client *ws.Client, intent *ws.Intent) error {
	var payload dto.RegisterPayload
	if err := json.Unmarshal(intent.Data, &payload); err != nil {
		// Старые клиенты шлют идентичность голой строкой
		if err2 := json.Unmarshal(intent.Data, &payload.UserID); err2 != nil {
			return ws.ErrInvalidIntent
		}
	}
	if payload.UserID == "" {
		return ws.ErrInvalidIntent
	}

	h.hub.Bind(client, payload.UserID)

	return h.refreshUsers([]string{payload.UserID})
}

func (h *IntentHandler) handleCreateGroup(client *ws.Client, intent *ws.Intent) error {
	var payload dto.CreateGroupPayload
	if err := json.Unmarshal(intent.Data, &payload); err != nil {
		return ws.ErrInvalidIntent
	}
	if payload.Name == "" {
		return ErrEmptyGroupName
	}
	if len(payload.Participants) == 0 {
		return ErrNoParticipants
	}

	chat := &models.Chat{
		ID:           uuid.New().String(),
		Name:         payload.Name,
		Type:         models.ChatGroup,
		Participants: datatypes.JSONSlice[string](payload.Participants),
		HiddenBy:     datatypes.JSONSlice[string]{},
	}
	if err := h.db.CreateChat(chat); err != nil {
		return err
	}

	if err := h.refreshUsers(payload.Participants); err != nil {
		return err
	}

	view := emptyChatView(chat)
	message, err := ws.MarshalEvent(ws.EventOpenChat, view)
	if err != nil {
		return err
	}
	for _, userID := range payload.Participants {
		h.hub.SendToUser(userID, message)
	}
	return nil
}

func (h *IntentHandler) handleCreateDirectChat(client *ws.Client, intent *ws.Intent) error {
	var payload dto.CreateDirectChatPayload
	if err := json.Unmarshal(intent.Data, &payload); err != nil {
		return ws.ErrInvalidIntent
	}
	if payload.SenderID == "" || payload.ParticipantID == "" {
		return ws.ErrInvalidIntent
	}

	chat, created, err := h.db.GetOrCreateDirectChat(payload.SenderID, payload.ParticipantID)
	if err != nil {
		return err
	}

	if created {
		if err := h.refreshUsers([]string{payload.SenderID, payload.ParticipantID}); err != nil {
			return err
		}
	}

	view, err := h.projectChat(chat)
	if err != nil {
		return err
	}

	// openChat открывает диалог только на экране запросившего
	return client.SendEvent(ws.EventOpenChat, view)
}

func (h *IntentHandler) handleDeleteChat(client *ws.Client, intent *ws.Intent) error {
	var payload dto.DeleteChatPayload
	if err := json.Unmarshal(intent.Data, &payload); err != nil {
		return ws.ErrInvalidIntent
	}

	chat, err := h.db.GetChat(payload.ChatID)
	if err != nil {
		if database.IsNotFound(err) {
			return ErrChatNotFound
		}
		return err
	}

	// Аудитория вычисляется до удаления
	audience, err := h.audienceFor(chat)
	if err != nil {
		return err
	}

	switch payload.Mode {
	case "hard":
		if chat.Type == models.ChatBroadcast {
			return ErrBroadcastDelete
		}
		if err := h.db.DeleteChat(chat.ID); err != nil {
			return err
		}

	case "soft":
		if !chat.HiddenFor(payload.UserID) {
			hiddenBy := append([]string(chat.HiddenBy), payload.UserID)
			if err := h.db.UpdateHiddenBy(chat.ID, hiddenBy); err != nil {
				return err
			}
		}

	default:
		return ErrBadDeleteMode
	}

	return h.refreshUsers(audience)
}

// projectChat собирает представление одного чата вместе с его историей.
func (h *IntentHandler) projectChat(chat *models.Chat) (projector.ChatView, error) {
	messages, err := h.db.GetChatMessages(chat.ID)
	if err != nil {
		return projector.ChatView{}, err
	}
	views := projector.ProjectAll([]models.Chat{*chat}, messages)
	return views[0], nil
}

func emptyChatView(chat *models.Chat) projector.ChatView {
	return projector.ChatView{
		ID:           chat.ID,
		Name:         chat.Name,
		Type:         chat.Type,
		Participants: append([]string{}, chat.Participants...),
		HiddenBy:     []string{},
		Messages:     []projector.MessageView{},
	}
}
