package handlers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ghostlan/ghostlan/internal/database"
	"github.com/ghostlan/ghostlan/internal/handlers/dto"
	"github.com/ghostlan/ghostlan/internal/models"
	"github.com/ghostlan/ghostlan/internal/projector"
	ws "github.com/ghostlan/ghostlan/internal/websocket"
)

func (h *IntentHandler) handleSendMessage(client *ws.Client, intent *ws.Intent) error {
	var payload dto.SendMessagePayload
	if err := json.Unmarshal(intent.Data, &payload); err != nil {
		return ws.ErrInvalidIntent
	}
	if payload.ChatID == "" || payload.SenderID == "" {
		return ws.ErrInvalidIntent
	}

	chat, err := h.db.GetChat(payload.ChatID)
	if err != nil {
		if database.IsNotFound(err) {
			return ErrChatNotFound
		}
		return err
	}

	msgType := payload.Type
	if msgType == "" {
		msgType = models.MessageText
	}

	message := &models.Message{
		ID:        uuid.New().String(),
		ChatID:    chat.ID,
		SenderID:  payload.SenderID,
		Content:   payload.Content,
		Type:      msgType,
		Timestamp: time.Now(),
		IsSecret:  payload.IsSecret,
		ReplyTo:   datatypes.NewJSONType(payload.ReplyTo),
		Reactions: models.ReactionMap{},
		ReadBy:    datatypes.JSONSlice[string]{},
		Status:    models.StatusSent,
	}

	if err := h.db.SaveMessage(message); err != nil {
		return err
	}

	// Новое сообщение возвращает чат всем, кто его скрывал
	if err := h.db.ClearHiddenBy(chat.ID); err != nil {
		return err
	}

	event, err := ws.MarshalEvent(ws.EventReceiveMessage, projector.ProjectMessage(message))
	if err != nil {
		return err
	}
	return h.pushToAudience(chat, event)
}

func (h *IntentHandler) handleMarkRead(client *ws.Client, intent *ws.Intent) error {
	var payload dto.MarkReadPayload
	if err := json.Unmarshal(intent.Data, &payload); err != nil {
		return ws.ErrInvalidIntent
	}
	if payload.ChatID == "" || payload.UserID == "" {
		return ws.ErrInvalidIntent
	}

	chat, err := h.db.GetChat(payload.ChatID)
	if err != nil {
		if database.IsNotFound(err) {
			return ErrChatNotFound
		}
		return err
	}

	if _, err := h.db.MarkChatRead(chat.ID, payload.UserID); err != nil {
		return err
	}

	// Broadcast-каналы живут без квитанций о прочтении
	if chat.Type == models.ChatBroadcast {
		return nil
	}

	event, err := ws.MarshalEvent(ws.EventMessagesRead, dto.ReadUpdate{
		ChatID: chat.ID,
		UserID: payload.UserID,
	})
	if err != nil {
		return err
	}
	for _, userID := range chat.Participants {
		h.hub.SendToUser(userID, event)
	}
	return nil
}

func (h *IntentHandler) handleAddReaction(client *ws.Client, intent *ws.Intent) error {
	var payload dto.AddReactionPayload
	if err := json.Unmarshal(intent.Data, &payload); err != nil {
		return ws.ErrInvalidIntent
	}
	if payload.MessageID == "" || payload.Emoji == "" || payload.UserID == "" {
		return ws.ErrInvalidIntent
	}

	message, err := h.db.GetMessage(payload.MessageID)
	if err != nil {
		if database.IsNotFound(err) {
			return ErrMessageNotFound
		}
		return err
	}

	reactions := message.Reactions
	if reactions == nil {
		reactions = models.ReactionMap{}
	}
	reactions.Toggle(payload.Emoji, payload.UserID)

	if err := h.db.UpdateReactions(message.ID, reactions); err != nil {
		return err
	}

	chat, err := h.db.GetChat(payload.ChatID)
	if err != nil {
		if database.IsNotFound(err) {
			// Реакция сохранена, рассылать некому
			return nil
		}
		return err
	}

	event, err := ws.MarshalEvent(ws.EventReactionUpd, dto.ReactionUpdate{
		ChatID:    chat.ID,
		MessageID: message.ID,
		Reactions: reactions,
	})
	if err != nil {
		return err
	}
	return h.pushToAudience(chat, event)
}

func (h *IntentHandler) handleDeleteMessage(client *ws.Client, intent *ws.Intent) error {
	var payload dto.DeleteMessagePayload
	if err := json.Unmarshal(intent.Data, &payload); err != nil {
		return ws.ErrInvalidIntent
	}
	if payload.MessageID == "" {
		return ws.ErrInvalidIntent
	}

	if err := h.db.DeleteMessage(payload.MessageID); err != nil {
		return err
	}

	chat, err := h.db.GetChat(payload.ChatID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil
		}
		return err
	}

	audience, err := h.audienceFor(chat)
	if err != nil {
		return err
	}
	return h.refreshUsers(audience)
}
