package handlers

import (
	"log"

	"github.com/ghostlan/ghostlan/internal/database"
	"github.com/ghostlan/ghostlan/internal/models"
	"github.com/ghostlan/ghostlan/internal/presence"
	ws "github.com/ghostlan/ghostlan/internal/websocket"
)

// IntentHandler — маршрутизатор интентов: проверить форму, изменить
// хранилище, вычислить аудиторию, разослать событие. Любой сбой
// хранилища прерывает интент до рассылки; повторов нет, клиент шлет
// интент заново сам.
type IntentHandler struct {
	db       *database.Database
	hub      *ws.Hub
	presence *presence.Tracker
}

func NewIntentHandler(db *database.Database, hub *ws.Hub, tracker *presence.Tracker) *IntentHandler {
	return &IntentHandler{
		db:       db,
		hub:      hub,
		presence: tracker,
	}
}

func (h *IntentHandler) HandleIntent(client *ws.Client, intent *ws.Intent) error {
	switch intent.Type {
	case ws.IntentRegister:
		return h.handleRegister(client, intent)

	case ws.IntentCreateGroup:
		return h.handleCreateGroup(client, intent)

	case ws.IntentCreateDirect:
		return h.handleCreateDirectChat(client, intent)

	case ws.IntentSendMessage:
		return h.handleSendMessage(client, intent)

	case ws.IntentMarkRead:
		return h.handleMarkRead(client, intent)

	case ws.IntentAddReaction:
		return h.handleAddReaction(client, intent)

	case ws.IntentDeleteMessage:
		return h.handleDeleteMessage(client, intent)

	case ws.IntentDeleteChat:
		return h.handleDeleteChat(client, intent)

	default:
		log.Printf("Unknown intent type: %s", intent.Type)
		return nil
	}
}

// audienceFor разрешает аудиторию по типу чата. Broadcast адресуется
// всем пользователям явно, а не пустым списком участников.
func (h *IntentHandler) audienceFor(chat *models.Chat) ([]string, error) {
	if chat.Type == models.ChatBroadcast {
		return h.db.ListUserIDs()
	}
	return chat.Participants, nil
}

// pushToAudience доставляет готовое событие каждому адресату чата.
func (h *IntentHandler) pushToAudience(chat *models.Chat, message []byte) error {
	if chat.Type == models.ChatBroadcast {
		h.hub.Broadcast(message)
		return nil
	}
	for _, userID := range chat.Participants {
		h.hub.SendToUser(userID, message)
	}
	return nil
}
