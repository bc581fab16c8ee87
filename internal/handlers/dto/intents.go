package dto

import "github.com/ghostlan/ghostlan/internal/models"

// RegisterPayload — привязка соединения к идентичности. Идентичность
// принимается на веру: серверной проверки против сессии нет.
type RegisterPayload struct {
	UserID string `json:"userId"`
}

type CreateGroupPayload struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

type CreateDirectChatPayload struct {
	SenderID      string `json:"senderId"`
	ParticipantID string `json:"participantId"`
}

type SendMessagePayload struct {
	ChatID   string             `json:"chatId"`
	Content  string             `json:"content"`
	SenderID string             `json:"senderId"`
	Type     models.MessageType `json:"type,omitempty"`
	IsSecret bool               `json:"isSecret,omitempty"`
	ReplyTo  *models.ReplyRef   `json:"replyTo,omitempty"`
}

type MarkReadPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type AddReactionPayload struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	UserID    string `json:"userId"`
}

type DeleteMessagePayload struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

// DeleteChatPayload: Mode "hard" удаляет чат со всеми сообщениями,
// "soft" лишь скрывает его у одного пользователя.
type DeleteChatPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
	Mode   string `json:"type"`
}
