package dto

import (
	"github.com/ghostlan/ghostlan/internal/models"
	"github.com/ghostlan/ghostlan/internal/projector"
)

// Contact — пользователь в снапшоте, с вычисленным присутствием.
type Contact struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	IsOnline   bool   `json:"isOnline"`
}

// InitialData — полный снапшот {users, chats} для одного пользователя.
type InitialData struct {
	Users []Contact            `json:"users"`
	Chats []projector.ChatView `json:"chats"`
}

type ReactionUpdate struct {
	ChatID    string             `json:"chatId"`
	MessageID string             `json:"messageId"`
	Reactions models.ReactionMap `json:"reactions"`
}

type ReadUpdate struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}
