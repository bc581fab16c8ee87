package models

import (
	"gorm.io/datatypes"
)

type ChatType string

const (
	ChatDirect    ChatType = "direct"
	ChatGroup     ChatType = "group"
	ChatBroadcast ChatType = "broadcast"
)

// Chat — комната общения. Для direct всегда ровно два участника,
// для broadcast список участников не используется: адресатами считаются
// все пользователи.
type Chat struct {
	ID   string   `gorm:"primaryKey" json:"id"`
	Name string   `gorm:"not null" json:"name"`
	Type ChatType `gorm:"not null" json:"type"`

	// Participants хранится как типизированная JSON-колонка, порядок
	// сохраняется для отображения.
	Participants datatypes.JSONSlice[string] `json:"participants"`

	// HiddenBy — пользователи, скрывшие чат у себя (soft delete).
	HiddenBy datatypes.JSONSlice[string] `json:"hiddenBy"`
}

// HasParticipant сообщает, входит ли пользователь в явный список участников.
func (c *Chat) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// HiddenFor сообщает, скрыл ли пользователь этот чат у себя.
func (c *Chat) HiddenFor(userID string) bool {
	for _, id := range c.HiddenBy {
		if id == userID {
			return true
		}
	}
	return false
}
