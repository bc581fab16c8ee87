package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageVideo    MessageType = "video"
	MessageDocument MessageType = "document"
)

type MessageStatus string

const (
	StatusSent MessageStatus = "sent"
	StatusRead MessageStatus = "read"
)

// ReplyRef — снимок цитируемого сообщения. Это копия, а не ссылка:
// она переживает удаление оригинала.
type ReplyRef struct {
	MessageID  string `json:"messageId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
}

// ReactionMap хранит реакции как emoji -> список пользователей.
// Каждый пользователь встречается не более одного раза на emoji.
type ReactionMap map[string][]string

// Has сообщает, поставил ли пользователь эту реакцию.
func (m ReactionMap) Has(emoji, userID string) bool {
	for _, id := range m[emoji] {
		if id == userID {
			return true
		}
	}
	return false
}

// Toggle переключает реакцию пользователя: повторное нажатие снимает её,
// пустой список под emoji удаляется целиком.
func (m ReactionMap) Toggle(emoji, userID string) {
	if m.Has(emoji, userID) {
		kept := m[emoji][:0]
		for _, id := range m[emoji] {
			if id != userID {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(m, emoji)
		} else {
			m[emoji] = kept
		}
		return
	}
	m[emoji] = append(m[emoji], userID)
}

func (m ReactionMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *ReactionMap) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = ReactionMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("reactions: unsupported column type %T", value)
	}
	if len(raw) == 0 {
		*m = ReactionMap{}
		return nil
	}
	out := ReactionMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("reactions: malformed stored value: %w", err)
	}
	*m = out
	return nil
}

func (ReactionMap) GormDataType() string { return "json" }

// Message — единица переписки. Seq — монотонный ключ вставки, он же
// разрешает конфликт сортировки при одинаковых timestamp.
type Message struct {
	Seq       uint64      `gorm:"primaryKey;autoIncrement" json:"seq"`
	ID        string      `gorm:"uniqueIndex;not null" json:"id"`
	ChatID    string      `gorm:"index;not null" json:"chatId"`
	SenderID  string      `gorm:"not null" json:"senderId"`
	Content   string      `json:"content"`
	Type      MessageType `gorm:"default:text" json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	IsSecret  bool        `json:"isSecret"`

	ReplyTo   datatypes.JSONType[*ReplyRef] `json:"replyTo"`
	Reactions ReactionMap                   `gorm:"type:json" json:"reactions"`
	ReadBy    datatypes.JSONSlice[string]   `json:"readBy"`

	Status MessageStatus `gorm:"default:sent" json:"status"`
}

// ReadByUser сообщает, отметил ли пользователь сообщение прочитанным.
func (m *Message) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}
