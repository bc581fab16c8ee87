// Package projector превращает строки хранилища в представление
// chat -> упорядоченные сообщения, которое уходит клиентам. Это чистое
// преобразование: одно и то же состояние базы всегда дает один и тот же
// результат, ничего не пишется и не кешируется.
package projector

import (
	"sort"
	"time"

	"github.com/ghostlan/ghostlan/internal/models"
)

type ChatView struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         models.ChatType `json:"type"`
	Participants []string        `json:"participants"`
	HiddenBy     []string        `json:"hiddenBy"`
	Messages     []MessageView   `json:"messages"`
}

type MessageView struct {
	ID        string               `json:"id"`
	ChatID    string               `json:"chatId"`
	SenderID  string               `json:"senderId"`
	Content   string               `json:"content"`
	Type      models.MessageType   `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	IsSecret  bool                 `json:"isSecret"`
	ReplyTo   *models.ReplyRef     `json:"replyTo"`
	Reactions models.ReactionMap   `json:"reactions"`
	ReadBy    []string             `json:"readBy"`
	Status    models.MessageStatus `json:"status"`

	// seq участвует только в сортировке, клиенту не отдается.
	seq uint64
}

// ProjectAll строит представление каждого чата. Сообщения сортируются по
// timestamp, при равенстве — по монотонному seq вставки, так что порядок
// детерминирован.
func ProjectAll(chats []models.Chat, messages []models.Message) []ChatView {
	byChat := make(map[string][]MessageView, len(chats))
	for i := range messages {
		mv := ProjectMessage(&messages[i])
		byChat[mv.ChatID] = append(byChat[mv.ChatID], mv)
	}

	views := make([]ChatView, 0, len(chats))
	for i := range chats {
		chat := &chats[i]

		msgs := byChat[chat.ID]
		sort.SliceStable(msgs, func(a, b int) bool {
			if msgs[a].Timestamp.Equal(msgs[b].Timestamp) {
				return msgs[a].seq < msgs[b].seq
			}
			return msgs[a].Timestamp.Before(msgs[b].Timestamp)
		})
		if msgs == nil {
			msgs = []MessageView{}
		}

		views = append(views, ChatView{
			ID:           chat.ID,
			Name:         chat.Name,
			Type:         chat.Type,
			Participants: append([]string{}, chat.Participants...),
			HiddenBy:     append([]string{}, chat.HiddenBy...),
			Messages:     msgs,
		})
	}
	return views
}

// ProjectMessage переводит одну строку сообщения в представление для
// клиента, декодируя структурные поля.
func ProjectMessage(m *models.Message) MessageView {
	reactions := m.Reactions
	if reactions == nil {
		reactions = models.ReactionMap{}
	}

	readBy := append([]string{}, m.ReadBy...)

	return MessageView{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Type:      m.Type,
		Timestamp: m.Timestamp,
		IsSecret:  m.IsSecret,
		ReplyTo:   m.ReplyTo.Data(),
		Reactions: reactions,
		ReadBy:    readBy,
		Status:    m.Status,
		seq:       m.Seq,
	}
}

// VisibleTo отбирает чаты, которые пользователь должен видеть:
// broadcast — всегда, остальные — только участникам и только если
// пользователь их не скрыл.
func VisibleTo(views []ChatView, userID string) []ChatView {
	visible := make([]ChatView, 0, len(views))
	for _, v := range views {
		if v.Type != models.ChatBroadcast {
			if !containsID(v.Participants, userID) {
				continue
			}
			if containsID(v.HiddenBy, userID) {
				continue
			}
		}
		visible = append(visible, v)
	}
	return visible
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
