package database

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ghostlan/ghostlan/internal/models"
)

func (d *Database) CreateChat(chat *models.Chat) error {
	return storeErr("create chat", d.db.Create(chat).Error)
}

func (d *Database) GetChat(id string) (*models.Chat, error) {
	var chat models.Chat
	if err := d.db.First(&chat, "id = ?", id).Error; err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, storeErr("get chat", err)
	}
	return &chat, nil
}

func (d *Database) ListChats() ([]models.Chat, error) {
	var chats []models.Chat
	if err := d.db.Find(&chats).Error; err != nil {
		return nil, storeErr("list chats", err)
	}
	return chats, nil
}

// GetOrCreateDirectChat находит direct-чат для неупорядоченной пары
// пользователей или создает его. Список участников хранится JSON-колонкой,
// поэтому пару ищем по загруженным direct-чатам, их немного.
func (d *Database) GetOrCreateDirectChat(senderID, participantID string) (*models.Chat, bool, error) {
	var directs []models.Chat
	if err := d.db.Where("type = ?", models.ChatDirect).Find(&directs).Error; err != nil {
		return nil, false, storeErr("find direct chat", err)
	}

	for i := range directs {
		if directs[i].HasParticipant(senderID) && directs[i].HasParticipant(participantID) {
			return &directs[i], false, nil
		}
	}

	chat := &models.Chat{
		ID:           uuid.New().String(),
		Name:         "Direct Message",
		Type:         models.ChatDirect,
		Participants: datatypes.JSONSlice[string]{senderID, participantID},
		HiddenBy:     datatypes.JSONSlice[string]{},
	}
	if err := d.db.Create(chat).Error; err != nil {
		return nil, false, storeErr("create direct chat", err)
	}

	return chat, true, nil
}

func (d *Database) UpdateHiddenBy(chatID string, hiddenBy []string) error {
	return storeErr("update hiddenBy",
		d.db.Model(&models.Chat{}).Where("id = ?", chatID).
			Update("hidden_by", datatypes.JSONSlice[string](hiddenBy)).Error)
}

// ClearHiddenBy снимает скрытие чата у всех: новое сообщение возвращает
// чат в список каждому, кто его прятал.
func (d *Database) ClearHiddenBy(chatID string) error {
	return storeErr("clear hiddenBy",
		d.db.Model(&models.Chat{}).Where("id = ?", chatID).
			Update("hidden_by", datatypes.JSONSlice[string]{}).Error)
}

// DeleteChat жестко удаляет чат вместе с его сообщениями, атомарно.
func (d *Database) DeleteChat(id string) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Message{}, "chat_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Chat{}, "id = ?", id).Error
	})
	return storeErr("delete chat", err)
}
