package database

import (
	"gorm.io/gorm"

	"github.com/ghostlan/ghostlan/internal/models"
)

func (d *Database) SaveMessage(message *models.Message) error {
	return storeErr("save message", d.db.Create(message).Error)
}

func (d *Database) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	if err := d.db.First(&message, "id = ?", id).Error; err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, storeErr("get message", err)
	}
	return &message, nil
}

func (d *Database) ListMessages() ([]models.Message, error) {
	var messages []models.Message
	if err := d.db.Order("seq").Find(&messages).Error; err != nil {
		return nil, storeErr("list messages", err)
	}
	return messages, nil
}

func (d *Database) GetChatMessages(chatID string) ([]models.Message, error) {
	var messages []models.Message
	if err := d.db.Where("chat_id = ?", chatID).Order("seq").Find(&messages).Error; err != nil {
		return nil, storeErr("get chat messages", err)
	}
	return messages, nil
}

func (d *Database) UpdateReactions(messageID string, reactions models.ReactionMap) error {
	return storeErr("update reactions",
		d.db.Model(&models.Message{}).Where("id = ?", messageID).
			Update("reactions", reactions).Error)
}

// MarkChatRead отмечает прочитанными все чужие сообщения чата для
// пользователя. Повторный вызов ничего не меняет. Все строки обновляются
// в одной транзакции: набор readBy должен измениться целиком или никак.
func (d *Database) MarkChatRead(chatID, userID string) (int, error) {
	changed := 0
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var messages []models.Message
		if err := tx.Where("chat_id = ?", chatID).Order("seq").Find(&messages).Error; err != nil {
			return err
		}
		for i := range messages {
			msg := &messages[i]
			if msg.SenderID == userID || msg.ReadByUser(userID) {
				continue
			}
			msg.ReadBy = append(msg.ReadBy, userID)
			msg.Status = models.StatusRead
			updates := map[string]interface{}{
				"read_by": msg.ReadBy,
				"status":  msg.Status,
			}
			if err := tx.Model(&models.Message{}).Where("seq = ?", msg.Seq).Updates(updates).Error; err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, storeErr("mark chat read", err)
	}
	return changed, nil
}

func (d *Database) DeleteMessage(id string) error {
	return storeErr("delete message", d.db.Delete(&models.Message{}, "id = ?", id).Error)
}
