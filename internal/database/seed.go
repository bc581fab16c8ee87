package database

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ghostlan/ghostlan/internal/models"
)

var seedDepartments = []string{"IT", "HR", "Sales", "Legal", "Operations", "Finance", "R&D", "Logistics"}

// Seed наполняет пустую базу демонстрационными данными: 505 пользователей,
// общий broadcast-канал, группа IT и 200 сообщений истории. На непустой
// базе ничего не делает.
func (d *Database) Seed() error {
	count, err := d.CountUsers()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Println("Database empty, seeding demo data")

	keyUsers := []models.User{
		{ID: "11-001", Name: "Vikram Malhotra", Role: "head", Department: "IT", Password: "pass123"},
		{ID: "90001", Name: "Rajesh Verma", Role: "officer", Department: "HR", Password: "pass123"},
		{ID: "90002", Name: "Suresh Nair", Role: "head", Department: "Finance", Password: "pass123"},
		{ID: "10001", Name: "Arjun Mehta", Role: "worker", Department: "Manufacturing", Password: "pass123"},
		{ID: "10002", Name: "Priya Singh", Role: "worker", Department: "Legal", Password: "pass123"},
	}

	err = d.db.Transaction(func(tx *gorm.DB) error {
		for i := range keyUsers {
			if err := tx.Create(&keyUsers[i]).Error; err != nil {
				return err
			}
		}

		employees := make([]models.User, 0, 500)
		for i := 1; i <= 500; i++ {
			role := "worker"
			if i%10 == 0 {
				role = "manager"
			}
			employees = append(employees, models.User{
				ID:         fmt.Sprintf("EMP-%04d", i),
				Name:       fmt.Sprintf("Employee %d", i),
				Role:       role,
				Department: seedDepartments[rand.Intn(len(seedDepartments))],
				Password:   "pass123",
			})
		}
		if err := tx.CreateInBatches(employees, 100).Error; err != nil {
			return err
		}

		chats := []models.Chat{
			{
				ID:           "broadcast-1",
				Name:         "General Announcements",
				Type:         models.ChatBroadcast,
				Participants: datatypes.JSONSlice[string]{},
				HiddenBy:     datatypes.JSONSlice[string]{},
			},
			{
				ID:           "group-it",
				Name:         "IT Department",
				Type:         models.ChatGroup,
				Participants: datatypes.JSONSlice[string]{"11-001", "90001", "EMP-0001", "EMP-0002"},
				HiddenBy:     datatypes.JSONSlice[string]{},
			},
		}
		for i := range chats {
			if err := tx.Create(&chats[i]).Error; err != nil {
				return err
			}
		}

		messages := make([]models.Message, 0, 200)
		now := time.Now()
		for i := 0; i < 200; i++ {
			chatID := "group-it"
			senderID := "EMP-0001"
			if i%5 == 0 {
				chatID = "broadcast-1"
				senderID = "11-001"
			} else if i%2 == 0 {
				senderID = "90001"
			}
			messages = append(messages, models.Message{
				ID:        fmt.Sprintf("msg-%d", i),
				ChatID:    chatID,
				SenderID:  senderID,
				Content:   fmt.Sprintf("Enterprise system test message #%d. System status: OK.", i),
				Type:      models.MessageText,
				Timestamp: now.Add(-time.Duration(200-i) * 10 * time.Minute),
				Reactions: models.ReactionMap{},
				ReadBy:    datatypes.JSONSlice[string]{},
				Status:    models.StatusSent,
			})
		}
		return tx.CreateInBatches(messages, 100).Error
	})
	if err != nil {
		return storeErr("seed", err)
	}

	log.Println("Seeding complete: 505 users, 2 chats, 200 messages")
	return nil
}
