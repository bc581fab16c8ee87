package database

import (
	"github.com/ghostlan/ghostlan/internal/models"
)

func (d *Database) SaveUser(user *models.User) error {
	return storeErr("save user", d.db.Create(user).Error)
}

func (d *Database) GetUser(id string) (*models.User, error) {
	user := models.User{}
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, storeErr("get user", err)
	}
	return &user, nil
}

// FindUserByCredentials — проверка логина. Пароль сравнивается как есть:
// хранилище держит его открытым текстом.
func (d *Database) FindUserByCredentials(id, password string) (*models.User, error) {
	user := models.User{}
	err := d.db.Where("id = ? AND password = ?", id, password).First(&user).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, storeErr("find user", err)
	}
	return &user, nil
}

func (d *Database) UpdatePassword(id, newPassword string) error {
	return storeErr("update password",
		d.db.Model(&models.User{}).Where("id = ?", id).Update("password", newPassword).Error)
}

func (d *Database) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := d.db.Order("id").Find(&users).Error; err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

func (d *Database) ListUserIDs() ([]string, error) {
	var ids []string
	if err := d.db.Model(&models.User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, storeErr("list user ids", err)
	}
	return ids, nil
}

func (d *Database) CountUsers() (int64, error) {
	var n int64
	if err := d.db.Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, storeErr("count users", err)
	}
	return n, nil
}
