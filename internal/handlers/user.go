package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghostlan/ghostlan/internal/database"
)

type UserHandler struct {
	db *database.Database
}

func NewUserHandler(db *database.Database) *UserHandler {
	return &UserHandler{db: db}
}

// Contacts отдает справочник пользователей. Пароли не сериализуются
// (json:"-" на модели).
func (h *UserHandler) Contacts(c *gin.Context) {
	users, err := h.db.ListUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}
