package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghostlan/ghostlan/internal/database"
	"github.com/ghostlan/ghostlan/internal/handlers/dto"
)

// AuthHandler — тривиальный проверщик учетных данных. Токенов и сессий
// нет: ядро обмена сообщениями верит userId из интентов.
type AuthHandler struct {
	db *database.Database
}

func NewAuthHandler(db *database.Database) *AuthHandler {
	return &AuthHandler{db: db}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.FindUserByCredentials(req.ID, req.Password)
	if err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusOK, dto.LoginResponse{Success: false, Message: "Invalid Credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Success:    true,
		ID:         user.ID,
		Name:       user.Name,
		Role:       user.Role,
		Department: user.Department,
	})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.db.FindUserByCredentials(req.EmployeeID, req.OldPassword); err != nil {
		if database.IsNotFound(err) {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "Incorrect Old Password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "change password failed"})
		return
	}

	if err := h.db.UpdatePassword(req.EmployeeID, req.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "change password failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
