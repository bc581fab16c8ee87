package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghostlan/ghostlan/internal/models"
)

// UploadHandler принимает файл и возвращает URL для вставки в сообщение.
// Для ядра синхронизации контент — непрозрачная строка; здесь лишь
// подсказываем клиенту тип сообщения по MIME-префиксу.
type UploadHandler struct {
	dir string
}

func NewUploadHandler(dir string) *UploadHandler {
	return &UploadHandler{dir: dir}
}

func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	filename := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, filename)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	mime := file.Header.Get("Content-Type")
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"fileUrl":     fmt.Sprintf("http://%s/uploads/%s", c.Request.Host, filename),
		"fileType":    mime,
		"messageType": MessageTypeForMIME(mime),
	})
}

// MessageTypeForMIME выбирает тип сообщения по MIME: image/* и video/*
// узнаются по префиксу, все остальное — документ.
func MessageTypeForMIME(mime string) models.MessageType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return models.MessageImage
	case strings.HasPrefix(mime, "video/"):
		return models.MessageVideo
	default:
		return models.MessageDocument
	}
}
