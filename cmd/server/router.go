package main

import (
	"github.com/gin-gonic/gin"

	"github.com/ghostlan/ghostlan/internal/handlers"
)

func APIEndpoints(r *gin.Engine, authH *handlers.AuthHandler, userH *handlers.UserHandler, uploadH *handlers.UploadHandler, wsH *handlers.WebSocketHandler, uploadDir string) {
	r.POST("/login", authH.Login)
	r.POST("/change-password", authH.ChangePassword)
	r.GET("/contacts", userH.Contacts)

	r.POST("/upload", uploadH.Upload)
	r.Static("/uploads", uploadDir)

	r.GET("/ws", wsH.HandleWebSocket)
}
