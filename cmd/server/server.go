package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ghostlan/ghostlan/internal/database"
	"github.com/ghostlan/ghostlan/internal/handlers"
	"github.com/ghostlan/ghostlan/internal/presence"
	ws "github.com/ghostlan/ghostlan/internal/websocket"
)

type Server struct {
	Router *gin.Engine
	DB     *database.Database
	Hub    *ws.Hub
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	db := &database.Database{}
	if err := db.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	if err := db.Seed(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	hub := ws.NewHub()
	tracker := presence.NewTracker(hub)

	intentH := handlers.NewIntentHandler(db, hub, tracker)
	wsH := handlers.NewWebSocketHandler(hub, intentH)
	authH := handlers.NewAuthHandler(db)
	userH := handlers.NewUserHandler(db)

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Fatalf("Cannot create upload dir: %v", err)
	}
	uploadH := handlers.NewUploadHandler(uploadDir)

	router := gin.Default()
	APIEndpoints(router, authH, userH, uploadH, wsH, uploadDir)

	return &Server{
		Router: router,
		DB:     db,
		Hub:    hub,
	}
}

func (s *Server) Run() {
	go s.Hub.Run()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
