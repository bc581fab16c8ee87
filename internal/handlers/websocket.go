package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	ws "github.com/ghostlan/ghostlan/internal/websocket"
)

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	hub           *ws.Hub
	intentHandler *IntentHandler
	upgrader      websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, intentHandler *IntentHandler) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		intentHandler: intentHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Сервис живет в доверенной LAN, origin не проверяем
				return true
			},
		},
	}
}

// HandleWebSocket апгрейдит соединение. Идентичность клиент заявит
// позже интентом register.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.intentHandler)
}
