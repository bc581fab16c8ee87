package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// IntentType — входящие команды клиента.
type IntentType string

const (
	IntentRegister      IntentType = "register"
	IntentCreateGroup   IntentType = "createGroup"
	IntentCreateDirect  IntentType = "createDirectChat"
	IntentSendMessage   IntentType = "send_message"
	IntentMarkRead      IntentType = "mark_messages_read"
	IntentAddReaction   IntentType = "add_reaction"
	IntentDeleteMessage IntentType = "delete_message"
	IntentDeleteChat    IntentType = "delete_chat"
	IntentPong          IntentType = "pong"
)

// EventType — исходящие push-события сервера.
type EventType string

const (
	EventInitialData    EventType = "initialData"
	EventOpenChat       EventType = "openChat"
	EventReceiveMessage EventType = "receiveMessage"
	EventReactionUpd    EventType = "reactionUpdated"
	EventMessagesRead   EventType = "messages_read_update"
	EventPing           EventType = "ping"
	EventError          EventType = "error"
)

type Intent struct {
	Type IntentType      `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Event struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// MarshalEvent собирает конверт события с полезной нагрузкой.
func MarshalEvent(t EventType, payload interface{}) ([]byte, error) {
	ev := Event{Type: t, Timestamp: time.Now()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		ev.Data = data
	}
	return json.Marshal(ev)
}

type Client struct {
	ID   uuid.UUID
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub

	mu sync.RWMutex
	// userID пустой, пока соединение не заявило register
	userID string
}

// Hub — реестр сессий: соединение привязывается к группе доставки,
// равной заявленной идентичности пользователя. Один пользователь может
// держать несколько соединений. Доставка best-effort: если соединений
// нет, событие молча пропадает.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Соединения по идентичности пользователя
	userClients map[string]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run запускает цикл реестра.
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop закрывает все соединения и останавливает цикл.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.userClients = make(map[string]map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	log.Printf("Client connected: %s", client.ID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	h.removeBindingUnsafe(client)
	delete(h.clients, client.ID)
	close(client.Send)

	// Никаких offline-уведомлений другим пользователям: присутствие
	// пересчитывается только при сборке снапшота.
	log.Printf("Client disconnected: %s (user %q)", client.ID, client.UserID())
}

// Bind привязывает соединение к группе доставки пользователя.
// Повторная привязка к той же группе идемпотентна; смена идентичности
// убирает соединение из старой группы.
func (h *Hub) Bind(client *Client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeBindingUnsafe(client)

	client.setUserID(userID)
	if _, ok := h.userClients[userID]; !ok {
		h.userClients[userID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[userID][client.ID] = client

	log.Printf("Client %s bound to user %s", client.ID, userID)
}

func (h *Hub) removeBindingUnsafe(client *Client) {
	userID := client.UserID()
	if userID == "" {
		return
	}
	if group, ok := h.userClients[userID]; ok {
		delete(group, client.ID)
		if len(group) == 0 {
			delete(h.userClients, userID)
		}
	}
	client.setUserID("")
}

// SendToUser доставляет событие каждому соединению группы пользователя.
// Гонка с отключением может молча потерять получателя — контракт
// доставки это допускает.
func (h *Hub) SendToUser(userID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userClients[userID] {
		select {
		case client.Send <- message:
		default:
			log.Printf("Client %s send channel full", client.ID)
		}
	}
}

// Broadcast доставляет событие всем подключенным соединениям независимо
// от привязки.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- message:
		default:
			log.Printf("Client %s send channel full", client.ID)
		}
	}
}

// IsOnline сообщает, есть ли у пользователя хотя бы одно живое соединение.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID]) > 0
}

// OnlineUsers возвращает идентичности со связанными соединениями.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}

func (h *Hub) ping() {
	data, err := MarshalEvent(EventPing, nil)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}
