package handlers

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ghostlan/ghostlan/internal/database"
	"github.com/ghostlan/ghostlan/internal/handlers/dto"
	"github.com/ghostlan/ghostlan/internal/models"
	"github.com/ghostlan/ghostlan/internal/presence"
	"github.com/ghostlan/ghostlan/internal/projector"
	ws "github.com/ghostlan/ghostlan/internal/websocket"
)

type testRig struct {
	db  *database.Database
	hub *ws.Hub
	h   *IntentHandler
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(&models.User{}, &models.Chat{}, &models.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db := database.NewDatabase(gdb)
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	return &testRig{
		db:  db,
		hub: hub,
		h:   NewIntentHandler(db, hub, presence.NewTracker(hub)),
	}
}

func (r *testRig) addUser(t *testing.T, id, name string) {
	t.Helper()
	if err := r.db.SaveUser(&models.User{ID: id, Name: name, Role: "worker", Department: "IT", Password: "pass123"}); err != nil {
		t.Fatalf("save user %s: %v", id, err)
	}
}

func (r *testRig) addChat(t *testing.T, id string, chatType models.ChatType, participants ...string) {
	t.Helper()
	err := r.db.CreateChat(&models.Chat{
		ID:           id,
		Name:         id,
		Type:         chatType,
		Participants: datatypes.JSONSlice[string](participants),
		HiddenBy:     datatypes.JSONSlice[string]{},
	})
	if err != nil {
		t.Fatalf("create chat %s: %v", id, err)
	}
}

func (r *testRig) addMessage(t *testing.T, id, chatID, senderID, content string) {
	t.Helper()
	err := r.db.SaveMessage(&models.Message{
		ID:        id,
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Type:      models.MessageText,
		Timestamp: time.Now(),
		Reactions: models.ReactionMap{},
		ReadBy:    datatypes.JSONSlice[string]{},
		Status:    models.StatusSent,
	})
	if err != nil {
		t.Fatalf("save message %s: %v", id, err)
	}
}

// connect подключает и привязывает фиктивное соединение.
func (r *testRig) connect(t *testing.T, userID string) *ws.Client {
	t.Helper()
	client := ws.NewClient(r.hub, nil)
	r.hub.Register(client)
	if userID != "" {
		r.hub.Bind(client, userID)
	}
	return client
}

// settle дожидается обработки всех ранее отправленных регистраций:
// нужна перед broadcast-рассылками, идущими по списку соединений.
func (r *testRig) settle() {
	r.hub.Register(ws.NewClient(r.hub, nil))
}

func (r *testRig) dispatch(t *testing.T, client *ws.Client, intentType ws.IntentType, payload interface{}) error {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return r.h.HandleIntent(client, &ws.Intent{Type: intentType, Data: data})
}

func recvEvent(t *testing.T, c *ws.Client, want ws.EventType) ws.Event {
	t.Helper()
	select {
	case raw := <-c.Send:
		var ev ws.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("bad event: %v", err)
		}
		if ev.Type != want {
			t.Fatalf("event type = %s, want %s", ev.Type, want)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no %s event delivered", want)
		return ws.Event{}
	}
}

func assertNoEvent(t *testing.T, c *ws.Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected event: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func decode(t *testing.T, ev ws.Event, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(ev.Data, into); err != nil {
		t.Fatalf("decode %s payload: %v", ev.Type, err)
	}
}

func TestRegisterPushesSnapshotToClaimedIdentityOnly(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addUser(t, "U2", "Second")
	r.addChat(t, "broadcast-1", models.ChatBroadcast)
	r.addChat(t, "direct-12", models.ChatDirect, "U1", "U2")
	r.addChat(t, "direct-23", models.ChatDirect, "U2", "U3")

	u1 := r.connect(t, "")
	u2 := r.connect(t, "U2")

	if err := r.dispatch(t, u1, ws.IntentRegister, dto.RegisterPayload{UserID: "U1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	ev := recvEvent(t, u1, ws.EventInitialData)
	var data dto.InitialData
	decode(t, ev, &data)

	if len(data.Users) != 2 {
		t.Fatalf("users = %d, want 2", len(data.Users))
	}
	for _, u := range data.Users {
		wantOnline := u.ID == "U1" || u.ID == "U2"
		if u.IsOnline != wantOnline {
			t.Errorf("user %s online = %v, want %v", u.ID, u.IsOnline, wantOnline)
		}
	}

	ids := map[string]bool{}
	for _, c := range data.Chats {
		ids[c.ID] = true
	}
	if !ids["broadcast-1"] || !ids["direct-12"] || ids["direct-23"] {
		t.Fatalf("visible chats = %v, want broadcast-1 and direct-12 only", ids)
	}

	// Снапшот уходит только зарегистрировавшемуся
	assertNoEvent(t, u2)
}

func TestRegisterRejectsEmptyIdentity(t *testing.T) {
	r := newTestRig(t)
	u1 := r.connect(t, "")

	err := r.dispatch(t, u1, ws.IntentRegister, dto.RegisterPayload{})
	if !errors.Is(err, ws.ErrInvalidIntent) {
		t.Fatalf("err = %v, want ErrInvalidIntent", err)
	}
}

func TestDirectChatHelloFlow(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addUser(t, "U2", "Second")

	u1 := r.connect(t, "U1")
	u2 := r.connect(t, "U2")

	// Новый direct-чат: обе стороны получают снапшот, запросивший — openChat
	if err := r.dispatch(t, u1, ws.IntentCreateDirect, dto.CreateDirectChatPayload{SenderID: "U1", ParticipantID: "U2"}); err != nil {
		t.Fatalf("createDirectChat: %v", err)
	}
	recvEvent(t, u1, ws.EventInitialData)
	recvEvent(t, u2, ws.EventInitialData)

	open := recvEvent(t, u1, ws.EventOpenChat)
	var chat projector.ChatView
	decode(t, open, &chat)
	if chat.Type != models.ChatDirect || len(chat.Participants) != 2 {
		t.Fatalf("openChat = %+v", chat)
	}
	assertNoEvent(t, u2)

	// Отправка "Hello"
	err := r.dispatch(t, u1, ws.IntentSendMessage, dto.SendMessagePayload{
		ChatID:   chat.ID,
		Content:  "Hello",
		SenderID: "U1",
	})
	if err != nil {
		t.Fatalf("send_message: %v", err)
	}

	var msg projector.MessageView
	decode(t, recvEvent(t, u1, ws.EventReceiveMessage), &msg)
	decode(t, recvEvent(t, u2, ws.EventReceiveMessage), &msg)

	if msg.Content != "Hello" || msg.SenderID != "U1" {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Status != models.StatusSent {
		t.Fatalf("status = %s, want sent", msg.Status)
	}
	if msg.Type != models.MessageText {
		t.Fatalf("type = %s, want text by default", msg.Type)
	}

	// Прочтение со стороны U2
	if err := r.dispatch(t, u2, ws.IntentMarkRead, dto.MarkReadPayload{ChatID: chat.ID, UserID: "U2"}); err != nil {
		t.Fatalf("mark_messages_read: %v", err)
	}

	var upd dto.ReadUpdate
	decode(t, recvEvent(t, u1, ws.EventMessagesRead), &upd)
	decode(t, recvEvent(t, u2, ws.EventMessagesRead), &upd)
	if upd.ChatID != chat.ID || upd.UserID != "U2" {
		t.Fatalf("read update = %+v", upd)
	}

	stored, err := r.db.GetMessage(msg.ID)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if stored.Status != models.StatusRead {
		t.Fatalf("stored status = %s, want read", stored.Status)
	}
	if len(stored.ReadBy) != 1 || stored.ReadBy[0] != "U2" {
		t.Fatalf("stored readBy = %v, want [U2]", stored.ReadBy)
	}
}

func TestCreateDirectChatReusesExistingPair(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addUser(t, "U2", "Second")

	u1 := r.connect(t, "U1")
	u2 := r.connect(t, "U2")

	if err := r.dispatch(t, u1, ws.IntentCreateDirect, dto.CreateDirectChatPayload{SenderID: "U1", ParticipantID: "U2"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	recvEvent(t, u1, ws.EventInitialData)
	recvEvent(t, u2, ws.EventInitialData)
	first := recvEvent(t, u1, ws.EventOpenChat)

	// Повторный запрос той же пары: только openChat, без снапшотов
	if err := r.dispatch(t, u2, ws.IntentCreateDirect, dto.CreateDirectChatPayload{SenderID: "U2", ParticipantID: "U1"}); err != nil {
		t.Fatalf("second create: %v", err)
	}
	second := recvEvent(t, u2, ws.EventOpenChat)
	assertNoEvent(t, u1)

	var a, b projector.ChatView
	decode(t, first, &a)
	decode(t, second, &b)
	if a.ID != b.ID {
		t.Fatalf("chats differ: %s vs %s", a.ID, b.ID)
	}
}

func TestCreateGroupValidationAndFanout(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addUser(t, "U2", "Second")

	u1 := r.connect(t, "U1")
	u2 := r.connect(t, "U2")

	if err := r.dispatch(t, u1, ws.IntentCreateGroup, dto.CreateGroupPayload{Name: "", Participants: []string{"U1"}}); !errors.Is(err, ErrEmptyGroupName) {
		t.Fatalf("err = %v, want ErrEmptyGroupName", err)
	}
	if err := r.dispatch(t, u1, ws.IntentCreateGroup, dto.CreateGroupPayload{Name: "Ops"}); !errors.Is(err, ErrNoParticipants) {
		t.Fatalf("err = %v, want ErrNoParticipants", err)
	}
	chats, _ := r.db.ListChats()
	if len(chats) != 0 {
		t.Fatalf("invalid intents must not persist chats, got %d", len(chats))
	}

	if err := r.dispatch(t, u1, ws.IntentCreateGroup, dto.CreateGroupPayload{Name: "Ops", Participants: []string{"U1", "U2"}}); err != nil {
		t.Fatalf("createGroup: %v", err)
	}

	for _, c := range []*ws.Client{u1, u2} {
		recvEvent(t, c, ws.EventInitialData)
		open := recvEvent(t, c, ws.EventOpenChat)
		var view projector.ChatView
		decode(t, open, &view)
		if view.Name != "Ops" || view.Type != models.ChatGroup {
			t.Fatalf("openChat = %+v", view)
		}
	}
}

func TestSendMessageUnhidesChat(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addUser(t, "U2", "Second")
	r.addChat(t, "c1", models.ChatGroup, "U1", "U2")
	if err := r.db.UpdateHiddenBy("c1", []string{"U2"}); err != nil {
		t.Fatalf("hide: %v", err)
	}

	u1 := r.connect(t, "U1")

	if err := r.dispatch(t, u1, ws.IntentSendMessage, dto.SendMessagePayload{ChatID: "c1", Content: "ping", SenderID: "U1"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	chat, err := r.db.GetChat("c1")
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if len(chat.HiddenBy) != 0 {
		t.Fatalf("hiddenBy = %v, want empty after new message", chat.HiddenBy)
	}
}

func TestSendMessageToMissingChat(t *testing.T) {
	r := newTestRig(t)
	u1 := r.connect(t, "U1")

	err := r.dispatch(t, u1, ws.IntentSendMessage, dto.SendMessagePayload{ChatID: "nope", Content: "x", SenderID: "U1"})
	if !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("err = %v, want ErrChatNotFound", err)
	}
	assertNoEvent(t, u1)
}

func TestSendMessageKeepsReplySnapshotAndSecretFlag(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addChat(t, "c1", models.ChatGroup, "U1")

	u1 := r.connect(t, "U1")

	err := r.dispatch(t, u1, ws.IntentSendMessage, dto.SendMessagePayload{
		ChatID:   "c1",
		Content:  "for your eyes only",
		SenderID: "U1",
		IsSecret: true,
		ReplyTo:  &models.ReplyRef{MessageID: "m0", SenderName: "Second", Content: "context"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	var msg projector.MessageView
	decode(t, recvEvent(t, u1, ws.EventReceiveMessage), &msg)
	if !msg.IsSecret {
		t.Error("isSecret lost in flight")
	}
	if msg.ReplyTo == nil || msg.ReplyTo.MessageID != "m0" {
		t.Errorf("replyTo = %+v", msg.ReplyTo)
	}

	// Снимок цитаты переживает удаление оригинала
	if err := r.dispatch(t, u1, ws.IntentDeleteMessage, dto.DeleteMessagePayload{ChatID: "c1", MessageID: "m0"}); err != nil {
		t.Fatalf("delete original: %v", err)
	}
	stored, err := r.db.GetMessage(msg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ref := stored.ReplyTo.Data(); ref == nil || ref.Content != "context" {
		t.Fatalf("stored replyTo = %+v", ref)
	}
}

func TestReactionToggleInvolution(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addUser(t, "U2", "Second")
	r.addChat(t, "c1", models.ChatGroup, "U1", "U2")
	r.addMessage(t, "m1", "c1", "U1", "react to me")

	u1 := r.connect(t, "U1")
	u2 := r.connect(t, "U2")

	react := func(userID string) dto.ReactionUpdate {
		t.Helper()
		client := u1
		if userID == "U2" {
			client = u2
		}
		if err := r.dispatch(t, client, ws.IntentAddReaction, dto.AddReactionPayload{
			ChatID: "c1", MessageID: "m1", Emoji: "👍", UserID: userID,
		}); err != nil {
			t.Fatalf("add_reaction by %s: %v", userID, err)
		}
		var upd dto.ReactionUpdate
		decode(t, recvEvent(t, u1, ws.EventReactionUpd), &upd)
		decode(t, recvEvent(t, u2, ws.EventReactionUpd), &upd)
		return upd
	}

	upd := react("U1")
	if len(upd.Reactions["👍"]) != 1 || upd.Reactions["👍"][0] != "U1" {
		t.Fatalf("reactions = %v, want 👍:[U1]", upd.Reactions)
	}

	upd = react("U2")
	if len(upd.Reactions["👍"]) != 2 {
		t.Fatalf("reactions = %v, want 👍:[U1 U2]", upd.Reactions)
	}

	// Повторное нажатие U1 снимает его реакцию
	upd = react("U1")
	if len(upd.Reactions["👍"]) != 1 || upd.Reactions["👍"][0] != "U2" {
		t.Fatalf("reactions = %v, want 👍:[U2]", upd.Reactions)
	}

	// Последний снявший удаляет ключ emoji целиком
	upd = react("U2")
	if _, ok := upd.Reactions["👍"]; ok {
		t.Fatalf("reactions = %v, want empty map", upd.Reactions)
	}

	stored, err := r.db.GetMessage("m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Reactions) != 0 {
		t.Fatalf("stored reactions = %v, want empty", stored.Reactions)
	}
}

func TestReactionOnMissingMessage(t *testing.T) {
	r := newTestRig(t)
	u1 := r.connect(t, "U1")

	err := r.dispatch(t, u1, ws.IntentAddReaction, dto.AddReactionPayload{
		ChatID: "c1", MessageID: "ghost", Emoji: "👍", UserID: "U1",
	})
	if !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("err = %v, want ErrMessageNotFound", err)
	}
}

func TestMarkReadIsExemptForBroadcast(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addUser(t, "U2", "Second")
	r.addChat(t, "broadcast-1", models.ChatBroadcast)
	r.addMessage(t, "m1", "broadcast-1", "U1", "announcement")

	u2 := r.connect(t, "U2")
	r.settle()

	if err := r.dispatch(t, u2, ws.IntentMarkRead, dto.MarkReadPayload{ChatID: "broadcast-1", UserID: "U2"}); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	// Строки обновлены, но квитанций никому не уходит
	assertNoEvent(t, u2)
	stored, _ := r.db.GetMessage("m1")
	if len(stored.ReadBy) != 1 || stored.ReadBy[0] != "U2" {
		t.Fatalf("readBy = %v, want [U2]", stored.ReadBy)
	}
}

func TestBroadcastMessageReachesEveryConnection(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addUser(t, "U2", "Second")
	r.addChat(t, "broadcast-1", models.ChatBroadcast)

	u1 := r.connect(t, "U1")
	u2 := r.connect(t, "U2")
	r.settle()

	if err := r.dispatch(t, u1, ws.IntentSendMessage, dto.SendMessagePayload{ChatID: "broadcast-1", Content: "all hands", SenderID: "U1"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	recvEvent(t, u1, ws.EventReceiveMessage)
	recvEvent(t, u2, ws.EventReceiveMessage)
}

func TestSoftDeleteHidesOnlyForHider(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addUser(t, "U2", "Second")
	r.addChat(t, "c1", models.ChatGroup, "U1", "U2")

	u1 := r.connect(t, "U1")
	u2 := r.connect(t, "U2")

	if err := r.dispatch(t, u1, ws.IntentDeleteChat, dto.DeleteChatPayload{ChatID: "c1", UserID: "U1", Mode: "soft"}); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	var forU1, forU2 dto.InitialData
	decode(t, recvEvent(t, u1, ws.EventInitialData), &forU1)
	decode(t, recvEvent(t, u2, ws.EventInitialData), &forU2)

	if len(forU1.Chats) != 0 {
		t.Fatalf("U1 chats = %d, want chat hidden", len(forU1.Chats))
	}
	if len(forU2.Chats) != 1 {
		t.Fatalf("U2 chats = %d, want chat still visible", len(forU2.Chats))
	}

	// Жесткое удаление со стороны U2 сносит чат для всех
	r.addMessage(t, "m1", "c1", "U1", "doomed")
	if err := r.dispatch(t, u2, ws.IntentDeleteChat, dto.DeleteChatPayload{ChatID: "c1", UserID: "U2", Mode: "hard"}); err != nil {
		t.Fatalf("hard delete: %v", err)
	}
	recvEvent(t, u1, ws.EventInitialData)
	recvEvent(t, u2, ws.EventInitialData)

	if _, err := r.db.GetChat("c1"); !database.IsNotFound(err) {
		t.Fatalf("chat should be gone, got %v", err)
	}
	msgs, _ := r.db.GetChatMessages("c1")
	if len(msgs) != 0 {
		t.Fatalf("messages should cascade, %d left", len(msgs))
	}
}

func TestSoftDeleteIsIdempotent(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addChat(t, "c1", models.ChatGroup, "U1")

	u1 := r.connect(t, "U1")

	for i := 0; i < 2; i++ {
		if err := r.dispatch(t, u1, ws.IntentDeleteChat, dto.DeleteChatPayload{ChatID: "c1", UserID: "U1", Mode: "soft"}); err != nil {
			t.Fatalf("soft delete #%d: %v", i, err)
		}
		recvEvent(t, u1, ws.EventInitialData)
	}

	chat, err := r.db.GetChat("c1")
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if len(chat.HiddenBy) != 1 {
		t.Fatalf("hiddenBy = %v, want single entry", chat.HiddenBy)
	}
}

func TestBroadcastHardDeleteRejected(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addChat(t, "broadcast-1", models.ChatBroadcast)
	r.addMessage(t, "m1", "broadcast-1", "U1", "keep me")

	u1 := r.connect(t, "U1")
	r.settle()

	err := r.dispatch(t, u1, ws.IntentDeleteChat, dto.DeleteChatPayload{ChatID: "broadcast-1", UserID: "U1", Mode: "hard"})
	if !errors.Is(err, ErrBroadcastDelete) {
		t.Fatalf("err = %v, want ErrBroadcastDelete", err)
	}
	assertNoEvent(t, u1)

	if _, err := r.db.GetChat("broadcast-1"); err != nil {
		t.Fatalf("broadcast chat must survive: %v", err)
	}
	if _, err := r.db.GetMessage("m1"); err != nil {
		t.Fatalf("broadcast history must survive: %v", err)
	}
}

func TestDeleteMessageRefreshesAudience(t *testing.T) {
	r := newTestRig(t)
	r.addUser(t, "U1", "First")
	r.addUser(t, "U2", "Second")
	r.addChat(t, "c1", models.ChatGroup, "U1", "U2")
	r.addMessage(t, "m1", "c1", "U1", "burn after reading")

	u1 := r.connect(t, "U1")
	u2 := r.connect(t, "U2")

	if err := r.dispatch(t, u1, ws.IntentDeleteMessage, dto.DeleteMessagePayload{ChatID: "c1", MessageID: "m1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var data dto.InitialData
	decode(t, recvEvent(t, u1, ws.EventInitialData), &data)
	decode(t, recvEvent(t, u2, ws.EventInitialData), &data)

	if len(data.Chats) != 1 || len(data.Chats[0].Messages) != 0 {
		t.Fatalf("snapshot = %+v, want chat without messages", data.Chats)
	}
	if _, err := r.db.GetMessage("m1"); !database.IsNotFound(err) {
		t.Fatalf("message should be gone, got %v", err)
	}
}
