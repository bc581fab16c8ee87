// Package presence выводит online/offline из членства в реестре сессий.
// Статус нигде не хранится и не рассылается отдельными событиями: он
// пересчитывается только в момент сборки снапшота, поэтому у других
// клиентов картина присутствия может отставать до следующего снапшота.
package presence

// Registry — часть реестра сессий, нужная трекеру.
type Registry interface {
	OnlineUsers() []string
}

type Tracker struct {
	registry Registry
}

func NewTracker(registry Registry) *Tracker {
	return &Tracker{registry: registry}
}

// Online возвращает множество пользователей, у которых прямо сейчас есть
// хотя бы одно живое соединение.
func (t *Tracker) Online() map[string]bool {
	online := make(map[string]bool)
	for _, id := range t.registry.OnlineUsers() {
		online[id] = true
	}
	return online
}
