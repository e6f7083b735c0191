package ws

import (
	"sync"
)

type Conn interface {
	Send(msg Message) error
	Close() error
}

// Hub — реестр живых подключений: conn -> {userID, набор каналов}.
// Реализует broadcast.Registry. Подключение появляется неаутентифицированным
// и получает userID только после успешного handshake. Снятие подключения
// уносит все его подписки; другие подключения того же пользователя не трогаем.
type Hub struct {
	mu       sync.RWMutex
	sessions map[Conn]*session
	channels map[string]map[Conn]struct{} // channel -> set of connections
	byUser   map[string]map[Conn]struct{} // userID -> authenticated connections
}

type session struct {
	userID   string // пустой до handshake
	channels map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[Conn]*session),
		channels: make(map[string]map[Conn]struct{}),
		byUser:   make(map[string]map[Conn]struct{}),
	}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[c] = &session{channels: make(map[string]struct{})}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[c]
	if !ok {
		return
	}
	for ch := range sess.channels {
		h.dropFromChannelLocked(c, ch)
	}
	if sess.userID != "" {
		if set, ok := h.byUser[sess.userID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.byUser, sess.userID)
			}
		}
	}
	delete(h.sessions, c)
}

// Authenticate помечает подключение как принадлежащее userID.
func (h *Hub) Authenticate(c Conn, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[c]
	if !ok {
		return
	}
	sess.userID = userID
	set, ok := h.byUser[userID]
	if !ok {
		set = make(map[Conn]struct{})
		h.byUser[userID] = set
	}
	set[c] = struct{}{}
}

// UserID возвращает идентичность подключения ("" до handshake).
func (h *Hub) UserID(c Conn) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if sess, ok := h.sessions[c]; ok {
		return sess.userID
	}
	return ""
}

// SubscribeConn подписывает одно подключение на канал.
func (h *Hub) SubscribeConn(c Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subscribeConnLocked(c, channel)
}

// Channels — снимок подписок подключения.
func (h *Hub) Channels(c Conn) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sess, ok := h.sessions[c]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(sess.channels))
	for ch := range sess.channels {
		out = append(out, ch)
	}
	return out
}

// Subscribe применяется ко всем подключениям пользователя (multi-device).
func (h *Hub) Subscribe(userID, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.byUser[userID] {
		h.subscribeConnLocked(c, channel)
	}
}

func (h *Hub) Unsubscribe(userID, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.byUser[userID] {
		if sess, ok := h.sessions[c]; ok {
			delete(sess.channels, channel)
		}
		h.dropFromChannelLocked(c, channel)
	}
}

// DropChannel выбрасывает канал целиком вместе со всеми подписками на него.
func (h *Hub) DropChannel(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.channels[channel] {
		if sess, ok := h.sessions[c]; ok {
			delete(sess.channels, channel)
		}
	}
	delete(h.channels, channel)
}

// Emit — доставка события всем подписчикам канала; best-effort, без повторов.
func (h *Hub) Emit(channel, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.channels[channel] {
		_ = c.Send(Message{Type: event, Payload: payload}) // best-effort
	}
}

func (h *Hub) subscribeConnLocked(c Conn, channel string) {
	sess, ok := h.sessions[c]
	if !ok {
		return
	}
	sess.channels[channel] = struct{}{}
	set, ok := h.channels[channel]
	if !ok {
		set = make(map[Conn]struct{})
		h.channels[channel] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) dropFromChannelLocked(c Conn, channel string) {
	if set, ok := h.channels[channel]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.channels, channel)
		}
	}
}
