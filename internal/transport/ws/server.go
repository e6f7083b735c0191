package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/chat-service/internal/broadcast"
	"github.com/cwrk-planet/chat-service/internal/security"

	"github.com/gorilla/websocket"
)

type TokenVerifier interface {
	Verify(token string) (*security.TokenUser, error)
}

type RoomLister interface {
	// RoomIDs — актуальный список комнат из стора, не из токена
	RoomIDs(ctx context.Context, userID string) ([]string, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	tokens   TokenVerifier
	rooms    RoomLister

	pingEvery time.Duration
}

func NewServer(hub *Hub, tokens TokenVerifier, rooms RoomLister) *Server {
	return &Server{
		hub:    hub,
		tokens: tokens,
		rooms:  rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws. Соединение поднимается неаутентифицированным,
// идентичность и подписки появляются после сообщения begin.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn)
	s.hub.Add(c)

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	// disconnect: подписки этого подключения исчезают вместе с ним
	s.hub.Remove(c)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "err", err)
	}
}

// handshake: begin(userId, token).
//  1. проверка подписи/срока токена;
//  2. сверка идентичности с заявленной;
//  3. подписка на личный канал;
//  4. подписка на ТЕКУЩИЕ комнаты из стора — снапшот из токена устарел бы
//     относительно мутаций, случившихся после выпуска.
//
// При любом отказе соединение остаётся открытым и неаутентифицированным.
func (s *Server) handshake(ctx context.Context, c Conn, p BeginPayload) {
	payload, err := s.tokens.Verify(p.Token)
	if err != nil {
		slog.Info("ws handshake: token rejected", "err", err)
		_ = c.Send(errorMessage("Invalid token"))
		return
	}
	if payload.ID != p.UserID {
		slog.Info("ws handshake: identity mismatch", "claimed", p.UserID)
		_ = c.Send(errorMessage("Invalid token"))
		return
	}

	s.hub.Authenticate(c, p.UserID)
	s.hub.SubscribeConn(c, broadcast.UserChannel(p.UserID))

	roomIDs, err := s.rooms.RoomIDs(ctx, p.UserID)
	if err != nil {
		slog.Error("ws handshake: room list fetch failed", "user", p.UserID, "err", err)
		_ = c.Send(errorMessage("Internal server error"))
		return
	}
	for _, id := range roomIDs {
		s.hub.SubscribeConn(c, broadcast.RoomChannel(id))
	}
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case TypeBegin:
			var p BeginPayload
			if decode(msg.Payload, &p) == nil {
				s.handshake(ctx, c, p)
			}
		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func errorMessage(text string) Message {
	return Message{Type: broadcast.EventError, Payload: text}
}

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}

type wsConn struct {
	conn   *websocket.Conn
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}
