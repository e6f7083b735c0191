package ws

import (
	"errors"
	"sync"
	"testing"
)

type fakeConn struct {
	mu       sync.Mutex
	msgs     []Message
	failSend bool
}

func (c *fakeConn) Send(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errors.New("send failed")
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) received() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func TestHub_MultiDeviceFanOut(t *testing.T) {
	hub := NewHub()
	phone, laptop := &fakeConn{}, &fakeConn{}

	hub.Add(phone)
	hub.Add(laptop)
	hub.Authenticate(phone, "alice")
	hub.Authenticate(laptop, "alice")

	// подписка уровня пользователя накрывает оба подключения
	hub.Subscribe("alice", "room:r1")
	hub.Emit("room:r1", "message-created", "hi")

	for _, c := range []*fakeConn{phone, laptop} {
		msgs := c.received()
		if len(msgs) != 1 || msgs[0].Type != "message-created" {
			t.Fatalf("expected one message-created, got %+v", msgs)
		}
	}
}

func TestHub_EmitBestEffort(t *testing.T) {
	hub := NewHub()
	broken, ok := &fakeConn{failSend: true}, &fakeConn{}

	hub.Add(broken)
	hub.Add(ok)
	hub.SubscribeConn(broken, "room:r1")
	hub.SubscribeConn(ok, "room:r1")

	hub.Emit("room:r1", "message-created", "hi")

	// сбой одного получателя не мешает остальным
	if got := len(ok.received()); got != 1 {
		t.Fatalf("healthy conn received %d messages, want 1", got)
	}
}

func TestHub_UnauthenticatedConn(t *testing.T) {
	hub := NewHub()
	c := &fakeConn{}
	hub.Add(c)

	if id := hub.UserID(c); id != "" {
		t.Fatalf("expected empty identity, got %q", id)
	}
	// пользовательские подписки не задевают неаутентифицированное подключение
	hub.Subscribe("alice", "room:r1")
	hub.Emit("room:r1", "message-created", "hi")
	if got := len(c.received()); got != 0 {
		t.Fatalf("unauthenticated conn received %d messages", got)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()
	c := &fakeConn{}
	hub.Add(c)
	hub.Authenticate(c, "alice")
	hub.Subscribe("alice", "room:r1")

	hub.Unsubscribe("alice", "room:r1")
	hub.Emit("room:r1", "message-created", "hi")

	if got := len(c.received()); got != 0 {
		t.Fatalf("unsubscribed conn received %d messages", got)
	}
	if got := hub.Channels(c); len(got) != 0 {
		t.Fatalf("channels not cleaned: %v", got)
	}
}

func TestHub_DropChannel(t *testing.T) {
	hub := NewHub()
	a, b := &fakeConn{}, &fakeConn{}
	hub.Add(a)
	hub.Add(b)
	hub.SubscribeConn(a, "room:r1")
	hub.SubscribeConn(b, "room:r1")
	hub.SubscribeConn(a, "user:alice")

	hub.DropChannel("room:r1")
	hub.Emit("room:r1", "room-deleted", nil)

	if got := len(a.received()) + len(b.received()); got != 0 {
		t.Fatalf("dropped channel still delivered %d messages", got)
	}
	// другие каналы не задеты
	hub.Emit("user:alice", "room-created", nil)
	if got := len(a.received()); got != 1 {
		t.Fatalf("unrelated channel broken: %d messages", got)
	}
}

func TestHub_RemoveCleansUp(t *testing.T) {
	hub := NewHub()
	phone, laptop := &fakeConn{}, &fakeConn{}
	hub.Add(phone)
	hub.Add(laptop)
	hub.Authenticate(phone, "alice")
	hub.Authenticate(laptop, "alice")
	hub.Subscribe("alice", "room:r1")

	// disconnect одного устройства не трогает второе
	hub.Remove(phone)
	hub.Emit("room:r1", "message-created", "hi")

	if got := len(phone.received()); got != 0 {
		t.Fatalf("removed conn received %d messages", got)
	}
	if got := len(laptop.received()); got != 1 {
		t.Fatalf("remaining conn received %d messages, want 1", got)
	}

	// подписка уровня пользователя продолжает работать для живого устройства
	hub.Subscribe("alice", "room:r2")
	hub.Emit("room:r2", "message-created", "again")
	if got := len(laptop.received()); got != 2 {
		t.Fatalf("remaining conn received %d messages, want 2", got)
	}
}
