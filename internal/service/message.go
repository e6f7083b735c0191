package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/google/uuid"
)

// DefaultHistoryLimit — ограниченное окно последних сообщений.
// Дальнейшей пагинации нет намеренно.
const DefaultHistoryLimit = 200

// MessageService — тонкий слой над стором: append/list сообщений комнаты
// с проверкой членства и упорядочиванием.
type MessageService struct {
	users    repository.UserRepository
	rooms    repository.RoomRepository
	messages repository.MessageRepository
	events   Events

	now func() time.Time
}

func NewMessageService(users repository.UserRepository, rooms repository.RoomRepository, messages repository.MessageRepository, events Events, now func() time.Time) *MessageService {
	if now == nil {
		now = time.Now
	}

	return &MessageService{
		users:    users,
		rooms:    rooms,
		messages: messages,
		events:   events,
		now:      now,
	}
}

func (s *MessageService) Append(ctx context.Context, roomID, senderID, senderName, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("rooms.GetByID: %w", err)
	}
	if !room.HasMember(senderID) {
		return nil, domain.ErrNotRoomMember
	}

	msg := &domain.Message{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		SenderName: senderName,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, fmt.Errorf("messages.Save: %w", err)
	}

	if s.events != nil {
		s.events.MessageCreated(msg)
	}
	return msg, nil
}

// List отдаёт последние limit сообщений в ВОСХОДЯЩЕМ хронологическом порядке.
// Стор опрашивается новыми-первыми (для ограничения окна), поэтому
// переворот на чтении обязателен.
func (s *MessageService) List(ctx context.Context, roomID, requesterID string, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("rooms.GetByID: %w", err)
	}
	if !room.HasMember(requesterID) {
		return nil, domain.ErrNotRoomMember
	}

	recent, err := s.messages.ListRecent(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("messages.ListRecent: %w", err)
	}

	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

type RoomHistory struct {
	Room     domain.Room      `json:"room"`
	Messages []domain.Message `json:"messages"`
}

// RoomsOverview — комнаты пользователя, каждая с окном последних сообщений.
func (s *MessageService) RoomsOverview(ctx context.Context, userID string) ([]RoomHistory, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("users.GetByID: %w", err)
	}

	rooms, err := s.rooms.ListByIDs(ctx, user.RoomIDs)
	if err != nil {
		return nil, fmt.Errorf("rooms.ListByIDs: %w", err)
	}

	out := make([]RoomHistory, 0, len(rooms))
	for _, rm := range rooms {
		msgs, err := s.List(ctx, rm.ID, userID, DefaultHistoryLimit)
		if err != nil {
			return nil, err
		}
		out = append(out, RoomHistory{Room: rm, Messages: msgs})
	}
	return out, nil
}
