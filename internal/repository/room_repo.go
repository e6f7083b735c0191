package repository

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// RoomRepository хранит комнаты вместе с денормализованным членством.
// Двусторонние операции (AddMember/RemoveMember/CreateWithOwner) обязаны
// обновлять rooms.member_ids и users.room_ids атомарно для вызывающего.
type RoomRepository interface {
	// CreateWithOwner вставляет комнату (member_ids = {owner}) и добавляет
	// room.ID в room_ids владельца.
	CreateWithOwner(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Room, error)
	Rename(ctx context.Context, id, name string) (*domain.Room, error)
	AddMember(ctx context.Context, roomID, userID string) (*domain.Room, error)
	RemoveMember(ctx context.Context, roomID, userID string) (*domain.Room, error)
	// PruneMember убирает userID только со стороны комнаты
	// (каскад deleteUser: запись пользователя удаляется целиком следом).
	PruneMember(ctx context.Context, roomID, userID string) error
	Delete(ctx context.Context, id string) error
}
