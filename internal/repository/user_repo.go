package repository

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// RemoveRoom убирает roomID из users.room_ids (одна сторона; используется каскадом deleteRoom)
	RemoveRoom(ctx context.Context, userID, roomID string) error
	Delete(ctx context.Context, id string) error
}
