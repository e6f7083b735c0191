package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/google/uuid"
)

// MembershipService — операции над устойчивым членством.
// Держит инвариант: r.id ∈ u.roomIDs <=> u.id ∈ r.memberIDs,
// и owner всегда в memberIDs.
type MembershipService struct {
	users  repository.UserRepository
	rooms  repository.RoomRepository
	events Events

	locks roomLocks
	now   func() time.Time
}

func NewMembershipService(users repository.UserRepository, rooms repository.RoomRepository, events Events, now func() time.Time) *MembershipService {
	if now == nil {
		now = time.Now
	}

	return &MembershipService{
		users:  users,
		rooms:  rooms,
		events: events,
		now:    now,
	}
}

// CascadeOutcome — исход одного шага best-effort каскада.
// Ошибка шага логируется и не прерывает остальные.
type CascadeOutcome struct {
	ID  string // userID при deleteRoom, roomID при deleteUser
	Err error
}

type DeleteRoomResult struct {
	Room    *domain.Room
	Cascade []CascadeOutcome
}

type DeleteUserResult struct {
	User    *domain.User
	Cascade []CascadeOutcome
}

func (s *MembershipService) CreateRoom(ctx context.Context, ownerID, name string) (*domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyRoomName
	}

	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("users.GetByID: %w", err)
	}

	room := &domain.Room{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		MemberIDs: []string{ownerID},
		CreatedAt: s.now().UTC(),
	}

	if err := s.rooms.CreateWithOwner(ctx, room); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("rooms.CreateWithOwner: %w", err)
	}

	if s.events != nil {
		s.events.RoomCreated(room)
	}
	return room, nil
}

func (s *MembershipService) RenameRoom(ctx context.Context, roomID, name, requesterID string) (*domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyRoomName
	}

	unlock := s.locks.lock(roomID)
	defer unlock()

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.OwnerID != requesterID {
		return nil, domain.ErrNotOwner
	}

	updated, err := s.rooms.Rename(ctx, roomID, name)
	if err != nil {
		return nil, fmt.Errorf("rooms.Rename: %w", err)
	}

	if s.events != nil {
		s.events.RoomRenamed(updated)
	}
	return updated, nil
}

func (s *MembershipService) AddMember(ctx context.Context, roomID, username, requesterID string) (*domain.Room, error) {
	unlock := s.locks.lock(roomID)
	defer unlock()

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.OwnerID != requesterID {
		return nil, domain.ErrNotOwner
	}

	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("users.GetByUsername: %w", err)
	}
	if room.HasMember(target.ID) {
		return nil, domain.ErrAlreadyMember
	}

	updated, err := s.rooms.AddMember(ctx, roomID, target.ID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, fmt.Errorf("rooms.AddMember: %w", err)
	}

	if s.events != nil {
		s.events.MemberAdded(updated, target)
	}
	return updated, nil
}

// RemoveMember: разрешено владельцу либо самому участнику (self-leave).
func (s *MembershipService) RemoveMember(ctx context.Context, roomID, userID, requesterID string) (*domain.Room, error) {
	unlock := s.locks.lock(roomID)
	defer unlock()

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if requesterID != room.OwnerID && requesterID != userID {
		return nil, domain.ErrNotOwner
	}
	if userID == room.OwnerID {
		return nil, domain.ErrOwnerRemoval
	}
	if !room.HasMember(userID) {
		return nil, domain.ErrNotAMember
	}

	updated, err := s.rooms.RemoveMember(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, domain.ErrNotAMember
		}
		return nil, fmt.Errorf("rooms.RemoveMember: %w", err)
	}

	if s.events != nil {
		s.events.MemberRemoved(updated, userID)
	}
	return updated, nil
}

// DeleteRoom удаляет комнату с best-effort каскадом по room_ids участников:
// каждый шаг независим, сбой шага логируется и не откатывает остальные,
// комната удаляется в любом случае.
func (s *MembershipService) DeleteRoom(ctx context.Context, roomID, requesterID string) (*DeleteRoomResult, error) {
	unlock := s.locks.lock(roomID)
	defer unlock()

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.OwnerID != requesterID {
		return nil, domain.ErrNotOwner
	}

	cascade := make([]CascadeOutcome, 0, len(room.MemberIDs))
	for _, memberID := range room.MemberIDs {
		err := s.users.RemoveRoom(ctx, memberID, roomID)
		if err != nil {
			slog.Warn("membership.DeleteRoom cascade item failed",
				"room", roomID, "user", memberID, "err", err)
		}
		cascade = append(cascade, CascadeOutcome{ID: memberID, Err: err})
	}

	if err := s.rooms.Delete(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("rooms.Delete: %w", err)
	}

	if s.events != nil {
		s.events.RoomDeleted(room)
	}
	return &DeleteRoomResult{Room: room, Cascade: cascade}, nil
}

// DeleteUser убирает пользователя из всех его комнат (best-effort по комнате),
// затем удаляет запись пользователя.
func (s *MembershipService) DeleteUser(ctx context.Context, userID string) (*DeleteUserResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("users.GetByID: %w", err)
	}

	cascade := make([]CascadeOutcome, 0, len(user.RoomIDs))
	for _, roomID := range user.RoomIDs {
		// Комнаты, которыми пользователь владеет, удаляются целиком:
		// комната без владельца в memberIDs существовать не может.
		var stepErr error
		if room, err := s.rooms.GetByID(ctx, roomID); err != nil {
			stepErr = err
		} else if room.OwnerID == userID {
			_, stepErr = s.DeleteRoom(ctx, roomID, userID)
		} else {
			stepErr = s.detachFromRoom(ctx, roomID, userID)
		}
		if stepErr != nil {
			slog.Warn("membership.DeleteUser cascade item failed",
				"user", userID, "room", roomID, "err", stepErr)
		}
		cascade = append(cascade, CascadeOutcome{ID: roomID, Err: stepErr})
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("users.Delete: %w", err)
	}

	return &DeleteUserResult{User: user, Cascade: cascade}, nil
}

func (s *MembershipService) ListRooms(ctx context.Context, userID string) ([]domain.Room, error) {
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
	return rooms, nil
}

// RoomIDs — ТЕКУЩИЙ список комнат пользователя из стора.
// Handshake обязан ходить сюда, а не в снапшот токена.
func (s *MembershipService) RoomIDs(ctx context.Context, userID string) ([]string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("users.GetByID: %w", err)
	}
	return user.RoomIDs, nil
}

func (s *MembershipService) detachFromRoom(ctx context.Context, roomID, userID string) error {
	unlock := s.locks.lock(roomID)
	defer unlock()

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if err := s.rooms.PruneMember(ctx, roomID, userID); err != nil {
		return err
	}

	if s.events != nil {
		pruned := *room
		pruned.MemberIDs = make([]string, 0, len(room.MemberIDs))
		for _, id := range room.MemberIDs {
			if id != userID {
				pruned.MemberIDs = append(pruned.MemberIDs, id)
			}
		}
		s.events.MemberRemoved(&pruned, userID)
	}
	return nil
}

func (s *MembershipService) getRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("rooms.GetByID: %w", err)
	}
	return room, nil
}
