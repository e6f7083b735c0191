// Package memory — встраиваемая реализация репозиториев для dev-режима и тестов.
// Семантика (включая двусторонние обновления членства) совпадает с postgres-адаптером.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]*domain.User
	rooms    map[string]*domain.Room
	messages map[string][]domain.Message // roomID -> messages, порядок вставки
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]*domain.User),
		rooms:    make(map[string]*domain.Room),
		messages: make(map[string][]domain.Message),
	}
}

func (s *Store) Users() repository.UserRepository       { return (*userRepo)(s) }
func (s *Store) Rooms() repository.RoomRepository       { return (*roomRepo)(s) }
func (s *Store) Messages() repository.MessageRepository { return (*messageRepo)(s) }

// --- users ---

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ex := range r.users {
		if ex.Username == u.Username {
			return repository.ErrAlreadyExists
		}
	}
	cp := cloneUser(u)
	if cp.RoomIDs == nil {
		cp.RoomIDs = []string{}
	}
	r.users[u.ID] = cp

	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username = strings.TrimSpace(username)
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if err != nil {
		if err == repository.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *userRepo) RemoveRoom(_ context.Context, userID, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.RoomIDs = remove(u.RoomIDs, roomID)

	return nil
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)

	return nil
}

// --- rooms ---

type roomRepo Store

func (r *roomRepo) CreateWithOwner(_ context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.users[room.OwnerID]
	if !ok {
		return repository.ErrNotFound
	}
	r.rooms[room.ID] = cloneRoom(room)
	owner.RoomIDs = appendOnce(owner.RoomIDs, room.ID)

	return nil
}

func (r *roomRepo) GetByID(_ context.Context, id string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRoom(rm), nil
}

func (r *roomRepo) ListByIDs(_ context.Context, ids []string) ([]domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Room
	for _, id := range ids {
		if rm, ok := r.rooms[id]; ok {
			out = append(out, *cloneRoom(rm))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *roomRepo) Rename(_ context.Context, id, name string) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rm.Name = name

	return cloneRoom(rm), nil
}

func (r *roomRepo) AddMember(_ context.Context, roomID, userID string) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rm.HasMember(userID) {
		return nil, repository.ErrConflict
	}
	u, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rm.MemberIDs = append(rm.MemberIDs, userID)
	u.RoomIDs = appendOnce(u.RoomIDs, roomID)

	return cloneRoom(rm), nil
}

func (r *roomRepo) RemoveMember(_ context.Context, roomID, userID string) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !rm.HasMember(userID) {
		return nil, repository.ErrConflict
	}
	rm.MemberIDs = remove(rm.MemberIDs, userID)
	if u, ok := r.users[userID]; ok {
		u.RoomIDs = remove(u.RoomIDs, roomID)
	}

	return cloneRoom(rm), nil
}

func (r *roomRepo) PruneMember(_ context.Context, roomID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return repository.ErrNotFound
	}
	rm.MemberIDs = remove(rm.MemberIDs, userID)

	return nil
}

func (r *roomRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rooms, id)
	delete(r.messages, id)

	return nil
}

// --- messages ---

type messageRepo Store

func (r *messageRepo) Save(_ context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages[m.RoomID] = append(r.messages[m.RoomID], *m)

	return nil
}

func (r *messageRepo) ListRecent(_ context.Context, roomID string, limit int) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.messages[roomID]
	out := make([]domain.Message, len(all))
	copy(out, all)
	// новые первыми — как postgres-адаптер
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// --- helpers ---

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	cp.RoomIDs = append([]string(nil), u.RoomIDs...)
	return &cp
}

func cloneRoom(r *domain.Room) *domain.Room {
	cp := *r
	cp.MemberIDs = append([]string(nil), r.MemberIDs...)
	return &cp
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func appendOnce(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
