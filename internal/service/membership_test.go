package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/repository/memory"
)

// eventLog — запоминающая заглушка Events; хранит порядок вызовов.
type eventLog struct {
	entries []string
}

func (l *eventLog) RoomCreated(r *domain.Room)  { l.add("room-created:" + r.ID) }
func (l *eventLog) RoomRenamed(r *domain.Room)  { l.add("name-changed:" + r.ID) }
func (l *eventLog) RoomDeleted(r *domain.Room)  { l.add("room-deleted:" + r.ID) }
func (l *eventLog) MessageCreated(m *domain.Message) {
	l.add("message-created:" + m.RoomID)
}
func (l *eventLog) MemberAdded(r *domain.Room, u *domain.User) {
	l.add("user-added:" + r.ID + ":" + u.ID)
}
func (l *eventLog) MemberRemoved(r *domain.Room, userID string) {
	l.add("user-removed:" + r.ID + ":" + userID)
}
func (l *eventLog) add(s string) { l.entries = append(l.entries, s) }

func (l *eventLog) last(t *testing.T) string {
	t.Helper()
	if len(l.entries) == 0 {
		t.Fatal("no events recorded")
	}
	return l.entries[len(l.entries)-1]
}

func newMembershipFixture(t *testing.T) (*memory.Store, *eventLog, *MembershipService) {
	t.Helper()
	store := memory.NewStore()
	events := &eventLog{}
	svc := NewMembershipService(store.Users(), store.Rooms(), events, func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})
	return store, events, svc
}

func mustUser(t *testing.T, store *memory.Store, id, username string) {
	t.Helper()
	err := store.Users().Create(context.Background(), &domain.User{
		ID: id, Username: username, RoomIDs: []string{},
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
}

func TestCreateRoom_OwnerIsMemberBothSides(t *testing.T) {
	ctx := context.Background()
	store, events, svc := newMembershipFixture(t)
	mustUser(t, store, "owner", "alice")

	room, err := svc.CreateRoom(ctx, "owner", "  general  ")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.Name != "general" {
		t.Fatalf("name not trimmed: %q", room.Name)
	}
	if !room.HasMember("owner") {
		t.Fatal("owner missing from memberIDs")
	}

	owner, err := store.Users().GetByID(ctx, "owner")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !owner.InRoom(room.ID) {
		t.Fatal("room missing from owner.roomIDs")
	}
	if got := events.last(t); got != "room-created:"+room.ID {
		t.Fatalf("unexpected event: %s", got)
	}
}

func TestCreateRoom_Validation(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newMembershipFixture(t)
	mustUser(t, store, "owner", "alice")

	if _, err := svc.CreateRoom(ctx, "owner", "   "); !errors.Is(err, domain.ErrEmptyRoomName) {
		t.Fatalf("expected ErrEmptyRoomName, got %v", err)
	}
	if _, err := svc.CreateRoom(ctx, "ghost", "general"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAddMember_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, events, svc := newMembershipFixture(t)
	mustUser(t, store, "owner", "alice")
	mustUser(t, store, "bob", "bob")

	room, _ := svc.CreateRoom(ctx, "owner", "general")

	updated, err := svc.AddMember(ctx, room.ID, "bob", "owner")
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if !updated.HasMember("bob") {
		t.Fatal("bob missing from memberIDs")
	}
	bob, _ := store.Users().GetByID(ctx, "bob")
	if !bob.InRoom(room.ID) {
		t.Fatal("room missing from bob.roomIDs")
	}
	if got := events.last(t); got != "user-added:"+room.ID+":bob" {
		t.Fatalf("unexpected event: %s", got)
	}

	// повторное добавление — конфликт
	if _, err := svc.AddMember(ctx, room.ID, "bob", "owner"); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestAddMember_OnlyOwner(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newMembershipFixture(t)
	mustUser(t, store, "owner", "alice")
	mustUser(t, store, "bob", "bob")
	mustUser(t, store, "eve", "eve")

	room, _ := svc.CreateRoom(ctx, "owner", "general")

	if _, err := svc.AddMember(ctx, room.ID, "eve", "bob"); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := svc.AddMember(ctx, room.ID, "nobody", "owner"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.AddMember(ctx, "missing-room", "bob", "owner"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRemoveMember_Rules(t *testing.T) {
	ctx := context.Background()
	store, events, svc := newMembershipFixture(t)
	mustUser(t, store, "owner", "alice")
	mustUser(t, store, "bob", "bob")
	mustUser(t, store, "eve", "eve")

	room, _ := svc.CreateRoom(ctx, "owner", "general")
	_, _ = svc.AddMember(ctx, room.ID, "bob", "owner")
	_, _ = svc.AddMember(ctx, room.ID, "eve", "owner")

	// владельца убрать нельзя, даже ему самому
	if _, err := svc.RemoveMember(ctx, room.ID, "owner", "owner"); !errors.Is(err, domain.ErrOwnerRemoval) {
		t.Fatalf("expected ErrOwnerRemoval, got %v", err)
	}
	// посторонний не может убирать других
	if _, err := svc.RemoveMember(ctx, room.ID, "eve", "bob"); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	// self-leave разрешён
	updated, err := svc.RemoveMember(ctx, room.ID, "bob", "bob")
	if err != nil {
		t.Fatalf("self-leave: %v", err)
	}
	if updated.HasMember("bob") {
		t.Fatal("bob still in memberIDs")
	}
	bob, _ := store.Users().GetByID(ctx, "bob")
	if bob.InRoom(room.ID) {
		t.Fatal("room still in bob.roomIDs")
	}
	if got := events.last(t); got != "user-removed:"+room.ID+":bob" {
		t.Fatalf("unexpected event: %s", got)
	}

	// не участник
	if _, err := svc.RemoveMember(ctx, room.ID, "bob", "owner"); !errors.Is(err, domain.ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}

	// владелец убирает участника
	if _, err := svc.RemoveMember(ctx, room.ID, "eve", "owner"); err != nil {
		t.Fatalf("owner removes eve: %v", err)
	}
}

func TestRenameRoom(t *testing.T) {
	ctx := context.Background()
	store, events, svc := newMembershipFixture(t)
	mustUser(t, store, "owner", "alice")
	mustUser(t, store, "bob", "bob")

	room, _ := svc.CreateRoom(ctx, "owner", "general")
	_, _ = svc.AddMember(ctx, room.ID, "bob", "owner")

	if _, err := svc.RenameRoom(ctx, room.ID, "random", "bob"); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := svc.RenameRoom(ctx, room.ID, "  ", "owner"); !errors.Is(err, domain.ErrEmptyRoomName) {
		t.Fatalf("expected ErrEmptyRoomName, got %v", err)
	}

	updated, err := svc.RenameRoom(ctx, room.ID, "random", "owner")
	if err != nil {
		t.Fatalf("RenameRoom: %v", err)
	}
	if updated.Name != "random" {
		t.Fatalf("name not updated: %q", updated.Name)
	}
	if got := events.last(t); got != "name-changed:"+room.ID {
		t.Fatalf("unexpected event: %s", got)
	}
}

func TestDeleteRoom_CascadePrunesMembers(t *testing.T) {
	ctx := context.Background()
	store, events, svc := newMembershipFixture(t)
	mustUser(t, store, "owner", "alice")
	mustUser(t, store, "bob", "bob")

	room, _ := svc.CreateRoom(ctx, "owner", "general")
	_, _ = svc.AddMember(ctx, room.ID, "bob", "owner")

	if _, err := svc.DeleteRoom(ctx, room.ID, "bob"); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	res, err := svc.DeleteRoom(ctx, room.ID, "owner")
	if err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	if len(res.Cascade) != 2 {
		t.Fatalf("cascade steps: got %d, want 2", len(res.Cascade))
	}
	for _, step := range res.Cascade {
		if step.Err != nil {
			t.Fatalf("cascade step %s failed: %v", step.ID, step.Err)
		}
	}

	if _, err := store.Rooms().GetByID(ctx, room.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("room still present")
	}
	for _, id := range []string{"owner", "bob"} {
		u, _ := store.Users().GetByID(ctx, id)
		if u.InRoom(room.ID) {
			t.Fatalf("room still in %s.roomIDs", id)
		}
	}
	if got := events.last(t); got != "room-deleted:"+room.ID {
		t.Fatalf("unexpected event: %s", got)
	}
}

// flakyUsers имитирует частичный сбой каскада: RemoveRoom падает для одного
// пользователя, остальные операции идут через настоящий репозиторий.
type flakyUsers struct {
	repository.UserRepository
	failFor string
}

func (f *flakyUsers) RemoveRoom(ctx context.Context, userID, roomID string) error {
	if userID == f.failFor {
		return errors.New("store unavailable")
	}
	return f.UserRepository.RemoveRoom(ctx, userID, roomID)
}

func TestDeleteRoom_CascadeBestEffort(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	users := &flakyUsers{UserRepository: store.Users(), failFor: "bob"}
	svc := NewMembershipService(users, store.Rooms(), &eventLog{}, nil)

	mustUser(t, store, "owner", "alice")
	mustUser(t, store, "bob", "bob")

	room, _ := svc.CreateRoom(ctx, "owner", "general")
	_, _ = svc.AddMember(ctx, room.ID, "bob", "owner")

	res, err := svc.DeleteRoom(ctx, room.ID, "owner")
	if err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}

	// шаг для bob упал, но комната удалена и owner вычищен
	var failed int
	for _, step := range res.Cascade {
		if step.Err != nil {
			failed++
			if step.ID != "bob" {
				t.Fatalf("unexpected failed step: %s", step.ID)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("failed steps: got %d, want 1", failed)
	}
	if _, err := store.Rooms().GetByID(ctx, room.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("room still present after partial cascade")
	}
	owner, _ := store.Users().GetByID(ctx, "owner")
	if owner.InRoom(room.ID) {
		t.Fatal("room still in owner.roomIDs")
	}
}

func TestDeleteUser_Cascade(t *testing.T) {
	ctx := context.Background()
	store, events, svc := newMembershipFixture(t)
	mustUser(t, store, "alice", "alice")
	mustUser(t, store, "bob", "bob")

	owned, _ := svc.CreateRoom(ctx, "alice", "alice-room")
	_, _ = svc.AddMember(ctx, owned.ID, "bob", "alice")

	foreign, _ := svc.CreateRoom(ctx, "bob", "bob-room")
	_, _ = svc.AddMember(ctx, foreign.ID, "alice", "bob")

	res, err := svc.DeleteUser(ctx, "alice")
	if err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	for _, step := range res.Cascade {
		if step.Err != nil {
			t.Fatalf("cascade step %s failed: %v", step.ID, step.Err)
		}
	}

	// пользователь удалён
	if _, err := store.Users().GetByID(ctx, "alice"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("alice still present")
	}
	// собственная комната удалена целиком
	if _, err := store.Rooms().GetByID(ctx, owned.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("owned room still present")
	}
	bob, _ := store.Users().GetByID(ctx, "bob")
	if bob.InRoom(owned.ID) {
		t.Fatal("owned room still in bob.roomIDs")
	}
	// чужая комната осталась, alice из неё вычищена
	rest, err := store.Rooms().GetByID(ctx, foreign.ID)
	if err != nil {
		t.Fatalf("foreign room: %v", err)
	}
	if rest.HasMember("alice") {
		t.Fatal("alice still in foreign room memberIDs")
	}

	var seenRemoved bool
	for _, e := range events.entries {
		if e == "user-removed:"+foreign.ID+":alice" {
			seenRemoved = true
		}
	}
	if !seenRemoved {
		t.Fatal("user-removed event for foreign room missing")
	}
}

func TestRoomIDs_ReflectsCurrentState(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newMembershipFixture(t)
	mustUser(t, store, "alice", "alice")

	ids, err := svc.RoomIDs(ctx, "alice")
	if err != nil {
		t.Fatalf("RoomIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no rooms, got %v", ids)
	}

	room, _ := svc.CreateRoom(ctx, "alice", "general")

	ids, _ = svc.RoomIDs(ctx, "alice")
	if len(ids) != 1 || ids[0] != room.ID {
		t.Fatalf("expected [%s], got %v", room.ID, ids)
	}

	if _, err := svc.RoomIDs(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
