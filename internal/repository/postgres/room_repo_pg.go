package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/repository/queries"

	"github.com/jackc/pgx/v5"
)

type RoomRepo struct {
	db beginner
}

func NewRoomRepoFromPool(db beginner) *RoomRepo {
	return &RoomRepo{db: db}
}

// CreateWithOwner — комната и room_ids владельца меняются в одной транзакции.
func (r *RoomRepo) CreateWithOwner(ctx context.Context, room *domain.Room) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, queries.QueryCreateRoom,
		room.ID, room.Name, room.OwnerID, room.MemberIDs, room.CreatedAt); err != nil {
		return mapPgError(err)
	}

	tag, err := tx.Exec(ctx, queries.QueryUserAddRoom, room.OwnerID, room.ID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return tx.Commit(ctx)
}

func (r *RoomRepo) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	return scanRoom(r.db.QueryRow(ctx, queries.QueryGetRoomByID, id))
}

func (r *RoomRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Room, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, queries.QueryListRoomsByIDs, ids)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		var rm domain.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.OwnerID, &rm.MemberIDs, &rm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}

	return out, rows.Err()
}

func (r *RoomRepo) Rename(ctx context.Context, id, name string) (*domain.Room, error) {
	return scanRoom(r.db.QueryRow(ctx, queries.QueryRenameRoom, id, name))
}

// AddMember — обе стороны членства под блокировкой строки комнаты.
// Параллельные мутации той же комнаты сериализуются на FOR UPDATE.
func (r *RoomRepo) AddMember(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	room, err := scanRoom(tx.QueryRow(ctx, queries.QueryGetRoomByIDForUpdate, roomID))
	if err != nil {
		return nil, err
	}
	if room.HasMember(userID) {
		return nil, repository.ErrConflict
	}

	room, err = scanRoom(tx.QueryRow(ctx, queries.QueryRoomAddMember, roomID, userID))
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, queries.QueryUserAddRoom, userID, roomID)
	if err != nil {
		return nil, mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return room, nil
}

func (r *RoomRepo) RemoveMember(ctx context.Context, roomID, userID string) (*domain.Room, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	room, err := scanRoom(tx.QueryRow(ctx, queries.QueryGetRoomByIDForUpdate, roomID))
	if err != nil {
		return nil, err
	}
	if !room.HasMember(userID) {
		return nil, repository.ErrConflict
	}

	room, err = scanRoom(tx.QueryRow(ctx, queries.QueryRoomRemoveMember, roomID, userID))
	if err != nil {
		return nil, err
	}

	// сторона пользователя; отсутствие строки не откатывает членство комнаты
	if _, err := tx.Exec(ctx, queries.QueryUserRemoveRoom, userID, roomID); err != nil {
		return nil, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return room, nil
}

func (r *RoomRepo) PruneMember(ctx context.Context, roomID, userID string) error {
	tag, err := r.db.Exec(ctx, queries.QueryRoomRemoveMember, roomID, userID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *RoomRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, queries.QueryDeleteRoom, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var (
		id        string
		name      string
		ownerID   string
		memberIDs []string
		createdAt time.Time
	)
	if err := row.Scan(&id, &name, &ownerID, &memberIDs, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}

	return &domain.Room{
		ID:        id,
		Name:      name,
		OwnerID:   ownerID,
		MemberIDs: memberIDs,
		CreatedAt: createdAt,
	}, nil
}
