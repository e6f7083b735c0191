package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository/queries"
)

type MessageRepo struct {
	q querier
}

func NewMessageRepoFromPool(q querier) *MessageRepo {
	return &MessageRepo{q: q}
}

func (r *MessageRepo) Save(ctx context.Context, m *domain.Message) error {
	_, err := r.q.Exec(ctx, queries.QueryCreateMessage,
		m.ID, m.RoomID, m.SenderName, m.Content, m.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}

	return nil
}

func (r *MessageRepo) ListRecent(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	rows, err := r.q.Query(ctx, queries.QueryListRecentMessages, roomID, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderName, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}
