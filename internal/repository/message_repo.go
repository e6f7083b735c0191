package repository

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type MessageRepository interface {
	Save(ctx context.Context, m *domain.Message) error
	// ListRecent возвращает последние limit сообщений комнаты,
	// НОВЫЕ ПЕРВЫМИ (created_at DESC). Переупорядочивание для выдачи — на сервисе.
	ListRecent(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
}
