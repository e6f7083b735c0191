package service

import "github.com/cwrk-planet/chat-service/internal/domain"

// Events — интерфейс Mutation Broadcaster со стороны сервисов.
// Вызывается строго после фиксации мутации в сторе, никогда до.
// Реализуется broadcast.Broadcaster; в тестах — запоминающей заглушкой.
type Events interface {
	RoomCreated(room *domain.Room)
	RoomRenamed(room *domain.Room)
	MemberAdded(room *domain.Room, user *domain.User)
	MemberRemoved(room *domain.Room, userID string)
	RoomDeleted(room *domain.Room)
	MessageCreated(msg *domain.Message)
}
