package broadcast

import "github.com/cwrk-planet/chat-service/internal/domain"

// Registry — живая топология подключений (реализуется ws.Hub).
// Subscribe/Unsubscribe применяются ко ВСЕМ подключениям пользователя
// (multi-device). Emit — best-effort, at-most-once, без повторов.
type Registry interface {
	Subscribe(userID, channel string)
	Unsubscribe(userID, channel string)
	DropChannel(channel string)
	Emit(channel, event string, payload any)
}

// Broadcaster вызывается строго ПОСЛЕ фиксации мутации в сторе.
// Изменение подписок и рассылка — два эффекта одной мутации: сначала
// перестраиваем подписки затронутого пользователя, затем шлём события,
// чтобы его подключения были корректно подключены до прихода дальнейших
// событий комнаты.
type Broadcaster struct {
	reg Registry
}

func New(reg Registry) *Broadcaster {
	return &Broadcaster{reg: reg}
}

// RoomCreated — только персональный канал владельца: в комнатном канале
// ещё никого нет, владелец подписывается на него здесь же.
func (b *Broadcaster) RoomCreated(room *domain.Room) {
	b.reg.Subscribe(room.OwnerID, RoomChannel(room.ID))
	b.reg.Emit(UserChannel(room.OwnerID), EventRoomCreated, room)
}

// RoomRenamed уведомляет только комнатный канал. Асимметрия с MemberAdded
// (личный + комнатный) сохранена намеренно как специфицированное поведение.
func (b *Broadcaster) RoomRenamed(room *domain.Room) {
	b.reg.Emit(RoomChannel(room.ID), EventNameChanged, room)
}

// MemberAdded: subscribe-then-notify. Сначала новый участник получает
// room-inserted в личный канал, затем комната — user-added.
func (b *Broadcaster) MemberAdded(room *domain.Room, user *domain.User) {
	b.reg.Subscribe(user.ID, RoomChannel(room.ID))
	b.reg.Emit(UserChannel(user.ID), EventRoomInserted, room)
	b.reg.Emit(RoomChannel(room.ID), EventUserAdded, UserAddedPayload{
		UserID:   user.ID,
		Username: user.Username,
		Room:     room,
	})
}

// MemberRemoved: unsubscribe-then-notify — убранный пользователь
// user-removed уже не получает.
func (b *Broadcaster) MemberRemoved(room *domain.Room, userID string) {
	b.reg.Unsubscribe(userID, RoomChannel(room.ID))
	b.reg.Emit(RoomChannel(room.ID), EventUserRemoved, UserRemovedPayload{
		UserID: userID,
		Room:   room,
	})
}

// RoomDeleted: событие уходит ещё подписанным участникам, после чего канал
// выбрасывается целиком — дальше по нему никто ничего не получит.
func (b *Broadcaster) RoomDeleted(room *domain.Room) {
	b.reg.Emit(RoomChannel(room.ID), EventRoomDeleted, room)
	b.reg.DropChannel(RoomChannel(room.ID))
}

func (b *Broadcaster) MessageCreated(msg *domain.Message) {
	b.reg.Emit(RoomChannel(msg.RoomID), EventMessageCreated, msg)
}
