package broadcast

import "github.com/cwrk-planet/chat-service/internal/domain"

// Имена событий сервер->клиент.
const (
	EventRoomCreated    = "room-created"
	EventRoomInserted   = "room-inserted"
	EventNameChanged    = "name-changed"
	EventUserAdded      = "user-added"
	EventUserRemoved    = "user-removed"
	EventRoomDeleted    = "room-deleted"
	EventMessageCreated = "message-created"
	EventError          = "error"
)

// Каналы доставки: персональный и комнатный.
func UserChannel(userID string) string { return "user:" + userID }
func RoomChannel(roomID string) string { return "room:" + roomID }

type UserAddedPayload struct {
	UserID   string       `json:"userId"`
	Username string       `json:"username"`
	Room     *domain.Room `json:"room"`
}

type UserRemovedPayload struct {
	UserID string       `json:"userId"`
	Room   *domain.Room `json:"room"`
}
