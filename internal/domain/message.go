package domain

import "time"

// Message никогда не изменяется после записи.
// SenderName денормализован на момент отправки, это не живая ссылка на User.
type Message struct {
	ID         string    `db:"id" json:"id"`
	RoomID     string    `db:"room_id" json:"roomId"`
	SenderName string    `db:"sender_name" json:"senderName"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
