package domain

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	RoomIDs      []string  `db:"room_ids" json:"roomIDs"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// InRoom проверяет членство по денормализованному списку user.RoomIDs.
func (u *User) InRoom(roomID string) bool {
	for _, id := range u.RoomIDs {
		if id == roomID {
			return true
		}
	}
	return false
}
