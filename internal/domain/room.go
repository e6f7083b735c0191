package domain

import "time"

// Room. Инвариант: OwnerID всегда входит в MemberIDs.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	OwnerID   string    `db:"owner_id" json:"ownerId"`
	MemberIDs []string  `db:"member_ids" json:"memberIDs"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (r *Room) HasMember(userID string) bool {
	for _, id := range r.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
