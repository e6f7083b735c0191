package queries

const (
	QueryCreateMessage = `
		INSERT INTO messages (id, room_id, sender_name, content, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	// Новые первыми, id — tiebreaker для стабильного порядка при равных created_at.
	QueryListRecentMessages = `
		SELECT id, room_id, sender_name, content, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2;
	`
)
