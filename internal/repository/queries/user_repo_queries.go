package queries

const (
	QueryCreateUser = `
		INSERT INTO users (id, username, password_hash, room_ids, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	QueryGetUserByID = `
		SELECT id, username, password_hash, room_ids, created_at
		FROM users
		WHERE id = $1;
	`
	QueryGetUserByUsername = `
		SELECT id, username, password_hash, room_ids, created_at
		FROM users
		WHERE username = $1;
	`
	QueryExistsUserByUsername = `SELECT 1 FROM users WHERE username = $1;`
	QueryUserRemoveRoom       = `
		UPDATE users
		SET room_ids = array_remove(room_ids, $2)
		WHERE id = $1;
	`
	QueryUserAddRoom = `
		UPDATE users
		SET room_ids = array_append(room_ids, $2)
		WHERE id = $1 AND NOT ($2 = ANY(room_ids));
	`
	QueryDeleteUser = `DELETE FROM users WHERE id = $1;`
)
