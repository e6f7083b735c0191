package queries

const (
	QueryCreateRoom = `
		INSERT INTO rooms (id, name, owner_id, member_ids, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	QueryGetRoomByID = `
		SELECT id, name, owner_id, member_ids, created_at
		FROM rooms
		WHERE id = $1;
	`
	// Блокировка строки комнаты: параллельные мутации членства той же комнаты ждут.
	QueryGetRoomByIDForUpdate = `
		SELECT id, name, owner_id, member_ids, created_at
		FROM rooms
		WHERE id = $1
		FOR UPDATE;
	`
	QueryListRoomsByIDs = `
		SELECT id, name, owner_id, member_ids, created_at
		FROM rooms
		WHERE id = ANY($1)
		ORDER BY created_at ASC, id ASC;
	`
	QueryRenameRoom = `
		UPDATE rooms
		SET name = $2
		WHERE id = $1
		RETURNING id, name, owner_id, member_ids, created_at;
	`
	QueryRoomAddMember = `
		UPDATE rooms
		SET member_ids = array_append(member_ids, $2)
		WHERE id = $1 AND NOT ($2 = ANY(member_ids))
		RETURNING id, name, owner_id, member_ids, created_at;
	`
	QueryRoomRemoveMember = `
		UPDATE rooms
		SET member_ids = array_remove(member_ids, $2)
		WHERE id = $1
		RETURNING id, name, owner_id, member_ids, created_at;
	`
	QueryDeleteRoom = `DELETE FROM rooms WHERE id = $1;`
)
