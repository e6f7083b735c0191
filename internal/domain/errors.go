package domain

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrRoomNotFound = errors.New("room not found")

	ErrEmptyRoomName  = errors.New("room name is empty")
	ErrEmptyUsername  = errors.New("username is empty")
	ErrEmptyPassword  = errors.New("password is empty")
	ErrEmptyContent   = errors.New("message content is empty")
	ErrOwnerRemoval   = errors.New("owner cannot be removed")
	ErrNotAMember     = errors.New("user not in the room")
	ErrAlreadyMember  = errors.New("user already in the room")
	ErrUsernameTaken  = errors.New("username already exists")
	ErrNotOwner       = errors.New("only the room owner is allowed")
	ErrNotRoomMember  = errors.New("requester is not a room member")
	ErrBadCredentials = errors.New("invalid credentials")
)
