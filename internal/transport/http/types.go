package http

import "github.com/cwrk-planet/chat-service/internal/domain"

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type RenameRoomRequest struct {
	Name string `json:"name"`
}

type AddMemberRequest struct {
	Username string `json:"username"`
}

type CreateMessageRequest struct {
	Content string `json:"content"`
}
