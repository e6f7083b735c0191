package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/security"
	"github.com/cwrk-planet/chat-service/internal/service"
	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	authSvc   *service.AuthService
	memberSvc *service.MembershipService
	msgSvc    *service.MessageService
}

func NewHandler(auth *service.AuthService, member *service.MembershipService, msg *service.MessageService) *Handler {
	return &Handler{
		authSvc:   auth,
		memberSvc: member,
		msgSvc:    msg,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Категории статусов: 400 валидация, 401 аутентификация/авторизация,
// 404 не найдено, 409 конфликт, 500 остальное.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyRoomName),
		errors.Is(err, domain.ErrEmptyUsername),
		errors.Is(err, domain.ErrEmptyPassword),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrOwnerRemoval),
		errors.Is(err, domain.ErrNotAMember),
		errors.Is(err, security.ErrPasswordTooShort):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrNotRoomMember),
		errors.Is(err, domain.ErrBadCredentials),
		errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, security.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("handler."+op+":", slog.Any("err", err))
		writeJSON(w, status, ErrorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	user, err := h.authSvc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, "CreateUser", err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// POST /sessions — выпускает подписанный токен и кладёт его в cookie.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing username or password"})
		return
	}

	user, token, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, "CreateSession", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     httpmw.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authSvc.TokenTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, SessionResponse{User: user, Token: token})
}

// DELETE /users/me
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ac, ok := httpmw.FromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	res, err := h.memberSvc.DeleteUser(r.Context(), ac.UserID)
	if err != nil {
		writeError(w, "DeleteUser", err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: httpmw.CookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, res.User)
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	ac, _ := httpmw.FromCtx(r.Context())
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	room, err := h.memberSvc.CreateRoom(r.Context(), ac.UserID, req.Name)
	if err != nil {
		writeError(w, "CreateRoom", err)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// GET /rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	ac, _ := httpmw.FromCtx(r.Context())

	rooms, err := h.memberSvc.ListRooms(r.Context(), ac.UserID)
	if err != nil {
		writeError(w, "ListRooms", err)
		return
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}

	writeJSON(w, http.StatusOK, rooms)
}

// GET /rooms/overview — комнаты пользователя с окном последних сообщений.
func (h *Handler) RoomsOverview(w http.ResponseWriter, r *http.Request) {
	ac, _ := httpmw.FromCtx(r.Context())

	overview, err := h.msgSvc.RoomsOverview(r.Context(), ac.UserID)
	if err != nil {
		writeError(w, "RoomsOverview", err)
		return
	}
	if overview == nil {
		overview = []service.RoomHistory{}
	}

	writeJSON(w, http.StatusOK, overview)
}

// PATCH /rooms/{id}
func (h *Handler) RenameRoom(w http.ResponseWriter, r *http.Request) {
	ac, _ := httpmw.FromCtx(r.Context())
	roomID := chi.URLParam(r, "id")

	var req RenameRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	room, err := h.memberSvc.RenameRoom(r.Context(), roomID, req.Name, ac.UserID)
	if err != nil {
		writeError(w, "RenameRoom", err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// DELETE /rooms/{id}
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	ac, _ := httpmw.FromCtx(r.Context())
	roomID := chi.URLParam(r, "id")

	res, err := h.memberSvc.DeleteRoom(r.Context(), roomID, ac.UserID)
	if err != nil {
		writeError(w, "DeleteRoom", err)
		return
	}

	writeJSON(w, http.StatusOK, res.Room)
}

// POST /rooms/{id}/members
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	ac, _ := httpmw.FromCtx(r.Context())
	roomID := chi.URLParam(r, "id")

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	room, err := h.memberSvc.AddMember(r.Context(), roomID, req.Username, ac.UserID)
	if err != nil {
		writeError(w, "AddMember", err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// DELETE /rooms/{id}/members/{userId}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ac, _ := httpmw.FromCtx(r.Context())
	roomID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userId")

	room, err := h.memberSvc.RemoveMember(r.Context(), roomID, userID, ac.UserID)
	if err != nil {
		writeError(w, "RemoveMember", err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// GET /rooms/{id}/messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	ac, _ := httpmw.FromCtx(r.Context())
	roomID := chi.URLParam(r, "id")

	msgs, err := h.msgSvc.List(r.Context(), roomID, ac.UserID, service.DefaultHistoryLimit)
	if err != nil {
		writeError(w, "ListMessages", err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}

	writeJSON(w, http.StatusOK, msgs)
}

// POST /rooms/{id}/messages
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	ac, _ := httpmw.FromCtx(r.Context())
	roomID := chi.URLParam(r, "id")

	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	msg, err := h.msgSvc.Append(r.Context(), roomID, ac.UserID, ac.Username, req.Content)
	if err != nil {
		writeError(w, "CreateMessage", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}
