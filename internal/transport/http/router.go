package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/chat-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, tokens httpmw.TokenVerifier, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// WS endpoint: аутентификация через begin уже внутри соединения
	r.Get("/ws", wsServer.HandleWS)

	// регистрация и вход — без токена
	r.Post("/users", h.CreateUser)
	r.Post("/sessions", h.CreateSession)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(tokens))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Delete("/users/me", h.DeleteUser)

		pr.Route("/rooms", func(rm chi.Router) {
			rm.Post("/", h.CreateRoom)
			rm.Get("/", h.ListRooms)
			rm.Get("/overview", h.RoomsOverview)

			rm.Route("/{id}", func(rr chi.Router) {
				rr.Patch("/", h.RenameRoom)
				rr.Delete("/", h.DeleteRoom)
				rr.Post("/members", h.AddMember)
				rr.Delete("/members/{userId}", h.RemoveMember)
				rr.Get("/messages", h.ListMessages)
				rr.Post("/messages", h.CreateMessage)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
