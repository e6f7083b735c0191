package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/cwrk-planet/chat-service/internal/security"
)

// Токен живёт в cookie "jwt" (7 дней, без refresh); Bearer — запасной вариант.
const CookieName = "jwt"

type TokenVerifier interface {
	Verify(token string) (*security.TokenUser, error)
}

// AuthContext — явная идентичность запроса, полученная из проверенного токена.
// Достоверны только identity-поля; снапшот комнат из токена сюда не попадает
// намеренно: для авторизации он непригоден.
type AuthContext struct {
	UserID   string
	Username string
}

type ctxKey string

const ctxKeyAuth ctxKey = "auth"

func AuthMiddleware(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				unauthorized(w)
				return
			}

			payload, err := tokens.Verify(token)
			if err != nil {
				unauthorized(w)
				return
			}

			ac := AuthContext{UserID: payload.ID, Username: payload.Username}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyAuth, ac)))
		})
	}
}

func FromCtx(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(ctxKeyAuth).(AuthContext)
	return ac, ok
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}
