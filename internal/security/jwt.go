package security

import (
	"errors"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired or not valid yet")
)

// TokenUser — снапшот пользователя на момент выпуска токена.
// Identity-поля (ID, Username) после Verify можно доверять;
// RoomIDs — только справочный снапшот, для авторизации НЕ использовать:
// членство могло измениться после выпуска.
type TokenUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	RoomIDs   []string  `json:"roomIDs"`
	CreatedAt time.Time `json:"createdAt"`
}

type SessionClaims struct {
	jwt.StandardClaims
	User TokenUser `json:"user"`
}

// Используется SigningMethodHS256 с общим процессным секретом.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{secret: secret, ttl: ttl}
}

func (s *TokenIssuer) TTL() time.Duration {
	return s.ttl
}

func (s *TokenIssuer) Issue(u *domain.User, now time.Time) (string, error) {
	claims := SessionClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
		User: TokenUser{
			ID:        u.ID,
			Username:  u.Username,
			RoomIDs:   append([]string(nil), u.RoomIDs...),
			CreatedAt: u.CreatedAt,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

// Verify проверяет подпись и срок действия и возвращает полезную нагрузку.
func (s *TokenIssuer) Verify(tokenStr string) (*TokenUser, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return &claims.User, nil
}
