package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/security"

	"github.com/google/uuid"
)

type AuthService struct {
	users      repository.UserRepository
	tokens     *security.TokenIssuer
	passPolicy security.BcryptConfig
	now        func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens *security.TokenIssuer, passPolicy security.BcryptConfig, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}

	return &AuthService{
		users:      users,
		tokens:     tokens,
		passPolicy: passPolicy,
		now:        now,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrEmptyUsername
	}
	if password == "" {
		return nil, domain.ErrEmptyPassword
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("users.ExistsByUsername: %w", err)
	}
	if exists {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := security.HashPassword(password, &s.passPolicy)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		RoomIDs:      []string{},
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("users.Create: %w", err)
	}

	return u, nil
}

// Login аутентифицирует по username+пароль и выпускает подписанный токен.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", domain.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("users.GetByUsername: %w", err)
	}

	if err := security.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", domain.ErrBadCredentials
	}

	token, err := s.tokens.Issue(user, s.now())
	if err != nil {
		return nil, "", fmt.Errorf("tokens.Issue: %w", err)
	}

	return user, token, nil
}

func (s *AuthService) TokenTTL() time.Duration { return s.tokens.TTL() }
