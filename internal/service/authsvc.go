package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"DirectoryServer/internal/auth"
	"DirectoryServer/internal/domain"
	"DirectoryServer/internal/metrics"
)

type TokenIssuer interface {
	Issue(userID, username string) (string, error)
}

type AuthService struct {
	Users       UsersStore
	Tokens      TokenIssuer
	Credentials auth.CredentialVerifier
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Token, error) {
	username = normalizeUsername(username)

	u, err := s.Users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Token{}, s.rejected(ctx, username, "unknown user")
		}
		return domain.Token{}, err
	}

	ok, err := s.Credentials.Verify(ctx, u.Username, password)
	if err != nil {
		return domain.Token{}, fmt.Errorf("verify credentials: %w", err)
	}
	if !ok {
		return domain.Token{}, s.rejected(ctx, username, "bad password")
	}

	value, err := s.Tokens.Issue(u.ID, u.Username)
	if err != nil {
		return domain.Token{}, err
	}
	s.Metrics.LoginSucceeded()
	return domain.Token{Value: value}, nil
}

func (s *AuthService) rejected(ctx context.Context, username, reason string) error {
	s.Metrics.LoginFailed()
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "login rejected", "username", username, "reason", reason)
	return domain.NewInputError(domain.ErrInvalidCredentials, "wrong credentials", nil, map[string]any{"username": username})
}
