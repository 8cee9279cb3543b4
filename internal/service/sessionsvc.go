package service

import (
	"context"
	"errors"
	"fmt"

	"DirectoryServer/internal/auth"
	"DirectoryServer/internal/domain"
)

type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

type SessionService struct {
	Users  UsersStore
	Tokens TokenVerifier
}

// Resolve turns an Authorization header into the request's session. A
// missing header, a non-bearer scheme, or a token naming a user that no
// longer exists all yield a nil session. A token that fails verification
// returns domain.ErrInvalidToken.
func (s *SessionService) Resolve(ctx context.Context, authorization string) (*domain.Session, error) {
	token, ok := auth.BearerToken(authorization)
	if !ok {
		return nil, nil
	}

	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	u, err := s.Users.GetUserWithFriends(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}

	sess := &domain.Session{User: u}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	return sess, nil
}
