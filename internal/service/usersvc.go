package service

import (
	"context"
	"errors"

	"DirectoryServer/internal/domain"
	"DirectoryServer/internal/metrics"
)

type UsersStore interface {
	CreateUser(ctx context.Context, username string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	// GetUserWithFriends returns the user with Friends populated in the order
	// they were added.
	GetUserWithFriends(ctx context.Context, id string) (domain.User, error)
	// AddFriend reports whether personID was appended; an existing link is
	// left unchanged.
	AddFriend(ctx context.Context, userID, personID string) (bool, error)
}

type UsersService struct {
	Users   UsersStore
	Metrics *metrics.Metrics
}

func (s *UsersService) CreateUser(ctx context.Context, username string) (domain.User, error) {
	username = normalizeUsername(username)
	args := map[string]any{"username": username}
	if !validUsername(username) {
		return domain.User{}, domain.NewInputError(nil, "invalid user", map[string]string{"username": "must be 3-24 characters of letters, digits or underscore"}, args)
	}

	u, err := s.Users.CreateUser(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return domain.User{}, domain.NewInputError(err, "could not save user", map[string]string{"username": "already taken"}, args)
		}
		return domain.User{}, domain.NewInputError(err, "could not save user", nil, args)
	}
	if u.FriendIDs == nil {
		u.FriendIDs = []string{}
	}
	u.Friends = []domain.Person{}

	s.Metrics.UserCreated()
	return u, nil
}

// Me returns the session's user, or nil for an anonymous request.
func (s *UsersService) Me(sess *domain.Session) *domain.User {
	if sess == nil {
		return nil
	}
	u := sess.User
	return &u
}
