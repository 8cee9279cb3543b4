package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"DirectoryServer/internal/domain"
)

type FriendsService struct {
	Users   UsersStore
	Persons PersonsStore
	Authz   Authorizer
}

// AddAsFriend appends the person called name to the session user's friends.
// Adding someone already on the list returns the user unchanged.
func (s *FriendsService) AddAsFriend(ctx context.Context, sess *domain.Session, name string) (domain.User, error) {
	if err := s.Authz.Authorize(ctx, "addAsFriend", sess, sess.UserID()); err != nil {
		return domain.User{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, domain.NewInputError(nil, "invalid friend", map[string]string{"name": "required"}, map[string]any{"name": name})
	}

	p, err := s.Persons.FindPersonByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, fmt.Errorf("person not found: %w", domain.ErrNotFound)
		}
		return domain.User{}, err
	}

	if sess.User.HasFriend(p.ID) {
		return sess.User, nil
	}

	if _, err := s.Users.AddFriend(ctx, sess.User.ID, p.ID); err != nil {
		return domain.User{}, fmt.Errorf("add friend: %w", err)
	}

	u, err := s.Users.GetUserWithFriends(ctx, sess.User.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}
