package service

import (
	"context"
	"errors"
	"testing"

	"DirectoryServer/internal/domain"
)

func TestUsersService_CreateUserValidatesUsername(t *testing.T) {
	svc := &UsersService{Users: &stubUsersStore{t: t}}

	for _, name := range []string{"", "ab", "has space", "this_username_is_far_too_long"} {
		_, err := svc.CreateUser(context.Background(), name)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("CreateUser(%q): expected ErrValidation, got %v", name, err)
		}
	}
}

func TestUsersService_CreateUserTaken(t *testing.T) {
	svc := &UsersService{Users: &stubUsersStore{
		t: t,
		createUserFunc: func(context.Context, string) (domain.User, error) {
			return domain.User{}, domain.ErrUsernameTaken
		},
	}}

	_, err := svc.CreateUser(context.Background(), "bob")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if ve.Fields["username"] != "already taken" || ve.InvalidArgs["username"] != "bob" {
		t.Fatalf("unexpected error detail: %#v %#v", ve.Fields, ve.InvalidArgs)
	}
}

func TestUsersService_CreateUser(t *testing.T) {
	var gotName string
	svc := &UsersService{Users: &stubUsersStore{
		t: t,
		createUserFunc: func(_ context.Context, username string) (domain.User, error) {
			gotName = username
			return domain.User{ID: "user-1", Username: username}, nil
		},
	}}

	u, err := svc.CreateUser(context.Background(), "  bob ")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if gotName != "bob" {
		t.Fatalf("expected trimmed username, got %q", gotName)
	}
	if u.Friends == nil || len(u.Friends) != 0 {
		t.Fatalf("expected empty friends, got %#v", u.Friends)
	}
}

func TestUsersService_Me(t *testing.T) {
	svc := &UsersService{}
	if u := svc.Me(nil); u != nil {
		t.Fatalf("expected nil user for anonymous session")
	}
	if u := svc.Me(testSession("user-1")); u == nil || u.ID != "user-1" {
		t.Fatalf("unexpected user: %#v", u)
	}
}
