package service

import (
	"context"
	"errors"
	"testing"

	"DirectoryServer/internal/auth"
	"DirectoryServer/internal/domain"
)

type stubUsersStore struct {
	t *testing.T

	createUserFunc         func(context.Context, string) (domain.User, error)
	getUserByIDFunc        func(context.Context, string) (domain.User, error)
	getUserByUsernameFunc  func(context.Context, string) (domain.User, error)
	getUserWithFriendsFunc func(context.Context, string) (domain.User, error)
	addFriendFunc          func(context.Context, string, string) (bool, error)
}

func (s *stubUsersStore) CreateUser(ctx context.Context, username string) (domain.User, error) {
	if s.createUserFunc != nil {
		return s.createUserFunc(ctx, username)
	}
	s.t.Fatalf("CreateUser called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubUsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if s.getUserByIDFunc != nil {
		return s.getUserByIDFunc(ctx, id)
	}
	s.t.Fatalf("GetUserByID called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubUsersStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	if s.getUserByUsernameFunc != nil {
		return s.getUserByUsernameFunc(ctx, username)
	}
	s.t.Fatalf("GetUserByUsername called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubUsersStore) GetUserWithFriends(ctx context.Context, id string) (domain.User, error) {
	if s.getUserWithFriendsFunc != nil {
		return s.getUserWithFriendsFunc(ctx, id)
	}
	s.t.Fatalf("GetUserWithFriends called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

func (s *stubUsersStore) AddFriend(ctx context.Context, userID, personID string) (bool, error) {
	if s.addFriendFunc != nil {
		return s.addFriendFunc(ctx, userID, personID)
	}
	s.t.Fatalf("AddFriend called unexpectedly")
	return false, errors.New("unexpected call")
}

type stubPersonsStore struct {
	t *testing.T

	countPersonsFunc     func(context.Context) (int, error)
	listPersonsFunc      func(context.Context, domain.PhoneFilter) ([]domain.Person, error)
	findPersonByNameFunc func(context.Context, string) (domain.Person, error)
	getPersonByIDFunc    func(context.Context, string) (domain.Person, error)
	createPersonFunc     func(context.Context, domain.PersonInput, string) (domain.Person, error)
	updatePhoneFunc      func(context.Context, string, string) (domain.Person, error)
}

func (s *stubPersonsStore) CountPersons(ctx context.Context) (int, error) {
	if s.countPersonsFunc != nil {
		return s.countPersonsFunc(ctx)
	}
	s.t.Fatalf("CountPersons called unexpectedly")
	return 0, errors.New("unexpected call")
}

func (s *stubPersonsStore) ListPersons(ctx context.Context, filter domain.PhoneFilter) ([]domain.Person, error) {
	if s.listPersonsFunc != nil {
		return s.listPersonsFunc(ctx, filter)
	}
	s.t.Fatalf("ListPersons called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubPersonsStore) FindPersonByName(ctx context.Context, name string) (domain.Person, error) {
	if s.findPersonByNameFunc != nil {
		return s.findPersonByNameFunc(ctx, name)
	}
	s.t.Fatalf("FindPersonByName called unexpectedly")
	return domain.Person{}, errors.New("unexpected call")
}

func (s *stubPersonsStore) GetPersonByID(ctx context.Context, id string) (domain.Person, error) {
	if s.getPersonByIDFunc != nil {
		return s.getPersonByIDFunc(ctx, id)
	}
	s.t.Fatalf("GetPersonByID called unexpectedly")
	return domain.Person{}, errors.New("unexpected call")
}

func (s *stubPersonsStore) CreatePerson(ctx context.Context, in domain.PersonInput, ownerID string) (domain.Person, error) {
	if s.createPersonFunc != nil {
		return s.createPersonFunc(ctx, in, ownerID)
	}
	s.t.Fatalf("CreatePerson called unexpectedly")
	return domain.Person{}, errors.New("unexpected call")
}

func (s *stubPersonsStore) UpdatePhone(ctx context.Context, id, phone string) (domain.Person, error) {
	if s.updatePhoneFunc != nil {
		return s.updatePhoneFunc(ctx, id, phone)
	}
	s.t.Fatalf("UpdatePhone called unexpectedly")
	return domain.Person{}, errors.New("unexpected call")
}

// sessionAuthorizer mirrors the policy's rules closely enough for unit
// tests: anonymous callers may only use read operations.
type sessionAuthorizer struct{}

func (sessionAuthorizer) Authorize(_ context.Context, operation string, sess *domain.Session, ownerID string) error {
	switch operation {
	case "addPerson", "editPhone", "addAsFriend":
		if sess == nil {
			return domain.ErrUnauthorized
		}
		if ownerID != "" && ownerID != sess.User.ID {
			return domain.ErrForbidden
		}
	}
	return nil
}

type recordingNotifier struct {
	persons []domain.Person
}

func (n *recordingNotifier) NotifyPersonAdded(_ context.Context, p domain.Person) {
	n.persons = append(n.persons, p)
}

type stubTokens struct {
	issueFunc  func(string, string) (string, error)
	verifyFunc func(string) (auth.Claims, error)
}

func (s stubTokens) Issue(userID, username string) (string, error) {
	return s.issueFunc(userID, username)
}

func (s stubTokens) Verify(token string) (auth.Claims, error) {
	return s.verifyFunc(token)
}

type stubVerifier struct {
	verifyFunc func(context.Context, string, string) (bool, error)
}

func (s stubVerifier) Verify(ctx context.Context, username, secret string) (bool, error) {
	return s.verifyFunc(ctx, username, secret)
}

func testSession(id string, friendIDs ...string) *domain.Session {
	return &domain.Session{User: domain.User{ID: id, Username: "bob", FriendIDs: friendIDs}}
}
