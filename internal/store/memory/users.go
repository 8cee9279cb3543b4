package memory

import (
	"context"

	"DirectoryServer/internal/domain"
)

type UsersStore struct {
	db *DB
}

func NewUsersStore(db *DB) *UsersStore {
	return &UsersStore{db: db}
}

func (s *UsersStore) CreateUser(ctx context.Context, username string) (domain.User, error) {
	txn := s.db.mem.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(usersTable, "username", username)
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, domain.ErrUsernameTaken
	}

	id, err := newID()
	if err != nil {
		return domain.User{}, err
	}
	now := s.db.now()
	rec := &userRecord{
		ID:        id,
		Username:  username,
		FriendIDs: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := txn.Insert(usersTable, rec); err != nil {
		return domain.User{}, err
	}

	txn.Commit()
	return rec.toDomain(), nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return s.first("id", id)
}

func (s *UsersStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.first("username", username)
}

func (s *UsersStore) first(index, value string) (domain.User, error) {
	txn := s.db.mem.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(usersTable, index, value)
	if err != nil {
		return domain.User{}, err
	}
	if raw == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return raw.(*userRecord).toDomain(), nil
}

func (s *UsersStore) GetUserWithFriends(ctx context.Context, id string) (domain.User, error) {
	txn := s.db.mem.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(usersTable, "id", id)
	if err != nil {
		return domain.User{}, err
	}
	if raw == nil {
		return domain.User{}, domain.ErrNotFound
	}
	u := raw.(*userRecord).toDomain()

	u.Friends = make([]domain.Person, 0, len(u.FriendIDs))
	for _, pid := range u.FriendIDs {
		p, err := txn.First(personsTable, "id", pid)
		if err != nil {
			return domain.User{}, err
		}
		if p == nil {
			continue
		}
		u.Friends = append(u.Friends, p.(*personRecord).toDomain())
	}
	return u, nil
}

func (s *UsersStore) AddFriend(ctx context.Context, userID, personID string) (bool, error) {
	txn := s.db.mem.Txn(true)
	defer txn.Abort()

	p, err := txn.First(personsTable, "id", personID)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, domain.ErrNotFound
	}

	added, err := linkFriend(txn, userID, personID, s.db.now())
	if err != nil {
		return false, err
	}
	if added {
		txn.Commit()
	}
	return added, nil
}
