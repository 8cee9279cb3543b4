package memory

import (
	"context"
	"slices"
	"time"

	"github.com/hashicorp/go-memdb"

	"DirectoryServer/internal/domain"
)

type PersonsStore struct {
	db *DB
}

func NewPersonsStore(db *DB) *PersonsStore {
	return &PersonsStore{db: db}
}

func (s *PersonsStore) CountPersons(ctx context.Context) (int, error) {
	txn := s.db.mem.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(personsTable, "id")
	if err != nil {
		return 0, err
	}
	n := 0
	for raw := it.Next(); raw != nil; raw = it.Next() {
		n++
	}
	return n, nil
}

func (s *PersonsStore) ListPersons(ctx context.Context, filter domain.PhoneFilter) ([]domain.Person, error) {
	txn := s.db.mem.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(personsTable, "id")
	if err != nil {
		return nil, err
	}
	filtered := memdb.NewFilterIterator(it, func(raw interface{}) bool {
		return !filter.Match(raw.(*personRecord).toDomain())
	})

	out := []domain.Person{}
	for raw := filtered.Next(); raw != nil; raw = filtered.Next() {
		out = append(out, raw.(*personRecord).toDomain())
	}
	return out, nil
}

func (s *PersonsStore) FindPersonByName(ctx context.Context, name string) (domain.Person, error) {
	return s.first("name", name)
}

func (s *PersonsStore) GetPersonByID(ctx context.Context, id string) (domain.Person, error) {
	return s.first("id", id)
}

func (s *PersonsStore) first(index, value string) (domain.Person, error) {
	txn := s.db.mem.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(personsTable, index, value)
	if err != nil {
		return domain.Person{}, err
	}
	if raw == nil {
		return domain.Person{}, domain.ErrNotFound
	}
	return raw.(*personRecord).toDomain(), nil
}

func (s *PersonsStore) CreatePerson(ctx context.Context, in domain.PersonInput, ownerID string) (domain.Person, error) {
	txn := s.db.mem.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(personsTable, "name", in.Name)
	if err != nil {
		return domain.Person{}, err
	}
	if existing != nil {
		return domain.Person{}, domain.ErrPersonNameTaken
	}

	id, err := newID()
	if err != nil {
		return domain.Person{}, err
	}
	now := s.db.now()
	rec := &personRecord{
		ID:        id,
		Name:      in.Name,
		Phone:     in.Phone,
		Street:    in.Street,
		City:      in.City,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := txn.Insert(personsTable, rec); err != nil {
		return domain.Person{}, err
	}

	if ownerID != "" {
		if _, err := linkFriend(txn, ownerID, id, now); err != nil {
			return domain.Person{}, err
		}
	}

	txn.Commit()
	return rec.toDomain(), nil
}

func (s *PersonsStore) UpdatePhone(ctx context.Context, id, phone string) (domain.Person, error) {
	txn := s.db.mem.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(personsTable, "id", id)
	if err != nil {
		return domain.Person{}, err
	}
	if raw == nil {
		return domain.Person{}, domain.ErrNotFound
	}

	// Stored objects are shared with readers; replace rather than mutate.
	updated := *raw.(*personRecord)
	updated.Phone = phone
	updated.UpdatedAt = s.db.now()
	if err := txn.Insert(personsTable, &updated); err != nil {
		return domain.Person{}, err
	}

	txn.Commit()
	return updated.toDomain(), nil
}

func linkFriend(txn *memdb.Txn, userID, personID string, now time.Time) (bool, error) {
	raw, err := txn.First(usersTable, "id", userID)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, domain.ErrNotFound
	}
	u := raw.(*userRecord)
	if slices.Contains(u.FriendIDs, personID) {
		return false, nil
	}

	updated := *u
	updated.FriendIDs = append(slices.Clone(u.FriendIDs), personID)
	updated.UpdatedAt = now
	if err := txn.Insert(usersTable, &updated); err != nil {
		return false, err
	}
	return true, nil
}
