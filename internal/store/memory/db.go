// Package memory is a go-memdb backed store used for development and tests.
package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"DirectoryServer/internal/domain"
)

const (
	personsTable = "persons"
	usersTable   = "users"
)

type personRecord struct {
	ID        string
	Name      string
	Phone     string
	Street    string
	City      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type userRecord struct {
	ID        string
	Username  string
	FriendIDs []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			personsTable: {
				Name: personsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id":   {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"name": {Name: "name", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Name"}},
				},
			},
			usersTable: {
				Name: usersTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id":       {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"username": {Name: "username", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Username"}},
				},
			},
		},
	}
}

// DB holds both tables so a person insert and a friend link commit in one
// write transaction. Ids are time-ordered UUIDv7 values, so walking the id
// index yields records in creation order.
type DB struct {
	mem *memdb.MemDB
	Now func() time.Time
}

func Open() (*DB, error) {
	mem, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("memdb: %w", err)
	}
	return &DB{mem: mem, Now: time.Now}, nil
}

func (db *DB) now() time.Time {
	if db.Now == nil {
		return time.Now().UTC()
	}
	return db.Now().UTC()
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new id: %w", err)
	}
	return id.String(), nil
}

func (r *personRecord) toDomain() domain.Person {
	return domain.Person{
		ID:        r.ID,
		Name:      r.Name,
		Phone:     r.Phone,
		Street:    r.Street,
		City:      r.City,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *userRecord) toDomain() domain.User {
	return domain.User{
		ID:        r.ID,
		Username:  r.Username,
		FriendIDs: append([]string{}, r.FriendIDs...),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
