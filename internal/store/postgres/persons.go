package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"DirectoryServer/internal/domain"
)

type PersonsStore struct {
	pool *pgxpool.Pool
}

func NewPersonsStore(pool *pgxpool.Pool) *PersonsStore {
	return &PersonsStore{pool: pool}
}

func (s *PersonsStore) CountPersons(ctx context.Context) (int, error) {
	const q = `SELECT count(*) FROM persons`

	var n int
	if err := s.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count persons: %w", err)
	}
	return n, nil
}

func (s *PersonsStore) ListPersons(ctx context.Context, filter domain.PhoneFilter) ([]domain.Person, error) {
	q := `SELECT ` + personColumns + ` FROM persons`
	switch filter {
	case domain.PhoneYes:
		q += ` WHERE phone IS NOT NULL AND phone <> ''`
	case domain.PhoneNo:
		q += ` WHERE phone IS NULL OR phone = ''`
	}
	q += ` ORDER BY seq`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	out := []domain.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	return out, nil
}

func (s *PersonsStore) FindPersonByName(ctx context.Context, name string) (domain.Person, error) {
	const q = `SELECT ` + personColumns + ` FROM persons WHERE name = $1`
	return s.queryOne(ctx, q, name)
}

func (s *PersonsStore) GetPersonByID(ctx context.Context, id string) (domain.Person, error) {
	if !validID(id) {
		return domain.Person{}, domain.ErrNotFound
	}
	const q = `SELECT ` + personColumns + ` FROM persons WHERE id = $1`
	return s.queryOne(ctx, q, id)
}

func (s *PersonsStore) queryOne(ctx context.Context, q string, args ...any) (domain.Person, error) {
	p, err := scanPerson(s.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Person{}, domain.ErrNotFound
		}
		return domain.Person{}, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (s *PersonsStore) CreatePerson(ctx context.Context, in domain.PersonInput, ownerID string) (domain.Person, error) {
	const insertPerson = `
		INSERT INTO persons (name, phone, street, city)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + personColumns + `
	`
	const linkOwner = `
		INSERT INTO user_friends (user_id, person_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, person_id) DO NOTHING
	`

	if ownerID != "" && !validID(ownerID) {
		return domain.Person{}, domain.ErrNotFound
	}

	var p domain.Person
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		p, err = scanPerson(tx.QueryRow(ctx, insertPerson, in.Name, nullIfEmpty(in.Phone), in.Street, nullIfEmpty(in.City)))
		if err != nil {
			return err
		}
		if ownerID == "" {
			return nil
		}
		_, err = tx.Exec(ctx, linkOwner, ownerID, p.ID)
		return err
	})
	if err != nil {
		return domain.Person{}, mapWriteError("create person", err)
	}
	return p, nil
}

func (s *PersonsStore) UpdatePhone(ctx context.Context, id, phone string) (domain.Person, error) {
	const q = `
		UPDATE persons
		SET phone = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + personColumns + `
	`

	if !validID(id) {
		return domain.Person{}, domain.ErrNotFound
	}
	p, err := scanPerson(s.pool.QueryRow(ctx, q, id, nullIfEmpty(phone)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Person{}, domain.ErrNotFound
		}
		return domain.Person{}, mapWriteError("update phone", err)
	}
	return p, nil
}
