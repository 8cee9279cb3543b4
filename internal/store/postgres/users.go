package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"DirectoryServer/internal/domain"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

const userSelect = `
	SELECT u.id, u.username, u.created_at, u.updated_at,
		COALESCE(array_agg(f.person_id::text ORDER BY f.position) FILTER (WHERE f.person_id IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN user_friends f ON f.user_id = u.id
`

func (s *UsersStore) CreateUser(ctx context.Context, username string) (domain.User, error) {
	const q = `
		INSERT INTO users (username)
		VALUES ($1)
		RETURNING id, username, created_at, updated_at
	`

	var (
		u  domain.User
		id pgtype.UUID
	)
	err := s.pool.QueryRow(ctx, q, username).Scan(&id, &u.Username, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapWriteError("create user", err)
	}
	u.ID = uuidOrEmpty(id)
	u.FriendIDs = []string{}
	return u, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if !validID(id) {
		return domain.User{}, domain.ErrNotFound
	}
	const q = userSelect + `WHERE u.id = $1 GROUP BY u.id`
	return s.queryOne(ctx, q, id)
}

func (s *UsersStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	const q = userSelect + `WHERE u.username = $1 GROUP BY u.id`
	return s.queryOne(ctx, q, username)
}

func (s *UsersStore) queryOne(ctx context.Context, q string, arg any) (domain.User, error) {
	var (
		u         domain.User
		id        pgtype.UUID
		friendIDs []string
	)
	err := s.pool.QueryRow(ctx, q, arg).Scan(&id, &u.Username, &u.CreatedAt, &u.UpdatedAt, &friendIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	u.ID = uuidOrEmpty(id)
	u.FriendIDs = friendIDs
	if u.FriendIDs == nil {
		u.FriendIDs = []string{}
	}
	return u, nil
}

func (s *UsersStore) GetUserWithFriends(ctx context.Context, id string) (domain.User, error) {
	const q = `
		SELECT p.id, p.name, p.phone, p.street, p.city, p.created_at, p.updated_at
		FROM user_friends f
		JOIN persons p ON p.id = f.person_id
		WHERE f.user_id = $1
		ORDER BY f.position
	`

	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	rows, err := s.pool.Query(ctx, q, u.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	u.Friends = make([]domain.Person, 0, len(u.FriendIDs))
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return domain.User{}, fmt.Errorf("scan friend: %w", err)
		}
		u.Friends = append(u.Friends, p)
	}
	if err := rows.Err(); err != nil {
		return domain.User{}, fmt.Errorf("list friends: %w", err)
	}
	return u, nil
}

func (s *UsersStore) AddFriend(ctx context.Context, userID, personID string) (bool, error) {
	const q = `
		INSERT INTO user_friends (user_id, person_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, person_id) DO NOTHING
	`

	if !validID(userID) || !validID(personID) {
		return false, domain.ErrNotFound
	}
	ct, err := s.pool.Exec(ctx, q, userID, personID)
	if err != nil {
		return false, mapWriteError("add friend", err)
	}
	return ct.RowsAffected() == 1, nil
}
