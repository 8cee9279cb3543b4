package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"DirectoryServer/internal/domain"
)

const personColumns = `id, name, phone, street, city, created_at, updated_at`

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func textOrEmpty(t pgtype.Text) string {
	if t.Valid {
		return t.String
	}
	return ""
}

func uuidOrEmpty(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// validID reports whether id can name a row. Anything else would fail with
// invalid_text_representation instead of matching nothing.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func scanPerson(row pgx.Row) (domain.Person, error) {
	var (
		p     domain.Person
		id    pgtype.UUID
		phone pgtype.Text
		city  pgtype.Text
	)
	if err := row.Scan(&id, &p.Name, &phone, &p.Street, &city, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Person{}, err
	}
	p.ID = uuidOrEmpty(id)
	p.Phone = textOrEmpty(phone)
	p.City = textOrEmpty(city)
	return p, nil
}

func mapWriteError(op string, err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		switch pgerr.Code {
		case "23505":
			switch pgerr.ConstraintName {
			case "persons_name_uq":
				return domain.ErrPersonNameTaken
			case "users_username_uq":
				return domain.ErrUsernameTaken
			default:
				return fmt.Errorf("unique violation (%s): %w", pgerr.ConstraintName, err)
			}
		case "23503":
			return domain.ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
