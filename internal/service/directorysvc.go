package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"DirectoryServer/internal/domain"
	"DirectoryServer/internal/metrics"
)

type PersonsStore interface {
	CountPersons(ctx context.Context) (int, error)
	ListPersons(ctx context.Context, filter domain.PhoneFilter) ([]domain.Person, error)
	FindPersonByName(ctx context.Context, name string) (domain.Person, error)
	GetPersonByID(ctx context.Context, id string) (domain.Person, error)
	// CreatePerson inserts the person and, when ownerID is set, appends it to
	// that user's friends in the same atomic write.
	CreatePerson(ctx context.Context, in domain.PersonInput, ownerID string) (domain.Person, error)
	UpdatePhone(ctx context.Context, id, phone string) (domain.Person, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, operation string, sess *domain.Session, ownerID string) error
}

type PersonNotifier interface {
	NotifyPersonAdded(ctx context.Context, p domain.Person)
}

type DirectoryService struct {
	Persons  PersonsStore
	Authz    Authorizer
	Notifier PersonNotifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func (s *DirectoryService) PersonCount(ctx context.Context) (int, error) {
	return s.Persons.CountPersons(ctx)
}

func (s *DirectoryService) AllPersons(ctx context.Context, phone string) ([]domain.Person, error) {
	filter, ok := domain.ParsePhoneFilter(strings.TrimSpace(phone))
	if !ok {
		return nil, domain.NewValidationError(map[string]string{"phone": "must be YES or NO"})
	}
	return s.Persons.ListPersons(ctx, filter)
}

// FindPerson returns nil when no person has exactly that name. Names are
// trimmed the same way AddPerson trims them before storing.
func (s *DirectoryService) FindPerson(ctx context.Context, name string) (*domain.Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	p, err := s.Persons.FindPersonByName(ctx, name)
	return optionalPerson(p, err)
}

func (s *DirectoryService) FindPersonByID(ctx context.Context, id string) (*domain.Person, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	p, err := s.Persons.GetPersonByID(ctx, id)
	return optionalPerson(p, err)
}

func (s *DirectoryService) AddPerson(ctx context.Context, sess *domain.Session, in domain.PersonInput) (domain.Person, error) {
	if err := s.Authz.Authorize(ctx, "addPerson", sess, sess.UserID()); err != nil {
		return domain.Person{}, err
	}

	in = domain.PersonInput{
		Name:   strings.TrimSpace(in.Name),
		Phone:  strings.TrimSpace(in.Phone),
		Street: strings.TrimSpace(in.Street),
		City:   strings.TrimSpace(in.City),
	}
	args := personArgs(in)
	if missing := requireFields(map[string]string{"name": in.Name, "street": in.Street, "city": in.City}); missing != nil {
		return domain.Person{}, domain.NewInputError(nil, "invalid person", missing, args)
	}

	p, err := s.Persons.CreatePerson(ctx, in, sess.UserID())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPersonNameTaken):
			return domain.Person{}, domain.NewInputError(err, "could not save person", map[string]string{"name": "already taken"}, args)
		case errors.Is(err, domain.ErrNotFound):
			return domain.Person{}, domain.ErrUnauthorized
		default:
			return domain.Person{}, domain.NewInputError(err, "could not save person", nil, args)
		}
	}

	s.Metrics.PersonCreated()
	s.logger().Info("person added", "person_id", p.ID, "user_id", sess.UserID())
	if s.Notifier != nil {
		s.Notifier.NotifyPersonAdded(ctx, p)
	}
	return p, nil
}

// EditPhone returns nil when id does not name a person.
func (s *DirectoryService) EditPhone(ctx context.Context, sess *domain.Session, id, phone string) (*domain.Person, error) {
	if err := s.Authz.Authorize(ctx, "editPhone", sess, ""); err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	phone = strings.TrimSpace(phone)
	if id == "" {
		return nil, nil
	}

	p, err := s.Persons.UpdatePhone(ctx, id, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, domain.NewInputError(err, "could not save person", nil, map[string]any{"id": id, "phone": phone})
	}
	return &p, nil
}

func (s *DirectoryService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func optionalPerson(p domain.Person, err error) (*domain.Person, error) {
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup person: %w", err)
	}
	return &p, nil
}

func personArgs(in domain.PersonInput) map[string]any {
	args := map[string]any{
		"name":   in.Name,
		"street": in.Street,
		"city":   in.City,
	}
	if in.Phone != "" {
		args["phone"] = in.Phone
	}
	return args
}
