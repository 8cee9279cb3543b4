//go:build integration

package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"

	"DirectoryServer/internal/domain"
)

type StoreSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcmongo.MongoDBContainer
	db        *DB
	persons   *PersonsStore
	users     *UsersStore
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.ctx = context.Background()

	ctr, err := tcmongo.Run(s.ctx, "mongo:7")
	s.Require().NoError(err)
	s.container = ctr

	uri, err := ctr.ConnectionString(s.ctx)
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()
	s.db, err = Open(ctx, uri, "directory_test")
	s.Require().NoError(err)
	s.Require().NoError(s.db.EnsureIndexes(ctx))

	s.persons = NewPersonsStore(s.db)
	s.users = NewUsersStore(s.db)
}

func (s *StoreSuite) TearDownSuite() {
	if s.db != nil {
		s.Require().NoError(s.db.Close(s.ctx))
	}
	if s.container != nil {
		s.Require().NoError(testcontainers.TerminateContainer(s.container))
	}
}

func (s *StoreSuite) SetupTest() {
	_, err := s.db.db.Collection(personsCollection).DeleteMany(s.ctx, bson.D{})
	s.Require().NoError(err)
	_, err = s.db.db.Collection(usersCollection).DeleteMany(s.ctx, bson.D{})
	s.Require().NoError(err)
}

func (s *StoreSuite) createPerson(name, phone, owner string) domain.Person {
	p, err := s.persons.CreatePerson(s.ctx, domain.PersonInput{Name: name, Phone: phone, Street: "Main St", City: "Springfield"}, owner)
	s.Require().NoError(err)
	return p
}

func (s *StoreSuite) TestPersons() {
	eve := s.createPerson("Eve", "555", "")
	s.createPerson("Bob", "", "")

	n, err := s.persons.CountPersons(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	got, err := s.persons.FindPersonByName(s.ctx, "Eve")
	s.Require().NoError(err)
	s.Equal(eve.ID, got.ID)

	_, err = s.persons.CreatePerson(s.ctx, domain.PersonInput{Name: "Eve", Street: "Elm"}, "")
	s.ErrorIs(err, domain.ErrPersonNameTaken)

	with, err := s.persons.ListPersons(s.ctx, domain.PhoneYes)
	s.Require().NoError(err)
	s.Require().Len(with, 1)
	s.Equal("Eve", with[0].Name)

	updated, err := s.persons.UpdatePhone(s.ctx, eve.ID, "")
	s.Require().NoError(err)
	s.Empty(updated.Phone)

	without, err := s.persons.ListPersons(s.ctx, domain.PhoneNo)
	s.Require().NoError(err)
	s.Len(without, 2)

	_, err = s.persons.GetPersonByID(s.ctx, "nope")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *StoreSuite) TestUsersAndFriends() {
	u, err := s.users.CreateUser(s.ctx, "bob")
	s.Require().NoError(err)
	_, err = s.users.CreateUser(s.ctx, "bob")
	s.ErrorIs(err, domain.ErrUsernameTaken)

	eve := s.createPerson("Eve", "", u.ID)
	ann := s.createPerson("Ann", "", "")

	added, err := s.users.AddFriend(s.ctx, u.ID, eve.ID)
	s.Require().NoError(err)
	s.False(added)

	added, err = s.users.AddFriend(s.ctx, u.ID, ann.ID)
	s.Require().NoError(err)
	s.True(added)

	got, err := s.users.GetUserWithFriends(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal([]string{eve.ID, ann.ID}, got.FriendIDs)
	s.Require().Len(got.Friends, 2)
	s.Equal("Ann", got.Friends[1].Name)
}

func (s *StoreSuite) TestCreatePersonUnknownOwnerIsCompensated() {
	_, err := s.persons.CreatePerson(s.ctx, domain.PersonInput{Name: "Eve", Street: "Main St"}, "65a000000000000000000000")
	s.ErrorIs(err, domain.ErrNotFound)

	n, err := s.persons.CountPersons(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
}
