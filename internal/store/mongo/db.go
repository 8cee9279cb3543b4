// Package mongo stores the directory in MongoDB. Persons and users live in
// separate collections; a user's friends are an ordered array of person ids.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"DirectoryServer/internal/domain"
)

const (
	personsCollection = "persons"
	usersCollection   = "users"
)

type DB struct {
	client *mongo.Client
	db     *mongo.Database
	Now    func() time.Time
}

func Open(ctx context.Context, uri, database string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &DB{client: client, db: client.Database(database), Now: time.Now}, nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique indexes the stores rely on for name and
// username uniqueness.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	_, err := d.db.Collection(personsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("persons_name_uq"),
	})
	if err != nil {
		return fmt.Errorf("ensure persons index: %w", err)
	}
	_, err = d.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_username_uq"),
	})
	if err != nil {
		return fmt.Errorf("ensure users index: %w", err)
	}
	return nil
}

func (d *DB) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

type personDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Phone     string             `bson:"phone,omitempty"`
	Street    string             `bson:"street"`
	City      string             `bson:"city,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d personDoc) toDomain() domain.Person {
	return domain.Person{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Phone:     d.Phone,
		Street:    d.Street,
		City:      d.City,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type userDoc struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Username  string               `bson:"username"`
	Friends   []primitive.ObjectID `bson:"friends"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

func (d userDoc) toDomain() domain.User {
	ids := make([]string, 0, len(d.Friends))
	for _, id := range d.Friends {
		ids = append(ids, id.Hex())
	}
	return domain.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		FriendIDs: ids,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// phoneFilter translates a PhoneFilter into a query document. A phone is
// absent when the field is missing or empty.
func phoneFilter(f domain.PhoneFilter) bson.M {
	switch f {
	case domain.PhoneYes:
		return bson.M{"phone": bson.M{"$exists": true, "$ne": ""}}
	case domain.PhoneNo:
		return bson.M{"$or": bson.A{
			bson.M{"phone": bson.M{"$exists": false}},
			bson.M{"phone": ""},
		}}
	default:
		return bson.M{}
	}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}
