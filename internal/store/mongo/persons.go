package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"DirectoryServer/internal/domain"
)

type PersonsStore struct {
	db *DB
}

func NewPersonsStore(db *DB) *PersonsStore {
	return &PersonsStore{db: db}
}

func (s *PersonsStore) persons() *mongo.Collection { return s.db.db.Collection(personsCollection) }
func (s *PersonsStore) users() *mongo.Collection   { return s.db.db.Collection(usersCollection) }

func (s *PersonsStore) CountPersons(ctx context.Context) (int, error) {
	n, err := s.persons().CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count persons: %w", err)
	}
	return int(n), nil
}

func (s *PersonsStore) ListPersons(ctx context.Context, filter domain.PhoneFilter) ([]domain.Person, error) {
	cur, err := s.persons().Find(ctx, phoneFilter(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	var docs []personDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}

	out := make([]domain.Person, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *PersonsStore) FindPersonByName(ctx context.Context, name string) (domain.Person, error) {
	var doc personDoc
	if err := s.persons().FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		return domain.Person{}, notFound(err)
	}
	return doc.toDomain(), nil
}

func (s *PersonsStore) GetPersonByID(ctx context.Context, id string) (domain.Person, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Person{}, domain.ErrNotFound
	}
	var doc personDoc
	if err := s.persons().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return domain.Person{}, notFound(err)
	}
	return doc.toDomain(), nil
}

// CreatePerson inserts the person and then links it to the owner. MongoDB
// cannot update both collections atomically without a replica set, so a
// failed link deletes the inserted person again.
func (s *PersonsStore) CreatePerson(ctx context.Context, in domain.PersonInput, ownerID string) (domain.Person, error) {
	var owner primitive.ObjectID
	if ownerID != "" {
		var err error
		if owner, err = primitive.ObjectIDFromHex(ownerID); err != nil {
			return domain.Person{}, domain.ErrNotFound
		}
	}

	now := s.db.now()
	doc := personDoc{
		Name:      in.Name,
		Phone:     in.Phone,
		Street:    in.Street,
		City:      in.City,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.persons().InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Person{}, domain.ErrPersonNameTaken
		}
		return domain.Person{}, fmt.Errorf("create person: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)

	if ownerID == "" {
		return doc.toDomain(), nil
	}

	upd, err := s.users().UpdateOne(ctx,
		bson.M{"_id": owner},
		bson.M{
			"$addToSet": bson.M{"friends": doc.ID},
			"$set":      bson.M{"updated_at": now},
		},
	)
	if err == nil && upd.MatchedCount == 0 {
		err = domain.ErrNotFound
	}
	if err != nil {
		if _, derr := s.persons().DeleteOne(context.WithoutCancel(ctx), bson.M{"_id": doc.ID}); derr != nil {
			return domain.Person{}, fmt.Errorf("link owner: %w (rollback failed: %v)", err, derr)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Person{}, err
		}
		return domain.Person{}, fmt.Errorf("link owner: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *PersonsStore) UpdatePhone(ctx context.Context, id, phone string) (domain.Person, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Person{}, domain.ErrNotFound
	}

	var doc personDoc
	err = s.persons().FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"phone": phone, "updated_at": s.db.now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		err = notFound(err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Person{}, err
		}
		return domain.Person{}, fmt.Errorf("update phone: %w", err)
	}
	return doc.toDomain(), nil
}
