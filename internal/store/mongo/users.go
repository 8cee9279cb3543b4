package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"DirectoryServer/internal/domain"
)

type UsersStore struct {
	db *DB
}

func NewUsersStore(db *DB) *UsersStore {
	return &UsersStore{db: db}
}

func (s *UsersStore) persons() *mongo.Collection { return s.db.db.Collection(personsCollection) }
func (s *UsersStore) users() *mongo.Collection   { return s.db.db.Collection(usersCollection) }

func (s *UsersStore) CreateUser(ctx context.Context, username string) (domain.User, error) {
	now := s.db.now()
	doc := userDoc{
		Username:  username,
		Friends:   []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.users().InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.User{}, domain.ErrUsernameTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	doc, err := s.getByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	return doc.toDomain(), nil
}

func (s *UsersStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var doc userDoc
	if err := s.users().FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		return domain.User{}, notFound(err)
	}
	return doc.toDomain(), nil
}

func (s *UsersStore) getByID(ctx context.Context, id string) (userDoc, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return userDoc{}, domain.ErrNotFound
	}
	var doc userDoc
	if err := s.users().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return userDoc{}, notFound(err)
	}
	return doc, nil
}

func (s *UsersStore) GetUserWithFriends(ctx context.Context, id string) (domain.User, error) {
	doc, err := s.getByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	u := doc.toDomain()
	u.Friends = []domain.Person{}
	if len(doc.Friends) == 0 {
		return u, nil
	}

	cur, err := s.persons().Find(ctx, bson.M{"_id": bson.M{"$in": doc.Friends}})
	if err != nil {
		return domain.User{}, fmt.Errorf("list friends: %w", err)
	}
	var docs []personDoc
	if err := cur.All(ctx, &docs); err != nil {
		return domain.User{}, fmt.Errorf("list friends: %w", err)
	}

	byID := make(map[primitive.ObjectID]personDoc, len(docs))
	for _, p := range docs {
		byID[p.ID] = p
	}
	for _, fid := range doc.Friends {
		if p, ok := byID[fid]; ok {
			u.Friends = append(u.Friends, p.toDomain())
		}
	}
	return u, nil
}

func (s *UsersStore) AddFriend(ctx context.Context, userID, personID string) (bool, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, domain.ErrNotFound
	}
	pid, err := primitive.ObjectIDFromHex(personID)
	if err != nil {
		return false, domain.ErrNotFound
	}

	n, err := s.persons().CountDocuments(ctx, bson.M{"_id": pid})
	if err != nil {
		return false, fmt.Errorf("add friend: %w", err)
	}
	if n == 0 {
		return false, domain.ErrNotFound
	}

	res, err := s.users().UpdateOne(ctx,
		bson.M{"_id": uid, "friends": bson.M{"$ne": pid}},
		bson.M{
			"$push": bson.M{"friends": pid},
			"$set":  bson.M{"updated_at": s.db.now()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("add friend: %w", err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	// Nothing matched: either the user is missing or the link already exists.
	if _, err := s.getByID(ctx, userID); err != nil {
		return false, err
	}
	return false, nil
}
