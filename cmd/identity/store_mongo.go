package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultAccountsCollection matches the collection the mobile client's data
// was first written to.
const DefaultAccountsCollection = "users"

// MongoStore implements Store over a MongoDB collection. Token-set updates
// are single-document pipeline updates, which MongoDB applies atomically. A
// null or missing tokens field is treated as an empty set.
type MongoStore struct {
	coll *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

type mongoPassword struct {
	Salt string `bson:"salt"`
	Hash string `bson:"hash"`
}

type mongoAccount struct {
	ID         string         `bson:"_id"`
	Email      string         `bson:"email"`
	Password   *mongoPassword `bson:"password,omitempty"`
	FromGoogle bool           `bson:"fromGoogle"`
	Tokens     []string       `bson:"tokens"`
	CreatedAt  time.Time      `bson:"createdAt"`
	UpdatedAt  time.Time      `bson:"updatedAt"`
}

func (m mongoAccount) account() Account {
	a := Account{
		ID:          m.ID,
		Email:       m.Email,
		FromGoogle:  m.FromGoogle,
		ValidTokens: m.Tokens,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Password != nil {
		a.PasswordSalt = m.Password.Salt
		a.PasswordHash = m.Password.Hash
	}
	return a
}

// NewMongoStore binds the store to db.Collection(collection).
func NewMongoStore(db *mongo.Database, collection string) (*MongoStore, error) {
	if db == nil {
		return nil, fmt.Errorf("identity: nil mongo database")
	}
	if collection == "" {
		collection = DefaultAccountsCollection
	}
	return &MongoStore{coll: db.Collection(collection)}, nil
}

// EnsureIndexes creates the unique email index. It is idempotent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_users_email"),
	})
	if err != nil {
		return StorageError("identity.EnsureIndexes", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *MongoStore) FindAccount(ctx context.Context, email string) (Account, error) {
	const op = "identity.FindAccount"
	var doc mongoAccount
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Account{}, accountNotFound(op)
		}
		return Account{}, StorageError(op, err)
	}
	return doc.account(), nil
}

func (s *MongoStore) AccountExists(ctx context.Context, email string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, StorageError("identity.AccountExists", err)
	}
	return n > 0, nil
}

func (s *MongoStore) CreateAccount(ctx context.Context, a Account) error {
	const op = "identity.CreateAccount"
	if err := a.Validate(); err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	doc := mongoAccount{
		ID:         a.ID,
		Email:      a.Email,
		FromGoogle: a.FromGoogle,
		Tokens:     []string{},
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.CreatedAt,
	}
	if a.HasPassword() {
		doc.Password = &mongoPassword{Salt: a.PasswordSalt, Hash: a.PasswordHash}
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ConflictError{Op: op, Field: "email"}
		}
		return StorageError(op, err)
	}
	return nil
}

func (s *MongoStore) UpdatePassword(ctx context.Context, email, salt, hash string, now time.Time) error {
	const op = "identity.UpdatePassword"
	if salt == "" || hash == "" {
		return invalid(op, "empty credential")
	}
	return s.update(ctx, op, email, bson.M{"$set": bson.M{
		"password":  mongoPassword{Salt: salt, Hash: hash},
		"updatedAt": now,
	}})
}

func (s *MongoStore) DeleteAccount(ctx context.Context, email string) error {
	const op = "identity.DeleteAccount"
	res, err := s.coll.DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		return StorageError(op, err)
	}
	if res.DeletedCount == 0 {
		return accountNotFound(op)
	}
	return nil
}

func (s *MongoStore) AddToken(ctx context.Context, email, token string) error {
	const op = "identity.AddToken"
	if token == "" {
		return invalid(op, "empty token")
	}
	tok := bson.M{"$literal": token}
	return s.update(ctx, op, email, mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"tokens": bson.M{"$cond": bson.A{
			bson.M{"$in": bson.A{tok, currentTokens}},
			currentTokens,
			bson.M{"$concatArrays": bson.A{currentTokens, bson.A{tok}}},
		}}}}},
	})
}

func (s *MongoStore) RemoveToken(ctx context.Context, email, token string) error {
	return s.update(ctx, "identity.RemoveToken", email, mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"tokens": bson.M{"$filter": bson.M{
			"input": currentTokens,
			"cond":  bson.M{"$ne": bson.A{"$$this", bson.M{"$literal": token}}},
		}}}}},
	})
}

// currentTokens reads the stored set inside an update pipeline.
var currentTokens = bson.M{"$ifNull": bson.A{"$tokens", bson.A{}}}

func (s *MongoStore) HasToken(ctx context.Context, email, token string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx,
		bson.M{"email": email, "tokens": token},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, StorageError("identity.HasToken", err)
	}
	return n > 0, nil
}

func (s *MongoStore) update(ctx context.Context, op, email string, update any) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return StorageError(op, err)
	}
	if res.MatchedCount == 0 {
		return accountNotFound(op)
	}
	return nil
}
