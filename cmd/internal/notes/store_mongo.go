package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultCollection = "notes"

// MongoStore implements Store over a MongoDB collection. Documents keep the
// field names the mobile client already syncs against.
type MongoStore struct {
	coll *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

type mongoNote struct {
	ID         string    `bson:"_id"`
	SavedBy    string    `bson:"savedBy"`
	MobileID   string    `bson:"noteIdMobile"`
	Title      string    `bson:"title"`
	Body       string    `bson:"body"`
	Tags       []string  `bson:"tags"`
	Categories []string  `bson:"categories"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

func toMongo(n Note) mongoNote {
	return mongoNote{
		ID:         n.ID,
		SavedBy:    n.Owner,
		MobileID:   n.MobileID,
		Title:      n.Title,
		Body:       n.Body,
		Tags:       nonNil(n.Tags),
		Categories: nonNil(n.Categories),
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func (m mongoNote) note() Note {
	return Note{
		ID:         m.ID,
		Owner:      m.SavedBy,
		MobileID:   m.MobileID,
		Title:      m.Title,
		Body:       m.Body,
		Tags:       nonNil(m.Tags),
		Categories: nonNil(m.Categories),
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func NewMongoStore(db *mongo.Database, collection string) (*MongoStore, error) {
	if db == nil {
		return nil, fmt.Errorf("notes: nil mongo database")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStore{coll: db.Collection(collection)}, nil
}

// EnsureIndexes creates the per-owner unique mobile id index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "savedBy", Value: 1}, {Key: "noteIdMobile", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uq_notes_owner_mobile_id"),
		},
		{
			Keys:    bson.D{{Key: "savedBy", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index().SetName("idx_notes_owner_updated"),
		},
	})
	if err != nil {
		return storageErr("notes.EnsureIndexes", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, n Note) error {
	if _, err := s.coll.InsertOne(ctx, toMongo(n)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return storageErr("notes.Insert", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, owner string) ([]Note, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"savedBy": owner},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, storageErr("notes.List", err)
	}
	var docs []mongoNote
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storageErr("notes.List", err)
	}
	out := make([]Note, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.note())
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, owner, mobileID string) (Note, error) {
	var doc mongoNote
	err := s.coll.FindOne(ctx, bson.M{"savedBy": owner, "noteIdMobile": mobileID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Note{}, ErrNotFound
		}
		return Note{}, storageErr("notes.Get", err)
	}
	return doc.note(), nil
}

func (s *MongoStore) Update(ctx context.Context, owner, mobileID string, p Patch, now time.Time) (Note, error) {
	set := bson.M{"updatedAt": now}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Body != nil {
		set["body"] = *p.Body
	}
	if p.Tags != nil {
		set["tags"] = nonNil(*p.Tags)
	}
	if p.Categories != nil {
		set["categories"] = nonNil(*p.Categories)
	}

	var doc mongoNote
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"savedBy": owner, "noteIdMobile": mobileID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Note{}, ErrNotFound
		}
		return Note{}, storageErr("notes.Update", err)
	}
	return doc.note(), nil
}

func (s *MongoStore) Delete(ctx context.Context, owner, mobileID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"savedBy": owner, "noteIdMobile": mobileID})
	if err != nil {
		return storageErr("notes.Delete", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteAllForOwner(ctx context.Context, owner string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"savedBy": owner})
	if err != nil {
		return 0, storageErr("notes.DeleteAllForOwner", err)
	}
	return res.DeletedCount, nil
}
