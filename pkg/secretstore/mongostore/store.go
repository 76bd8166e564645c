// Package mongostore keeps TOTP secrets in a MongoDB collection, one
// document per user keyed by _id.
//
// Enable is a single UpdateOne filtered on both _id and pending_id and
// expressed as an aggregation pipeline, so copying pending_secret into
// secret happens atomically on the server.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/totpguard/pkg/secretstore"
)

const DefaultCollection = "totp_secrets"

type document struct {
	UserID        string    `bson:"_id"`
	Secret        string    `bson:"secret"`
	Enabled       bool      `bson:"enabled"`
	PendingSecret string    `bson:"pending_secret,omitempty"`
	PendingID     string    `bson:"pending_id,omitempty"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

// Store implements secretstore.Store on a MongoDB collection.
type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store on db.Collection(DefaultCollection).
func New(db *mongo.Database, opts ...Option) *Store {
	return NewWithCollection(db.Collection(DefaultCollection), opts...)
}

// NewWithCollection creates a store on an explicit collection.
func NewWithCollection(coll *mongo.Collection, opts ...Option) *Store {
	s := &Store{coll: coll, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Load(ctx context.Context, userID string) (*secretstore.Record, error) {
	if userID == "" {
		return nil, secretstore.ErrEmptyUserID
	}

	var doc document
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, secretstore.ErrNotFound
		}
		return nil, errors.Join(secretstore.ErrUnavailable, err)
	}

	return &secretstore.Record{
		UserID:        doc.UserID,
		Secret:        doc.Secret,
		Enabled:       doc.Enabled,
		PendingSecret: doc.PendingSecret,
		PendingID:     doc.PendingID,
		UpdatedAt:     doc.UpdatedAt.UTC(),
	}, nil
}

func (s *Store) SavePending(ctx context.Context, userID, pendingID, secret string) error {
	if userID == "" {
		return secretstore.ErrEmptyUserID
	}
	if pendingID == "" || secret == "" {
		return secretstore.ErrEmptyPending
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "pending_secret", Value: secret},
			{Key: "pending_id", Value: pendingID},
			{Key: "updated_at", Value: s.now().UTC()},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "secret", Value: ""},
			{Key: "enabled", Value: false},
		}},
	}
	_, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: userID}}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return errors.Join(secretstore.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Enable(ctx context.Context, userID, pendingID string) error {
	if userID == "" {
		return secretstore.ErrEmptyUserID
	}

	if pendingID != "" {
		filter := bson.D{
			{Key: "_id", Value: userID},
			{Key: "pending_id", Value: pendingID},
		}
		update := mongo.Pipeline{
			{{Key: "$set", Value: bson.D{
				{Key: "secret", Value: "$pending_secret"},
				{Key: "enabled", Value: true},
				{Key: "updated_at", Value: s.now().UTC()},
			}}},
			{{Key: "$unset", Value: bson.A{"pending_secret", "pending_id"}}},
		}

		res, err := s.coll.UpdateOne(ctx, filter, update)
		if err != nil {
			return errors.Join(secretstore.ErrUnavailable, err)
		}
		if res.MatchedCount == 1 {
			return nil
		}
	}

	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: userID}}, options.Count().SetLimit(1))
	if err != nil {
		return errors.Join(secretstore.ErrUnavailable, err)
	}
	if n == 0 {
		return secretstore.ErrNotFound
	}
	return secretstore.ErrConflict
}

func (s *Store) Disable(ctx context.Context, userID string) error {
	if userID == "" {
		return secretstore.ErrEmptyUserID
	}
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: userID}}); err != nil {
		return errors.Join(secretstore.ErrUnavailable, err)
	}
	return nil
}
