// Package mongo implements the repository interfaces on a MongoDB database.
//
// Collections:
//   - saved_records: unique compound index on (owner_id, name)
//   - colleges:      index on INSTNM for ordered browsing
//   - users:         _id is the identity-provider subject id
//
// Documents use the bson tags on the model types; ids are xid strings, not
// ObjectIDs, so the same ids work in both backends.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sakif/college-tracker/internal/repository"
)

var _ repository.Store = (*Store)(nil)

const (
	savedCollection   = "saved_records"
	collegeCollection = "colleges"
	userCollection    = "users"
)

// Store holds one client and the three collections.
type Store struct {
	client   *mgo.Client
	saved    *mgo.Collection
	colleges *mgo.Collection
	users    *mgo.Collection
}

// New connects to uri, selects database and ensures the indexes exist.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mgo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		saved:    db.Collection(savedCollection),
		colleges: db.Collection(collegeCollection),
		users:    db.Collection(userCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.saved.Indexes().CreateMany(ctx, []mgo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("owner_name_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo: creating saved_records indexes: %w", err)
	}

	_, err = s.colleges.Indexes().CreateOne(ctx, mgo.IndexModel{
		Keys:    bson.D{{Key: "INSTNM", Value: 1}},
		Options: options.Index().SetName("instnm"),
	})
	if err != nil {
		return fmt.Errorf("mongo: creating colleges indexes: %w", err)
	}
	return nil
}

// Ping is used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects, waiting at most five seconds for in-flight operations.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mgo.ErrNoDocuments)
}
