package mongo

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/catalog"
	"github.com/sakif/college-tracker/internal/model"
)

// collegeFilter is the document-query form of catalog.Filter.Match.
// User input is quoted so it is always matched literally.
func collegeFilter(f catalog.Filter) bson.D {
	filter := bson.D{}
	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "INSTNM", Value: re}},
			bson.D{{Key: "CITY", Value: re}},
			bson.D{{Key: "STABBR", Value: re}},
		}})
	}
	if f.Letter != "" {
		filter = append(filter, bson.E{Key: "INSTNM", Value: primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(f.Letter),
			Options: "i",
		}})
	}
	return filter
}

func (s *Store) SearchColleges(ctx context.Context, f catalog.Filter) ([]model.College, int, error) {
	filter := collegeFilter(f)

	total, err := s.colleges.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo: counting colleges: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "INSTNM", Value: 1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := s.colleges.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo: searching colleges: %w", err)
	}

	colleges := make([]model.College, 0)
	if err := cur.All(ctx, &colleges); err != nil {
		return nil, 0, fmt.Errorf("mongo: decoding colleges: %w", err)
	}
	return colleges, int(total), nil
}

func (s *Store) GetCollege(ctx context.Context, id string) (*model.College, error) {
	var c model.College
	if err := s.colleges.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&c); err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound("college", id)
		}
		return nil, fmt.Errorf("mongo: getting college %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) CreateCollege(ctx context.Context, c *model.College) error {
	if c.ID == "" {
		c.ID = xid.New().String()
	}
	if _, err := s.colleges.InsertOne(ctx, c); err != nil {
		if mgo.IsDuplicateKeyError(err) {
			return apperror.Conflict("college", c.ID)
		}
		return fmt.Errorf("mongo: inserting college: %w", err)
	}
	return nil
}

// UpdateCollege replaces the whole document; catalog entries have no
// server-managed fields.
func (s *Store) UpdateCollege(ctx context.Context, c *model.College) error {
	res, err := s.colleges.ReplaceOne(ctx, bson.D{{Key: "_id", Value: c.ID}}, c)
	if err != nil {
		return fmt.Errorf("mongo: updating college %s: %w", c.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("college", c.ID)
	}
	return nil
}

func (s *Store) DeleteCollege(ctx context.Context, id string) error {
	res, err := s.colleges.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("mongo: deleting college %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("college", id)
	}
	return nil
}

func (s *Store) CountColleges(ctx context.Context) (int, error) {
	n, err := s.colleges.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongo: counting colleges: %w", err)
	}
	return int(n), nil
}

func (s *Store) InsertColleges(ctx context.Context, cs []model.College) error {
	if len(cs) == 0 {
		return nil
	}
	docs := make([]any, len(cs))
	for i := range cs {
		if cs[i].ID == "" {
			cs[i].ID = xid.New().String()
		}
		docs[i] = cs[i]
	}
	if _, err := s.colleges.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongo: inserting %d colleges: %w", len(cs), err)
	}
	return nil
}
