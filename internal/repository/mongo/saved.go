package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/model"
)

// ownedBy is the filter every single-record operation uses: matching on
// both keys makes another owner's record indistinguishable from a missing one.
func ownedBy(ownerID, id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "owner_id", Value: ownerID}}
}

func (s *Store) CreateSaved(ctx context.Context, rec *model.SavedRecord) error {
	rec.ID = xid.New().String()
	now := time.Now().UTC().Truncate(time.Millisecond)
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Extras == nil {
		rec.Extras = []model.ExtraField{}
	}

	if _, err := s.saved.InsertOne(ctx, rec); err != nil {
		if mgo.IsDuplicateKeyError(err) {
			return apperror.AlreadySaved(rec.Name)
		}
		return fmt.Errorf("mongo: inserting saved record: %w", err)
	}
	return nil
}

// ListSaved sorts by _id; xids start with a timestamp, so that is insertion order.
func (s *Store) ListSaved(ctx context.Context, ownerID string) ([]model.SavedRecord, error) {
	cur, err := s.saved.Find(ctx,
		bson.D{{Key: "owner_id", Value: ownerID}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing saved records: %w", err)
	}

	records := make([]model.SavedRecord, 0)
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("mongo: decoding saved records: %w", err)
	}
	for i := range records {
		normalizeExtras(&records[i])
	}
	return records, nil
}

func (s *Store) GetSaved(ctx context.Context, ownerID, id string) (*model.SavedRecord, error) {
	var rec model.SavedRecord
	if err := s.saved.FindOne(ctx, ownedBy(ownerID, id)).Decode(&rec); err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound("saved record", id)
		}
		return nil, fmt.Errorf("mongo: getting saved record %s: %w", id, err)
	}
	normalizeExtras(&rec)
	return &rec, nil
}

// UpdateSaved sets the mutable fields only; owner_id and created_at are not in $set.
func (s *Store) UpdateSaved(ctx context.Context, rec *model.SavedRecord) error {
	rec.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if rec.Extras == nil {
		rec.Extras = []model.ExtraField{}
	}

	res, err := s.saved.UpdateOne(ctx, ownedBy(rec.OwnerID, rec.ID), bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: rec.Name},
		{Key: "deadline", Value: rec.Deadline},
		{Key: "location", Value: rec.Location},
		{Key: "website", Value: rec.Website},
		{Key: "notes", Value: rec.Notes},
		{Key: "application_status", Value: rec.ApplicationStatus},
		{Key: "essay_status", Value: rec.EssayStatus},
		{Key: "recommendation_status", Value: rec.RecommendationStatus},
		{Key: "extras", Value: rec.Extras},
		{Key: "updated_at", Value: rec.UpdatedAt},
	}}})
	if err != nil {
		if mgo.IsDuplicateKeyError(err) {
			return apperror.AlreadySaved(rec.Name)
		}
		return fmt.Errorf("mongo: updating saved record %s: %w", rec.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("saved record", rec.ID)
	}
	return nil
}

func (s *Store) DeleteSaved(ctx context.Context, ownerID, id string) error {
	res, err := s.saved.DeleteOne(ctx, ownedBy(ownerID, id))
	if err != nil {
		return fmt.Errorf("mongo: deleting saved record %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("saved record", id)
	}
	return nil
}

// SavedNameExists uses the default (binary) collation: exact, case-sensitive.
func (s *Store) SavedNameExists(ctx context.Context, ownerID, name string) (bool, error) {
	n, err := s.saved.CountDocuments(ctx,
		bson.D{{Key: "owner_id", Value: ownerID}, {Key: "name", Value: name}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("mongo: checking saved name: %w", err)
	}
	return n > 0, nil
}

// normalizeExtras makes a missing or null extras array an empty list and
// turns BSON integers back into the float64 the JSON layer expects.
func normalizeExtras(rec *model.SavedRecord) {
	if rec.Extras == nil {
		rec.Extras = []model.ExtraField{}
	}
	for i, f := range rec.Extras {
		switch v := f.Value.(type) {
		case int32:
			rec.Extras[i].Value = float64(v)
		case int64:
			rec.Extras[i].Value = float64(v)
		}
	}
}
