package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/model"
)

// UpsertUser is a single atomic update with upsert: $setOnInsert writes
// created_at only when the document is new, and UpsertedCount says which
// case happened.
func (s *Store) UpsertUser(ctx context.Context, u *model.UserProfile) (bool, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: u.UID}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "email", Value: u.Email},
				{Key: "name", Value: u.Name},
				{Key: "updated_at", Value: now},
			}},
			{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: now}}},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("mongo: upserting user %s: %w", u.UID, err)
	}

	stored, err := s.GetUser(ctx, u.UID)
	if err != nil {
		return false, err
	}
	*u = *stored
	return res.UpsertedCount > 0, nil
}

func (s *Store) GetUser(ctx context.Context, uid string) (*model.UserProfile, error) {
	var u model.UserProfile
	if err := s.users.FindOne(ctx, bson.D{{Key: "_id", Value: uid}}).Decode(&u); err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound("user", uid)
		}
		return nil, fmt.Errorf("mongo: getting user %s: %w", uid, err)
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *model.UserProfile) error {
	u.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: u.UID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "email", Value: u.Email},
			{Key: "name", Value: u.Name},
			{Key: "updated_at", Value: u.UpdatedAt},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mongo: updating user %s: %w", u.UID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", u.UID)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, uid string) error {
	res, err := s.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: uid}})
	if err != nil {
		return fmt.Errorf("mongo: deleting user %s: %w", uid, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("user", uid)
	}
	return nil
}
