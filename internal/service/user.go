package service

import (
	"context"
	"log/slog"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/model"
	"github.com/sakif/college-tracker/internal/repository"
)

// ProfileFields are the mutable profile attributes. A nil field leaves the
// stored value untouched.
type ProfileFields struct {
	Email *string
	Name  *string
}

// UserService keeps the local copy of identity-provider profiles.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// Sync upserts the caller's profile after sign-in. Asserted values from the
// identity provider win; fallback fills in what the provider did not assert
// (a verifier that only sees "sub", for example). created is true only on
// the first call for uid.
func (s *UserService) Sync(ctx context.Context, uid string, asserted, fallback ProfileFields) (*model.UserProfile, bool, error) {
	if uid == "" {
		return nil, false, apperror.Unauthenticated("authentication required")
	}

	u := &model.UserProfile{
		UID:   uid,
		Email: firstNonNil(asserted.Email, fallback.Email),
		Name:  firstNonNil(asserted.Name, fallback.Name),
	}
	created, err := s.repo.UpsertUser(ctx, u)
	if err != nil {
		return nil, false, unexpected(s.logger, "syncing user", err, "uid", uid)
	}

	if created {
		s.logger.Info("user created", slog.String("uid", uid))
	}
	return u, created, nil
}

// Get returns a profile. Callers may only read their own.
func (s *UserService) Get(ctx context.Context, callerUID, uid string) (*model.UserProfile, error) {
	if err := sameUser(callerUID, uid); err != nil {
		return nil, err
	}
	u, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		return nil, passThrough(s.logger, "getting user", err, "uid", uid)
	}
	return u, nil
}

// Update changes email and/or name on the caller's own profile.
func (s *UserService) Update(ctx context.Context, callerUID, uid string, fields ProfileFields) (*model.UserProfile, error) {
	if err := sameUser(callerUID, uid); err != nil {
		return nil, err
	}
	u, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		return nil, passThrough(s.logger, "loading user", err, "uid", uid)
	}
	if fields.Email != nil {
		u.Email = fields.Email
	}
	if fields.Name != nil {
		u.Name = fields.Name
	}
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, passThrough(s.logger, "updating user", err, "uid", uid)
	}
	return u, nil
}

// Delete removes the caller's own profile. Saved records are left alone.
func (s *UserService) Delete(ctx context.Context, callerUID, uid string) error {
	if err := sameUser(callerUID, uid); err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, uid); err != nil {
		return passThrough(s.logger, "deleting user", err, "uid", uid)
	}
	s.logger.Info("user deleted", slog.String("uid", uid))
	return nil
}

// sameUser is the one place a profile request for another uid is refused:
// 403, since the caller is known but the resource is not theirs.
func sameUser(callerUID, uid string) error {
	if callerUID == "" {
		return apperror.Unauthenticated("authentication required")
	}
	if callerUID != uid {
		return apperror.Forbidden("cannot access another user's profile")
	}
	return nil
}

func firstNonNil(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
