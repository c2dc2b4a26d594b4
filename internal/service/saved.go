// Package service contains the business rules between the HTTP handlers and
// the repositories.
//
//	Handler (HTTP)  → decodes requests, writes envelopes
//	Service         → normalizes, enforces ownership and dedup, derives views
//	Repository      → persists
//
// Services take repository interfaces, never a concrete store, so the tests
// run against in-memory fakes and the server can swap SQLite for MongoDB.
// Errors come back as apperror values; only the handler knows HTTP.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/model"
	"github.com/sakif/college-tracker/internal/normalize"
	"github.com/sakif/college-tracker/internal/progress"
	"github.com/sakif/college-tracker/internal/repository"
)

// SavedView is a saved record as the API returns it: the stored fields plus
// the progress summary, derived on every read and never persisted.
type SavedView struct {
	model.SavedRecord
	Progress progress.Summary `json:"progress"`
}

func viewOf(rec model.SavedRecord) SavedView {
	return SavedView{SavedRecord: rec, Progress: progress.ForRecord(rec)}
}

// SavedService manages one user's saved colleges.
type SavedService struct {
	repo   repository.SavedRepository
	logger *slog.Logger
}

func NewSavedService(repo repository.SavedRepository, logger *slog.Logger) *SavedService {
	return &SavedService{repo: repo, logger: logger}
}

// Create normalizes p and saves it for ownerID.
//
// The existence check gives the usual duplicate a clean Conflict without a
// failed write. It is not what makes the invariant hold: two concurrent
// creates can both pass it, and the store's unique (owner, name) index
// turns the loser into the same Conflict.
func (s *SavedService) Create(ctx context.Context, ownerID string, p normalize.Payload) (*SavedView, error) {
	if ownerID == "" {
		return nil, apperror.Unauthenticated("authentication required")
	}

	rec, err := normalize.NewRecord(p)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.SavedNameExists(ctx, ownerID, rec.Name)
	if err != nil {
		return nil, unexpected(s.logger, "checking saved name", err, "owner", ownerID)
	}
	if exists {
		return nil, apperror.AlreadySaved(rec.Name)
	}

	rec.OwnerID = ownerID
	if err := s.repo.CreateSaved(ctx, rec); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, unexpected(s.logger, "creating saved record", err, "owner", ownerID)
	}

	s.logger.Info("college saved",
		slog.String("id", rec.ID),
		slog.String("owner", ownerID),
		slog.String("name", rec.Name),
	)
	v := viewOf(*rec)
	return &v, nil
}

// List returns every record of ownerID with its progress.
func (s *SavedService) List(ctx context.Context, ownerID string) ([]SavedView, error) {
	records, err := s.repo.ListSaved(ctx, ownerID)
	if err != nil {
		return nil, unexpected(s.logger, "listing saved records", err, "owner", ownerID)
	}
	views := make([]SavedView, 0, len(records))
	for _, rec := range records {
		views = append(views, viewOf(rec))
	}
	return views, nil
}

func (s *SavedService) Get(ctx context.Context, ownerID, id string) (*SavedView, error) {
	rec, err := s.repo.GetSaved(ctx, ownerID, id)
	if err != nil {
		return nil, passThrough(s.logger, "getting saved record", err, "id", id)
	}
	v := viewOf(*rec)
	return &v, nil
}

// Update applies the fields present in p. Omitted fields keep their stored
// value; ownerID, id and createdAt cannot be changed through p.
func (s *SavedService) Update(ctx context.Context, ownerID, id string, p normalize.Payload) (*SavedView, error) {
	patch, err := normalize.NewPatch(p)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.GetSaved(ctx, ownerID, id)
	if err != nil {
		return nil, passThrough(s.logger, "loading saved record", err, "id", id)
	}
	if patch.Empty() {
		v := viewOf(*rec)
		return &v, nil
	}

	patch.Apply(rec)
	if err := s.repo.UpdateSaved(ctx, rec); err != nil {
		return nil, passThrough(s.logger, "updating saved record", err, "id", id)
	}

	v := viewOf(*rec)
	return &v, nil
}

func (s *SavedService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteSaved(ctx, ownerID, id); err != nil {
		return passThrough(s.logger, "deleting saved record", err, "id", id)
	}
	s.logger.Info("saved record deleted", slog.String("id", id), slog.String("owner", ownerID))
	return nil
}

// IsSaved answers the check-before-save question for the resolved name.
// The match is exact and case-sensitive.
func (s *SavedService) IsSaved(ctx context.Context, ownerID, name string) (bool, error) {
	name = normalize.Name(name)
	if name == "" {
		return false, nil
	}
	exists, err := s.repo.SavedNameExists(ctx, ownerID, name)
	if err != nil {
		return false, unexpected(s.logger, "checking saved name", err, "owner", ownerID)
	}
	return exists, nil
}
