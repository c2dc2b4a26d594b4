// Package repository declares the storage contracts the services depend on.
// The sqlite and mongo sub-packages implement all three interfaces on one
// handle each, so method names carry their entity.
package repository

import (
	"context"

	"github.com/sakif/college-tracker/internal/catalog"
	"github.com/sakif/college-tracker/internal/model"
)

// SavedRepository stores saved records. Every read and write is scoped to
// an owner: a record owned by someone else behaves exactly like a missing one.
type SavedRepository interface {
	// CreateSaved assigns ID and timestamps. A second record with the same
	// (OwnerID, Name) fails with apperror.ErrConflict, enforced atomically
	// by the store.
	CreateSaved(ctx context.Context, rec *model.SavedRecord) error
	ListSaved(ctx context.Context, ownerID string) ([]model.SavedRecord, error)
	GetSaved(ctx context.Context, ownerID, id string) (*model.SavedRecord, error)
	// UpdateSaved overwrites the mutable fields of an owned record.
	UpdateSaved(ctx context.Context, rec *model.SavedRecord) error
	DeleteSaved(ctx context.Context, ownerID, id string) error
	// SavedNameExists is an exact, case-sensitive match.
	SavedNameExists(ctx context.Context, ownerID, name string) (bool, error)
}

// CollegeRepository stores the shared catalog.
type CollegeRepository interface {
	// SearchColleges returns up to f.Limit matches ordered by name, plus the
	// number of matches before the limit was applied.
	SearchColleges(ctx context.Context, f catalog.Filter) ([]model.College, int, error)
	GetCollege(ctx context.Context, id string) (*model.College, error)
	CreateCollege(ctx context.Context, c *model.College) error
	UpdateCollege(ctx context.Context, c *model.College) error
	DeleteCollege(ctx context.Context, id string) error
	CountColleges(ctx context.Context) (int, error)
	// InsertColleges bulk-loads the seed in one transaction or batch.
	InsertColleges(ctx context.Context, cs []model.College) error
}

// UserRepository stores identity-provider profiles keyed by subject id.
type UserRepository interface {
	GetUser(ctx context.Context, uid string) (*model.UserProfile, error)
	// UpsertUser creates the profile or refreshes email and name.
	// created reports whether the profile did not exist before.
	UpsertUser(ctx context.Context, u *model.UserProfile) (created bool, err error)
	UpdateUser(ctx context.Context, u *model.UserProfile) error
	DeleteUser(ctx context.Context, uid string) error
}

// Store is a complete backend as the server wires it.
type Store interface {
	SavedRepository
	CollegeRepository
	UserRepository
	Ping(ctx context.Context) error
	Close() error
}
