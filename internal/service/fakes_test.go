package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/catalog"
	"github.com/sakif/college-tracker/internal/model"
)

// =========================================================================
// IN-MEMORY FAKES
// =========================================================================
//
// fakeStore implements the three repository interfaces with maps, so the
// service rules are tested without a database. Like the real stores it
// copies on the way in and out, and it enforces (owner, name) uniqueness
// under its own lock. failWith makes every call return that error.

type fakeStore struct {
	mu       sync.Mutex
	nextID   int
	saved    map[string]model.SavedRecord
	colleges map[string]model.College
	users    map[string]model.UserProfile
	failWith error

	// skipExistsCheck makes SavedNameExists always say no, to simulate a
	// concurrent create that slipped past the service's pre-check.
	skipExistsCheck bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		saved:    map[string]model.SavedRecord{},
		colleges: map[string]model.College{},
		users:    map[string]model.UserProfile{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateSaved(_ context.Context, rec *model.SavedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, r := range f.saved {
		if r.OwnerID == rec.OwnerID && r.Name == rec.Name {
			return apperror.AlreadySaved(rec.Name)
		}
	}
	rec.ID = f.id("saved")
	f.saved[rec.ID] = *rec
	return nil
}

func (f *fakeStore) ListSaved(_ context.Context, ownerID string) ([]model.SavedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.SavedRecord{}
	for i := 1; i <= f.nextID; i++ {
		if r, ok := f.saved[fmt.Sprintf("saved-%d", i)]; ok && r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetSaved(_ context.Context, ownerID, id string) (*model.SavedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	r, ok := f.saved[id]
	if !ok || r.OwnerID != ownerID {
		return nil, apperror.NotFound("saved record", id)
	}
	return &r, nil
}

func (f *fakeStore) UpdateSaved(_ context.Context, rec *model.SavedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	cur, ok := f.saved[rec.ID]
	if !ok || cur.OwnerID != rec.OwnerID {
		return apperror.NotFound("saved record", rec.ID)
	}
	for id, r := range f.saved {
		if id != rec.ID && r.OwnerID == rec.OwnerID && r.Name == rec.Name {
			return apperror.AlreadySaved(rec.Name)
		}
	}
	f.saved[rec.ID] = *rec
	return nil
}

func (f *fakeStore) DeleteSaved(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	r, ok := f.saved[id]
	if !ok || r.OwnerID != ownerID {
		return apperror.NotFound("saved record", id)
	}
	delete(f.saved, id)
	return nil
}

func (f *fakeStore) SavedNameExists(_ context.Context, ownerID, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	if f.skipExistsCheck {
		return false, nil
	}
	for _, r := range f.saved {
		if r.OwnerID == ownerID && r.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SearchColleges(_ context.Context, flt catalog.Filter) ([]model.College, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	all := make([]model.College, 0, len(f.colleges))
	for _, c := range f.colleges {
		all = append(all, c)
	}
	page, total := flt.Apply(all)
	return page, total, nil
}

func (f *fakeStore) GetCollege(_ context.Context, id string) (*model.College, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.colleges[id]
	if !ok {
		return nil, apperror.NotFound("college", id)
	}
	return &c, nil
}

func (f *fakeStore) CreateCollege(_ context.Context, c *model.College) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	c.ID = f.id("college")
	f.colleges[c.ID] = *c
	return nil
}

func (f *fakeStore) UpdateCollege(_ context.Context, c *model.College) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.colleges[c.ID]; !ok {
		return apperror.NotFound("college", c.ID)
	}
	f.colleges[c.ID] = *c
	return nil
}

func (f *fakeStore) DeleteCollege(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.colleges[id]; !ok {
		return apperror.NotFound("college", id)
	}
	delete(f.colleges, id)
	return nil
}

func (f *fakeStore) CountColleges(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	return len(f.colleges), nil
}

func (f *fakeStore) InsertColleges(_ context.Context, cs []model.College) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range cs {
		c.ID = f.id("college")
		f.colleges[c.ID] = c
	}
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, uid string) (*model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[uid]
	if !ok {
		return nil, apperror.NotFound("user", uid)
	}
	return &u, nil
}

func (f *fakeStore) UpsertUser(_ context.Context, u *model.UserProfile) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	_, exists := f.users[u.UID]
	f.users[u.UID] = *u
	return !exists, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u *model.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.UID]; !ok {
		return apperror.NotFound("user", u.UID)
	}
	f.users[u.UID] = *u
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[uid]; !ok {
		return apperror.NotFound("user", uid)
	}
	delete(f.users, uid)
	return nil
}

// countingInvalidator records catalog invalidations.
type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

var errDiskOnFire = errors.New("disk on fire")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
