// THREE KINDS OF CATALOG READ:
//
//	Browse   GET /api/colleges              no filter → first 200 by name
//	Search   GET /api/colleges/search       no filter → empty list
//	Suggest  GET /api/colleges/suggestions  no query  → empty list
//
// All three build a catalog.Filter and hand it to the same repository
// method. They differ only in their default limit and in what "no filter"
// means, so those two rules live here and nowhere else.
//
// CATALOG WRITES AND THE CACHE:
// Reads of the catalog are served through the response cache (see
// middleware.Cache). Every write in this file ends with s.invalidate(), which
// bumps the cache generation so the next read misses. The write itself has
// already committed at that point; if Redis is down the warning is logged and
// the stale entries simply age out on their TTL.

package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/catalog"
	"github.com/sakif/college-tracker/internal/model"
	"github.com/sakif/college-tracker/internal/repository"
)

// Invalidator drops cached catalog responses after a catalog write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CollegePage is one page of catalog results. Total counts every match,
// not just the returned ones.
type CollegePage struct {
	Colleges []model.College
	Total    int
}

// CollegeService serves the shared catalog.
type CollegeService struct {
	repo   repository.CollegeRepository
	cache  Invalidator
	logger *slog.Logger

	seedMu sync.Mutex
}

// NewCollegeService accepts a nil cache.
func NewCollegeService(repo repository.CollegeRepository, cache Invalidator, logger *slog.Logger) *CollegeService {
	return &CollegeService{repo: repo, cache: cache, logger: logger}
}

// Browse lists the catalog, optionally filtered. With no filter it returns
// the first entries by name, up to the browse cap.
func (s *CollegeService) Browse(ctx context.Context, query, letter string, limit int) (*CollegePage, error) {
	return s.search(ctx, catalog.NewFilter(query, letter, limit, catalog.DefaultListLimit))
}

// Search is the free-text endpoint. Unlike Browse it returns nothing at all
// when neither a query nor a letter is given.
func (s *CollegeService) Search(ctx context.Context, query, letter string, limit int) (*CollegePage, error) {
	f := catalog.NewFilter(query, letter, limit, catalog.DefaultSearchLimit)
	if f.Unfiltered() {
		return &CollegePage{Colleges: []model.College{}}, nil
	}
	return s.search(ctx, f)
}

// Suggest returns a handful of autocomplete entries for query.
// An empty query suggests nothing.
func (s *CollegeService) Suggest(ctx context.Context, query string, limit int) ([]catalog.Suggestion, error) {
	f := catalog.NewFilter(query, "", limit, catalog.DefaultSuggestLimit)
	if f.Unfiltered() {
		return []catalog.Suggestion{}, nil
	}
	page, err := s.search(ctx, f)
	if err != nil {
		return nil, err
	}
	return catalog.Suggest(page.Colleges), nil
}

func (s *CollegeService) search(ctx context.Context, f catalog.Filter) (*CollegePage, error) {
	colleges, total, err := s.repo.SearchColleges(ctx, f)
	if err != nil {
		return nil, unexpected(s.logger, "searching colleges", err,
			slog.String("q", f.Query), slog.String("letter", f.Letter))
	}
	return &CollegePage{Colleges: colleges, Total: total}, nil
}

func (s *CollegeService) Get(ctx context.Context, id string) (*model.College, error) {
	c, err := s.repo.GetCollege(ctx, id)
	if err != nil {
		return nil, passThrough(s.logger, "getting college", err, "id", id)
	}
	return c, nil
}

// Create adds a catalog entry. Any client-supplied id is ignored.
func (s *CollegeService) Create(ctx context.Context, c *model.College) (*model.College, error) {
	if err := validateCollege(c); err != nil {
		return nil, err
	}
	c.ID = ""
	if err := s.repo.CreateCollege(ctx, c); err != nil {
		return nil, passThrough(s.logger, "creating college", err, "name", c.InstName)
	}
	s.invalidate(ctx)
	s.logger.Info("college created", slog.String("id", c.ID), slog.String("name", c.InstName))
	return c, nil
}

// Update replaces the catalog entry id with c.
func (s *CollegeService) Update(ctx context.Context, id string, c *model.College) (*model.College, error) {
	if err := validateCollege(c); err != nil {
		return nil, err
	}
	c.ID = id
	if err := s.repo.UpdateCollege(ctx, c); err != nil {
		return nil, passThrough(s.logger, "updating college", err, "id", id)
	}
	s.invalidate(ctx)
	return c, nil
}

func (s *CollegeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteCollege(ctx, id); err != nil {
		return passThrough(s.logger, "deleting college", err, "id", id)
	}
	s.invalidate(ctx)
	s.logger.Info("college deleted", slog.String("id", id))
	return nil
}

// Seed loads the catalog from r, but only when the catalog is empty.
//
// SEEDING:
// The server calls Seed on every boot with either the configured seed file or
// the embedded CSV. The first boot against an empty database imports it in
// one batch; every later boot sees a non-zero count and returns 0 without
// reading r. Admin edits survive restarts unless the catalog is emptied.
// The mutex keeps two seeders in the same
// process from both seeing zero; separate processes racing on first boot
// is accepted for a one-time bootstrap.
func (s *CollegeService) Seed(ctx context.Context, r io.Reader) (int, error) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	n, err := s.repo.CountColleges(ctx)
	if err != nil {
		return 0, unexpected(s.logger, "counting colleges", err)
	}
	if n > 0 {
		s.logger.Debug("catalog already seeded", slog.Int("count", n))
		return 0, nil
	}

	colleges, err := catalog.ParseSeed(r)
	if err != nil {
		return 0, err
	}
	if err := s.repo.InsertColleges(ctx, colleges); err != nil {
		return 0, unexpected(s.logger, "seeding colleges", err)
	}
	s.invalidate(ctx)

	s.logger.Info("catalog seeded", slog.Int("count", len(colleges)))
	return len(colleges), nil
}

// invalidate never fails the write that triggered it; stale entries expire
// on their TTL anyway.
func (s *CollegeService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog cache invalidation failed", slog.String("error", err.Error()))
	}
}

func validateCollege(c *model.College) error {
	if c == nil {
		return apperror.ValidationFailed("INSTNM", "college body is required")
	}
	c.InstName = strings.TrimSpace(c.InstName)
	if c.InstName == "" {
		return apperror.ValidationFailed("INSTNM", "INSTNM is required")
	}
	return nil
}
