package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/model"
	"github.com/sakif/college-tracker/internal/repository"
)

// compile-time check that *DB implements repository.SavedRepository
var _ repository.SavedRepository = (*DB)(nil)

const savedColumns = `id, owner_id, name, deadline, location, website, notes,
	application_status, essay_status, recommendation_status, extras,
	created_at, updated_at`

// CreateSaved inserts rec with a fresh id. The UNIQUE(owner_id, name)
// constraint turns a concurrent duplicate into apperror.AlreadySaved.
func (db *DB) CreateSaved(ctx context.Context, rec *model.SavedRecord) error {
	extras, err := encodeExtras(rec.Extras)
	if err != nil {
		return err
	}

	rec.ID = xid.New().String()
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO saved_records (`+savedColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.OwnerID,
		rec.Name,
		rec.Deadline,
		rec.Location,
		rec.Website,
		rec.Notes,
		rec.ApplicationStatus,
		rec.EssayStatus,
		rec.RecommendationStatus,
		extras,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadySaved(rec.Name)
		}
		return fmt.Errorf("sqlite: inserting saved record: %w", err)
	}
	return nil
}

// ListSaved returns the owner's records in insertion order.
func (db *DB) ListSaved(ctx context.Context, ownerID string) ([]model.SavedRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+savedColumns+` FROM saved_records WHERE owner_id = ? ORDER BY rowid`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing saved records: %w", err)
	}
	defer rows.Close()

	records := make([]model.SavedRecord, 0)
	for rows.Next() {
		rec, err := scanSaved(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating saved records: %w", err)
	}
	return records, nil
}

// GetSaved returns NotFound both for a missing id and for an id owned by
// someone else.
func (db *DB) GetSaved(ctx context.Context, ownerID, id string) (*model.SavedRecord, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+savedColumns+` FROM saved_records WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	rec, err := scanSaved(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("saved record", id)
		}
		return nil, err
	}
	return rec, nil
}

// UpdateSaved writes every mutable column. owner_id and created_at are part
// of the WHERE clause or left alone, never SET.
func (db *DB) UpdateSaved(ctx context.Context, rec *model.SavedRecord) error {
	extras, err := encodeExtras(rec.Extras)
	if err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE saved_records
		 SET name = ?, deadline = ?, location = ?, website = ?, notes = ?,
		     application_status = ?, essay_status = ?, recommendation_status = ?,
		     extras = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		rec.Name,
		rec.Deadline,
		rec.Location,
		rec.Website,
		rec.Notes,
		rec.ApplicationStatus,
		rec.EssayStatus,
		rec.RecommendationStatus,
		extras,
		rec.UpdatedAt,
		rec.ID,
		rec.OwnerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadySaved(rec.Name)
		}
		return fmt.Errorf("sqlite: updating saved record %s: %w", rec.ID, err)
	}
	return checkAffected(res, apperror.NotFound("saved record", rec.ID))
}

func (db *DB) DeleteSaved(ctx context.Context, ownerID, id string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM saved_records WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting saved record %s: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("saved record", id))
}

// SavedNameExists compares with SQLite's default BINARY collation, so the
// match is exact and case-sensitive.
func (db *DB) SavedNameExists(ctx context.Context, ownerID, name string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM saved_records WHERE owner_id = ? AND name = ?)`,
		ownerID, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking saved name: %w", err)
	}
	return exists, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSaved(s scanner) (*model.SavedRecord, error) {
	var (
		rec    model.SavedRecord
		extras string
	)
	err := s.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Name,
		&rec.Deadline,
		&rec.Location,
		&rec.Website,
		&rec.Notes,
		&rec.ApplicationStatus,
		&rec.EssayStatus,
		&rec.RecommendationStatus,
		&extras,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scanning saved record: %w", err)
	}

	rec.Extras = []model.ExtraField{}
	if extras != "" {
		if err := json.Unmarshal([]byte(extras), &rec.Extras); err != nil {
			return nil, fmt.Errorf("sqlite: decoding extras of %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func encodeExtras(extras []model.ExtraField) (string, error) {
	if extras == nil {
		extras = []model.ExtraField{}
	}
	b, err := json.Marshal(extras)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding extras: %w", err)
	}
	return string(b), nil
}
