package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/model"
	"github.com/sakif/college-tracker/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// UpsertUser inserts the profile or refreshes email and name.
//
// INSERT ... ON CONFLICT(uid) DO UPDATE keeps the row (and created_at)
// and only overwrites the columns listed. The existence check runs in the
// same transaction so created is reported against the state the upsert saw;
// the DSN's _txlock=immediate takes the write lock at BEGIN, so two first
// syncs of the same uid serialize instead of both reading "absent".
// The stored row is read back into u so the caller gets the canonical
// timestamps.
func (db *DB) UpsertUser(ctx context.Context, u *model.UserProfile) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning user upsert: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE uid = ?)`, u.UID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("sqlite: looking up user %s: %w", u.UID, err)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (uid, email, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE
		 SET email = excluded.email, name = excluded.name, updated_at = excluded.updated_at`,
		u.UID,
		u.Email,
		u.Name,
		now,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: upserting user %s: %w", u.UID, err)
	}

	stored, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT uid, email, name, created_at, updated_at FROM users WHERE uid = ?`, u.UID,
	))
	if err != nil {
		return false, fmt.Errorf("sqlite: reading back user %s: %w", u.UID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing user upsert: %w", err)
	}

	*u = *stored
	return !exists, nil
}

// GetUser returns apperror.ErrNotFound if no profile exists for uid.
func (db *DB) GetUser(ctx context.Context, uid string) (*model.UserProfile, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT uid, email, name, created_at, updated_at FROM users WHERE uid = ?`, uid,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", uid)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", uid, err)
	}
	return u, nil
}

func (db *DB) UpdateUser(ctx context.Context, u *model.UserProfile) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, name = ?, updated_at = ? WHERE uid = ?`,
		u.Email, u.Name, u.UpdatedAt, u.UID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", u.UID, err)
	}
	return checkAffected(res, apperror.NotFound("user", u.UID))
}

func (db *DB) DeleteUser(ctx context.Context, uid string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", uid, err)
	}
	return checkAffected(res, apperror.NotFound("user", uid))
}

func scanUser(s scanner) (*model.UserProfile, error) {
	var u model.UserProfile
	if err := s.Scan(&u.UID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
