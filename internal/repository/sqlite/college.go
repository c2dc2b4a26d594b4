package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/college-tracker/internal/apperror"
	"github.com/sakif/college-tracker/internal/catalog"
	"github.com/sakif/college-tracker/internal/model"
	"github.com/sakif/college-tracker/internal/repository"
)

var _ repository.CollegeRepository = (*DB)(nil)

const collegeColumns = `id, instnm, city, stabbr, zip, insturl, control,
	adm_rate, grad_rate, sat_avg, tuition, tuition_in, tuition_out`

// collegeWhere translates a catalog.Filter into SQL.
//
// WHY casefold() INSTEAD OF LOWER()?
// SQLite's built-in lower() and LIKE only fold ASCII letters, so "é" and "É"
// would never match each other. casefold() runs catalog.Fold, the same
// golang.org/x/text folding that catalog.Match uses, so SQL and the Go
// predicate agree on every row.
//
// PARAMETERS, NOT STRING BUILDING:
// Only fixed SQL fragments are concatenated here. Every user value travels as
// a ? placeholder in args, and LikeContains/LikePrefix escape % and _ so a
// literal "100%" in a query is not a wildcard.
// casefold() is the
// function registered in sqlite.go, so SQL and catalog.Filter.Match agree.
func collegeWhere(f catalog.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Query != "" {
		p := catalog.LikeContains(f.Query)
		clauses = append(clauses, `(casefold(instnm) LIKE ? ESCAPE '\'
			OR casefold(city) LIKE ? ESCAPE '\'
			OR casefold(stabbr) LIKE ? ESCAPE '\')`)
		args = append(args, p, p, p)
	}
	if f.Letter != "" {
		clauses = append(clauses, `casefold(instnm) LIKE ? ESCAPE '\'`)
		args = append(args, catalog.LikePrefix(f.Letter))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// SearchColleges returns one page of matches plus the total match count.
//
// TWO QUERIES, ONE WHERE:
// COUNT(*) and the page share the exact clause from collegeWhere, so Total
// always describes the same set the page was cut from. ORDER BY instnm, id
// gives ties a stable order and keeps paging deterministic.
func (db *DB) SearchColleges(ctx context.Context, f catalog.Filter) ([]model.College, int, error) {
	where, args := collegeWhere(f)

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM colleges`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting colleges: %w", err)
	}

	// LIMIT -1 means no limit in SQLite.
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+collegeColumns+` FROM colleges`+where+` ORDER BY instnm, id LIMIT ?`,
		append(args, limit)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: searching colleges: %w", err)
	}
	defer rows.Close()

	colleges := make([]model.College, 0)
	for rows.Next() {
		c, err := scanCollege(rows)
		if err != nil {
			return nil, 0, err
		}
		colleges = append(colleges, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating colleges: %w", err)
	}
	return colleges, total, nil
}

func (db *DB) GetCollege(ctx context.Context, id string) (*model.College, error) {
	c, err := scanCollege(db.conn.QueryRowContext(ctx,
		`SELECT `+collegeColumns+` FROM colleges WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("college", id)
		}
		return nil, err
	}
	return c, nil
}

func (db *DB) CreateCollege(ctx context.Context, c *model.College) error {
	if c.ID == "" {
		c.ID = xid.New().String()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO colleges (`+collegeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		collegeArgs(c)...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("college", c.ID)
		}
		return fmt.Errorf("sqlite: inserting college: %w", err)
	}
	return nil
}

func (db *DB) UpdateCollege(ctx context.Context, c *model.College) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE colleges
		 SET instnm = ?, city = ?, stabbr = ?, zip = ?, insturl = ?, control = ?,
		     adm_rate = ?, grad_rate = ?, sat_avg = ?, tuition = ?, tuition_in = ?, tuition_out = ?
		 WHERE id = ?`,
		append(collegeArgs(c)[1:], c.ID)...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating college %s: %w", c.ID, err)
	}
	return checkAffected(res, apperror.NotFound("college", c.ID))
}

func (db *DB) DeleteCollege(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM colleges WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting college %s: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("college", id))
}

func (db *DB) CountColleges(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM colleges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting colleges: %w", err)
	}
	return n, nil
}

// InsertColleges loads cs in a single transaction: either the whole seed
// lands or none of it does.
func (db *DB) InsertColleges(ctx context.Context, cs []model.College) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO colleges (`+collegeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: preparing seed insert: %w", err)
	}
	defer stmt.Close()

	for i := range cs {
		if cs[i].ID == "" {
			cs[i].ID = xid.New().String()
		}
		if _, err := stmt.ExecContext(ctx, collegeArgs(&cs[i])...); err != nil {
			return fmt.Errorf("sqlite: inserting college %q: %w", cs[i].InstName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing seed: %w", err)
	}
	return nil
}

// collegeArgs lists the values in collegeColumns order. Nil pointers are
// stored as NULL by database/sql.
func collegeArgs(c *model.College) []any {
	return []any{
		c.ID,
		c.InstName,
		c.City,
		c.State,
		c.Zip,
		c.URL,
		c.Control,
		c.AdmRate,
		c.GradRate,
		c.SATAvg,
		c.Tuition,
		c.TuitionIn,
		c.TuitionOut,
	}
}

func scanCollege(s scanner) (*model.College, error) {
	var c model.College
	// Scanning into **T leaves the pointer nil for NULL columns.
	err := s.Scan(
		&c.ID,
		&c.InstName,
		&c.City,
		&c.State,
		&c.Zip,
		&c.URL,
		&c.Control,
		&c.AdmRate,
		&c.GradRate,
		&c.SATAvg,
		&c.Tuition,
		&c.TuitionIn,
		&c.TuitionOut,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scanning college: %w", err)
	}
	return &c, nil
}
