package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/omnibar/internal/apperr"
	"github.com/starford/omnibar/internal/models"
)

const defaultLimit = 20

// Store is the journal surface consumers depend on.
type Store interface {
	Record(ctx context.Context, v models.Visit) (models.Visit, error)
	Get(ctx context.Context, id string) (*models.Visit, error)
	Recent(ctx context.Context, limit int) ([]models.Visit, error)
	Search(ctx context.Context, query string, limit int) ([]models.Visit, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

var _ Store = (*DB)(nil)

// Record inserts a visit. Missing ID and timestamp are filled in.
func (db *DB) Record(ctx context.Context, v models.Visit) (models.Visit, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now()
	}
	v.VisitedAt = v.VisitedAt.UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO visits (id, url, title, visited_at) VALUES (?, ?, ?, ?)`,
		v.ID, v.URL, v.Title, v.VisitedAt)
	if err != nil {
		return models.Visit{}, fmt.Errorf("journal: record: %w", err)
	}
	return v, nil
}

// Get returns one visit by ID.
func (db *DB) Get(ctx context.Context, id string) (*models.Visit, error) {
	var v models.Visit
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, url, title, visited_at FROM visits WHERE id = ?`, id).
		Scan(&v.ID, &v.URL, &v.Title, &v.VisitedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("journal: get: %w", err)
	}
	return &v, nil
}

// Recent returns the latest visits, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]models.Visit, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, url, title, visited_at
		FROM visits
		ORDER BY visited_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	return scanVisits(rows)
}

// Search matches query against URL and title with LIKE, newest first.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]models.Visit, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, url, title, visited_at
		FROM visits
		WHERE url LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\'
		ORDER BY visited_at DESC, rowid DESC
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: search: %w", err)
	}
	return scanVisits(rows)
}

// Count returns the number of recorded visits.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM visits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("journal: count: %w", err)
	}
	return n, nil
}

func scanVisits(rows *sql.Rows) ([]models.Visit, error) {
	defer rows.Close()
	out := []models.Visit{}
	for rows.Next() {
		var v models.Visit
		if err := rows.Scan(&v.ID, &v.URL, &v.Title, &v.VisitedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
