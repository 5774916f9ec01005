package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

const DefaultLookupLimit = 20

// LookupRepository keeps the history of external film database lookups per profile.
type LookupRepository struct {
	db *sql.DB
}

// NewLookupRepository creates a new [LookupRepository] with the given database connection
func NewLookupRepository(db *sql.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// Record stores a lookup, assigning its ID and timestamp when unset.
func (r *LookupRepository) Record(l *models.Lookup) error {
	l.Title = strings.TrimSpace(l.Title)
	if l.Title == "" {
		return fmt.Errorf("validation failed: %w", &models.ValidationError{Field: "title", Reason: "required"})
	}
	if l.ID == "" {
		l.ID = shared.GenerateID()
	}
	if l.LookedUpAt.IsZero() {
		l.LookedUpAt = time.Now()
	}

	var year sql.NullInt64
	if l.Year > 0 {
		year = sql.NullInt64{Int64: int64(l.Year), Valid: true}
	}

	query := `
		INSERT INTO lookups (id, profile, title, year, found, looked_up_at) VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, l.ID, l.Profile, l.Title, year, l.Found, l.LookedUpAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert lookup: %w", err)
	}

	return nil
}

// Recent returns up to limit lookups for profile, newest first. A limit of 0 or less uses [DefaultLookupLimit].
func (r *LookupRepository) Recent(profile string, limit int) ([]models.Lookup, error) {
	if limit <= 0 {
		limit = DefaultLookupLimit
	}

	query := `
		SELECT id, profile, title, year, found, looked_up_at
		FROM lookups
		WHERE profile = ?
		ORDER BY looked_up_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, profile, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups: %w", err)
	}
	defer rows.Close()

	var lookups []models.Lookup
	for rows.Next() {
		var (
			l    models.Lookup
			year sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.Profile, &l.Title, &year, &l.Found, &l.LookedUpAt); err != nil {
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}
		if year.Valid {
			l.Year = int(year.Int64)
		}
		lookups = append(lookups, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lookups, nil
}

// Clear deletes the history of profile and returns how many rows were removed.
func (r *LookupRepository) Clear(profile string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM lookups WHERE profile = ?`, profile)
	if err != nil {
		return 0, fmt.Errorf("failed to clear lookups: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}
