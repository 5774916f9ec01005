package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

var _ models.SessionStore = (*SessionRepository)(nil)

// SessionRepository implements [models.SessionStore] on the sessions table for a single profile.
type SessionRepository struct {
	db      *sql.DB
	profile string
}

// NewSessionRepository creates a new [SessionRepository] bound to profile
func NewSessionRepository(db *sql.DB, profile string) *SessionRepository {
	return &SessionRepository{db: db, profile: profile}
}

// Profile returns the profile this repository reads and writes.
func (r *SessionRepository) Profile() string { return r.profile }

// Load returns the stored session or [shared.ErrSessionNotFound]
func (r *SessionRepository) Load() (*models.Session, error) {
	query := `
		SELECT profile, token, user_id, username, email, created_at, updated_at
		FROM sessions
		WHERE profile = ?
	`

	var s models.Session
	err := r.db.QueryRow(query, r.profile).Scan(
		&s.Profile, &s.Token, &s.User.ID, &s.User.Username, &s.User.Email, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: profile %s", shared.ErrSessionNotFound, r.profile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &s, nil
}

// Save upserts the session under this repository's profile. The original creation time is kept.
func (r *SessionRepository) Save(s *models.Session) error {
	s.Profile = r.profile
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	query := `
		INSERT INTO sessions (profile, token, user_id, username, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			username = excluded.username,
			email = excluded.email,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, s.Profile, s.Token, s.User.ID, s.User.Username, s.User.Email, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Clear removes the stored session. Clearing an empty profile is not an error.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM sessions WHERE profile = ?`, r.profile); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Profiles lists every profile with a stored session, sorted by name.
func (r *SessionRepository) Profiles() ([]string, error) {
	rows, err := r.db.Query(`SELECT profile FROM sessions ORDER BY profile ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return profiles, nil
}
