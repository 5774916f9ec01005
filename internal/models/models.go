// package models defines the data model for the film collection client
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validator is implemented by every model that must be checked before it is sent to the backend or persisted.
type Validator interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// ValidationError reports a field that failed local validation, before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err wraps a [ValidationError].
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Film is a single entry in the user's collection, shaped as the backend serialises it.
type Film struct {
	ID        int64  `json:"id,omitempty"`
	Title     string `json:"title"`
	Year      int    `json:"year,omitempty"`
	Director  string `json:"director,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Genre     string `json:"genre,omitempty"`
	Seen      bool   `json:"seen"`
	Poster    string `json:"poster,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

var _ Validator = (*Film)(nil)

// Validate trims the title in place and requires it to be non-empty.
func (f *Film) Validate() error {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if f.Year < 0 {
		return &ValidationError{Field: "year", Reason: "must not be negative"}
	}
	return nil
}

// Label renders "Title (Year)", omitting an unknown year.
func (f Film) Label() string {
	if f.Year > 0 {
		return fmt.Sprintf("%s (%d)", f.Title, f.Year)
	}
	return f.Title
}

// FilmPage is the backend page envelope for film listings.
type FilmPage struct {
	Content       []Film `json:"content"`
	TotalPages    int    `json:"totalPages"`
	TotalElements int    `json:"totalElements"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
}

// User is the identity returned by sign-in.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session pairs a bearer token with the signed-in user.
type Session struct {
	Profile   string    `json:"profile"`
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var _ Validator = (*Session)(nil)

// NewSession creates a session for profile, stamping both timestamps with now.
func NewSession(profile, token string, user User) *Session {
	now := time.Now()
	return &Session{Profile: profile, Token: token, User: user, CreatedAt: now, UpdatedAt: now}
}

// Validate requires a profile and a token.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.Profile) == "" {
		return &ValidationError{Field: "profile", Reason: "required"}
	}
	if strings.TrimSpace(s.Token) == "" {
		return &ValidationError{Field: "token", Reason: "required"}
	}
	return nil
}

// Credentials are what the user types to sign in or sign up.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

var _ Validator = (*Credentials)(nil)

// Validate requires a username and password. Email is checked only when present.
func (c *Credentials) Validate() error {
	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" {
		return &ValidationError{Field: "username", Reason: "required"}
	}
	if c.Password == "" {
		return &ValidationError{Field: "password", Reason: "required"}
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return &ValidationError{Field: "email", Reason: "not an address"}
	}
	return nil
}

// Lookup records one external film database query.
type Lookup struct {
	ID         string    `json:"id"`
	Profile    string    `json:"profile"`
	Title      string    `json:"title"`
	Year       int       `json:"year,omitempty"`
	Found      bool      `json:"found"`
	LookedUpAt time.Time `json:"looked_up_at"`
}

// SessionStore persists the signed-in session of one profile between runs.
type SessionStore interface {
	Load() (*Session, error) // Load returns shared.ErrSessionNotFound when nothing is stored
	Save(s *Session) error
	Clear() error
}

// CollectionExport is a snapshot of the collection, or of one search over it, ready to be written out.
type CollectionExport struct {
	Search     string    `json:"search,omitempty"`
	ExportedAt time.Time `json:"exported_at"`
	Films      []Film    `json:"films"`
}

// SeenCount returns how many exported films are marked seen.
func (e *CollectionExport) SeenCount() int {
	n := 0
	for _, f := range e.Films {
		if f.Seen {
			n++
		}
	}
	return n
}
