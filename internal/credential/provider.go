// Package credential stores the signed-in session and hands its token to HTTP clients.
//
// [KeyringStore] keeps the session in the OS keyring; the SQLite alternative lives in the repositories
// package. Both satisfy [models.SessionStore]. A [Provider] sits in front of either and implements
// [oauth2.TokenSource], so the API client reads the bearer token from the store instead of global state.
package credential

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*Provider)(nil)

// Provider caches the session loaded from a [models.SessionStore].
type Provider struct {
	mu      sync.Mutex
	store   models.SessionStore
	session *models.Session
	logger  *log.Logger
}

// NewProvider wraps store. A nil logger discards output.
func NewProvider(store models.SessionStore, logger *log.Logger) *Provider {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Provider{store: store, logger: logger}
}

// Session returns the current session, loading it from the store on first use.
// A missing session is reported as [shared.ErrNotAuthenticated].
func (p *Provider) Session() (*models.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionLocked()
}

func (p *Provider) sessionLocked() (*models.Session, error) {
	if p.session != nil {
		return p.session, nil
	}

	s, err := p.store.Load()
	if errors.Is(err, shared.ErrSessionNotFound) {
		return nil, fmt.Errorf("%w: run `filmx auth login`", shared.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, err
	}
	p.session = s
	return s, nil
}

// Token implements [oauth2.TokenSource]. Sessions carry no expiry; the backend rejects stale tokens with 401.
func (p *Provider) Token() (*oauth2.Token, error) {
	s, err := p.Session()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: s.Token, TokenType: "Bearer"}, nil
}

// Login persists s and makes it current.
func (p *Provider) Login(s *models.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Save(s); err != nil {
		return err
	}
	p.session = s
	p.logger.Info("session stored", "profile", s.Profile, "user", s.User.Username)
	return nil
}

// Logout clears the stored session.
func (p *Provider) Logout() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session = nil
	return p.store.Clear()
}

// Invalidate drops the session after the backend rejected its token. Errors are logged, not returned,
// so it can be used directly as an unauthorized hook.
func (p *Provider) Invalidate() {
	if err := p.Logout(); err != nil {
		p.logger.Error("failed to clear rejected session", "error", err)
		return
	}
	p.logger.Warn("session expired or revoked, signed out")
}

// Authenticated reports whether a session is available.
func (p *Provider) Authenticated() bool {
	_, err := p.Session()
	return err == nil
}
