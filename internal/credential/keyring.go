package credential

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

const (
	serviceName = "filmx"
	keyPrefix   = "session:"
)

var _ models.SessionStore = (*KeyringStore)(nil)

// OpenKeyring returns the OS keyring, falling back to an encrypted file under ~/.config/filmx.
func OpenKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/filmx/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("filmx-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// KeyringStore keeps the session of one profile as a JSON item in a keyring.
type KeyringStore struct {
	ring    keyring.Keyring
	profile string
}

// NewKeyringStore binds ring to profile.
func NewKeyringStore(ring keyring.Keyring, profile string) *KeyringStore {
	return &KeyringStore{ring: ring, profile: profile}
}

func (k *KeyringStore) key() string { return keyPrefix + k.profile }

// Load returns the stored session or [shared.ErrSessionNotFound].
func (k *KeyringStore) Load() (*models.Session, error) {
	item, err := k.ring.Get(k.key())
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: profile %s", shared.ErrSessionNotFound, k.profile)
	}
	if err != nil {
		return nil, fmt.Errorf("getting credential %q: %w", k.key(), err)
	}

	var s models.Session
	if err := json.Unmarshal(item.Data, &s); err != nil {
		return nil, fmt.Errorf("decoding credential %q: %w", k.key(), err)
	}
	return &s, nil
}

// Save replaces the stored session.
func (k *KeyringStore) Save(s *models.Session) error {
	s.Profile = k.profile
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	err = k.ring.Set(keyring.Item{
		Key:         k.key(),
		Data:        data,
		Label:       "filmx session (" + k.profile + ")",
		Description: "bearer token for the film collection API",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", k.key(), err)
	}
	return nil
}

// Clear removes the stored session. A missing item is not an error.
func (k *KeyringStore) Clear() error {
	err := k.ring.Remove(k.key())
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", k.key(), err)
	}
	return nil
}
