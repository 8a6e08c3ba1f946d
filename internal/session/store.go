package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/models"
)

// Storage keys for the persisted session pair.
const (
	CredentialKey = "token"
	IdentityKey   = "user"
)

// errCorruptIdentity marks a stored identity that could not be trusted.
// It never leaves this package.
var errCorruptIdentity = errors.New("corrupt stored identity")

// Store persists the current credential and identity.
type Store struct {
	backend Backend

	mu     sync.Mutex
	loaded bool
	cur    models.PersistedSession
}

// NewStore creates a session store over the given backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Load reads the persisted session. It never fails: a missing value yields an empty
// session, and a corrupt identity clears both values and yields an empty session.
func (s *Store) Load(ctx context.Context) models.PersistedSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

func (s *Store) load() models.PersistedSession {
	s.loaded = true
	s.cur = models.PersistedSession{}

	token, hasToken, err := s.backend.Get(CredentialKey)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read stored credential, treating as logged out")
		return s.cur
	}

	raw, hasIdentity, err := s.backend.Get(IdentityKey)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read stored identity, treating as logged out")
		return s.cur
	}

	if !hasToken && !hasIdentity {
		return s.cur
	}

	if !hasToken || !hasIdentity || token == "" {
		log.Warn().
			Bool("hasCredential", hasToken).
			Bool("hasIdentity", hasIdentity).
			Msg("partial session found, clearing")
		s.clear()
		return s.cur
	}

	identity, err := decodeIdentity(raw)
	if err != nil {
		log.Warn().Err(err).Msg("failed to restore session, clearing")
		s.clear()
		return s.cur
	}

	s.cur = models.PersistedSession{Credential: token, Identity: identity}

	log.Debug().
		Int64("userID", identity.ID).
		Str("role", string(identity.Role)).
		Msg("session restored")

	return s.cur
}

// Save writes the credential and identity together.
func (s *Store) Save(ctx context.Context, credential string, identity *models.Identity) error {
	if credential == "" {
		return fmt.Errorf("credential is required")
	}
	if err := identity.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Put(map[string]string{
		CredentialKey: credential,
		IdentityKey:   string(data),
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	copied := *identity
	s.loaded = true
	s.cur = models.PersistedSession{Credential: credential, Identity: &copied}

	log.Debug().Int64("userID", identity.ID).Msg("session saved")

	return nil
}

// Clear removes both values. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.clear()
	return err
}

// Invalidate clears the store and reports whether a session was present.
// Concurrent callers observe exactly one true result per stored session.
func (s *Store) Invalidate(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clear()
}

// Credential returns the current credential, loading the store on first use.
func (s *Store) Credential(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.load()
	}

	return s.cur.Credential, s.cur.Credential != ""
}

func (s *Store) clear() (bool, error) {
	present := !s.cur.Empty()

	for _, key := range []string{CredentialKey, IdentityKey} {
		_, ok, err := s.backend.Get(key)
		if err == nil && ok {
			present = true
		}
	}

	s.loaded = true
	s.cur = models.PersistedSession{}

	if err := s.backend.Delete(CredentialKey, IdentityKey); err != nil {
		return present, fmt.Errorf("failed to clear session: %w", err)
	}

	if present {
		log.Debug().Msg("session cleared")
	}

	return present, nil
}

// decodeIdentity parses and validates a stored identity. Malformed JSON and a
// wrong shape are both treated as corruption.
func decodeIdentity(raw string) (*models.Identity, error) {
	var identity models.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptIdentity, err)
	}
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptIdentity, err)
	}
	return &identity, nil
}
