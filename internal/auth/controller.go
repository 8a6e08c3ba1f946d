package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/client"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/session"
	"github.com/wolfeidau/stockroom/internal/telemetry"
)

// ErrClosed is returned when the controller has been torn down.
var ErrClosed = errors.New("auth controller closed")

// LoginAPI exchanges credentials for a session.
type LoginAPI interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
}

// InvalidationSource notifies when the server has rejected the credential.
type InvalidationSource interface {
	OnInvalidated(fn func(client.Invalidation)) func()
}

// Controller owns the live session. It is the only writer of the in-memory
// session, with the exception of invalidations raised by the API client.
type Controller struct {
	store *session.Store
	api   LoginAPI

	mu         sync.RWMutex
	credential string
	identity   *models.Identity
	restored   bool
	pending    int // in-flight logins and restores
	closed     bool
	listeners  map[uint64]func(models.Session)
	nextID     uint64

	unsubscribe func()
}

// NewController creates a controller. Call Init before making authorization decisions.
func NewController(store *session.Store, api LoginAPI) *Controller {
	return &Controller{
		store:     store,
		api:       api,
		listeners: make(map[uint64]func(models.Session)),
	}
}

// Init restores the persisted session. The session is settling until Init returns.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.restored = false
	c.pending++
	if c.unsubscribe == nil {
		if src, ok := c.api.(InvalidationSource); ok {
			c.unsubscribe = src.OnInvalidated(c.handleInvalidation)
		}
	}
	c.mu.Unlock()
	c.notify()

	persisted := c.store.Load(ctx)

	c.update(func() bool {
		c.credential = persisted.Credential
		c.identity = persisted.Identity
		c.restored = true
		c.pending--
		return true
	})

	if !persisted.Empty() {
		telemetry.GetMetrics().SessionRestoresTotal.Add(ctx, 1)
		log.Debug().Str("role", string(persisted.Identity.Role)).Msg("session restored")
	}

	return nil
}

// Teardown stops listening for invalidations and drops all subscribers.
// Results of logins still in flight are discarded.
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	clear(c.listeners)
}

// Login authenticates against the API, persists and adopts the new session.
// On failure the current session is left untouched.
func (c *Controller) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	c.update(func() bool {
		c.pending++
		return true
	})
	defer c.update(func() bool {
		c.pending--
		return true
	})

	m := telemetry.GetMetrics()

	resp, err := c.api.Login(ctx, email, password)
	if err != nil {
		m.LoginFailuresTotal.Add(ctx, 1)
		log.Debug().Err(err).Str("email", email).Msg("login failed")
		return nil, err
	}

	if c.isClosed() {
		return nil, ErrClosed
	}

	if err := c.store.Save(ctx, resp.Token, resp.User); err != nil {
		m.LoginFailuresTotal.Add(ctx, 1)
		return nil, &client.Error{Kind: client.ErrLoginFailed, Message: "login failed", Cause: err}
	}

	identity := *resp.User
	c.update(func() bool {
		c.credential = resp.Token
		c.identity = &identity
		return true
	})

	m.LoginsTotal.Add(ctx, 1)
	log.Info().Int64("userID", identity.ID).Str("role", string(identity.Role)).Msg("logged in")

	out := identity
	return &out, nil
}

// Logout clears the session. Logging out twice is a no-op.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.store.Clear(ctx)

	c.update(c.clearSession)

	if err != nil {
		return err
	}

	log.Debug().Msg("logged out")
	return nil
}

// Session returns a snapshot of the current session.
func (c *Controller) Session() models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

// IsAuthenticated returns true if both credential and identity are present.
func (c *Controller) IsAuthenticated() bool {
	return c.Session().IsAuthenticated()
}

// Identity returns a copy of the current identity, or nil.
func (c *Controller) Identity() *models.Identity {
	return c.Session().Identity
}

// Subscribe calls fn with a snapshot after every session change.
// Snapshots may be delivered concurrently; consumers that need the latest state
// should read Session.
func (c *Controller) Subscribe(fn func(models.Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// handleInvalidation drops the in-memory session after the client has already
// cleared the store.
func (c *Controller) handleInvalidation(ev client.Invalidation) {
	log.Debug().Str("path", ev.Path).Msg("session invalidated")
	c.update(c.clearSession)
}

func (c *Controller) clearSession() bool {
	if c.credential == "" && c.identity == nil {
		return false
	}
	c.credential = ""
	c.identity = nil
	return true
}

func (c *Controller) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// update applies fn under the lock and notifies subscribers if it reports a change.
func (c *Controller) update(fn func() bool) {
	c.mu.Lock()
	changed := fn()
	c.mu.Unlock()

	if changed {
		c.notify()
	}
}

func (c *Controller) notify() {
	c.mu.RLock()
	snap := c.snapshot()
	listeners := make([]func(models.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// snapshot must be called with the lock held.
func (c *Controller) snapshot() models.Session {
	s := models.Session{
		Credential: c.credential,
		Settling:   !c.restored || c.pending > 0,
	}
	if c.identity != nil {
		identity := *c.identity
		s.Identity = &identity
	}
	return s
}
