// Package guard gates protected content on the session state and the subject's role.
//
// A Guard is a three state machine. While the session is settling nothing is
// decided and no redirect is issued. Once settled the guard is either Granted,
// or Denied with a redirect to the login or access denied destination.
// The guard re-evaluates on every session change until it is closed.
package guard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Default redirect destinations.
const (
	DefaultLoginPath     = "/login"
	DefaultForbiddenPath = "/403"
	DefaultPlaceholder   = "Loading..."
)

var (
	// ErrSettling is returned by Render while the session is not yet known.
	ErrSettling = errors.New("session is settling")

	// ErrUnauthenticated is returned by Render when there is no session.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrForbidden is returned by Render when the role is not permitted.
	ErrForbidden = errors.New("access denied")
)

// State is the guard state.
type State int

const (
	StateSettling State = iota
	StateDenied
	StateGranted
)

func (s State) String() string {
	switch s {
	case StateSettling:
		return "SETTLING"
	case StateDenied:
		return "DENIED"
	case StateGranted:
		return "GRANTED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Decision is the outcome of evaluating a session.
type Decision struct {
	State    State
	Redirect string // set only when State is StateDenied
}

// SessionSource provides the session and change notifications.
type SessionSource interface {
	Session() models.Session
	Subscribe(fn func(models.Session)) func()
}

// Navigator performs a redirect in the hosting environment.
type Navigator interface {
	Navigate(dest string)
}

// NavigatorFunc adapts a function to a Navigator.
type NavigatorFunc func(dest string)

func (f NavigatorFunc) Navigate(dest string) { f(dest) }

type paths struct {
	login     string
	forbidden string
}

// Evaluate decides the guard state for a session and an allowed role set.
func Evaluate(s models.Session, allowed []models.Role, loginPath, forbiddenPath string) Decision {
	switch {
	case s.Settling:
		return Decision{State: StateSettling}
	case !s.IsAuthenticated():
		return Decision{State: StateDenied, Redirect: loginPath}
	case !auth.RoleAllowed(s.Identity.Role, allowed):
		return Decision{State: StateDenied, Redirect: forbiddenPath}
	default:
		return Decision{State: StateGranted}
	}
}

// Guard protects content behind a session and role check.
type Guard struct {
	src         SessionSource
	nav         Navigator
	paths       paths
	placeholder string

	mu          sync.Mutex
	allowed     []models.Role
	decision    Decision
	closed      bool
	unsubscribe func()
}

// Option configures a Guard.
type Option func(*Guard)

// WithAllowedRoles restricts access to the given roles. No roles means any authenticated identity.
func WithAllowedRoles(roles ...models.Role) Option {
	return func(g *Guard) {
		g.allowed = slices.Clone(roles)
	}
}

// WithLoginPath sets the redirect destination for unauthenticated sessions.
func WithLoginPath(path string) Option {
	return func(g *Guard) {
		g.paths.login = path
	}
}

// WithForbiddenPath sets the redirect destination for disallowed roles.
func WithForbiddenPath(path string) Option {
	return func(g *Guard) {
		g.paths.forbidden = path
	}
}

// WithPlaceholder sets what Render writes while settling.
func WithPlaceholder(placeholder string) Option {
	return func(g *Guard) {
		g.placeholder = placeholder
	}
}

// New creates a guard subscribed to src. It evaluates immediately.
func New(src SessionSource, nav Navigator, opts ...Option) *Guard {
	g := &Guard{
		src:         src,
		nav:         nav,
		paths:       paths{login: DefaultLoginPath, forbidden: DefaultForbiddenPath},
		placeholder: DefaultPlaceholder,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.unsubscribe = src.Subscribe(func(models.Session) {
		g.evaluate()
	})
	g.evaluate()

	return g
}

// Decision returns the current decision.
func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// State returns the current state.
func (g *Guard) State() State {
	return g.Decision().State
}

// SetAllowedRoles replaces the allowed role set and re-evaluates.
func (g *Guard) SetAllowedRoles(roles ...models.Role) {
	g.mu.Lock()
	g.allowed = slices.Clone(roles)
	g.mu.Unlock()

	g.evaluate()
}

// Close stops re-evaluation. Notifications arriving after Close are ignored.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	g.unsubscribe()
}

// Render writes content when access is granted. While settling it writes the
// placeholder and returns ErrSettling; when denied it writes nothing.
func (g *Guard) Render(w io.Writer, content func(io.Writer) error) error {
	d := g.Decision()

	switch d.State {
	case StateGranted:
		return content(w)
	case StateSettling:
		if g.placeholder != "" {
			if _, err := fmt.Fprintln(w, g.placeholder); err != nil {
				return err
			}
		}
		return ErrSettling
	default:
		if d.Redirect == g.paths.forbidden {
			return ErrForbidden
		}
		return ErrUnauthenticated
	}
}

// evaluate recomputes the decision from the latest session and redirects on
// entry into a denied state. Repeated denials to the same destination do not
// redirect again.
func (g *Guard) evaluate() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}

	prev := g.decision
	next := Evaluate(g.src.Session(), g.allowed, g.paths.login, g.paths.forbidden)
	g.decision = next
	g.mu.Unlock()

	if next == prev {
		return
	}

	telemetry.GetMetrics().GuardDecisionsTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("state", next.State.String())))

	log.Debug().
		Stringer("from", prev.State).
		Stringer("to", next.State).
		Str("redirect", next.Redirect).
		Msg("guard state changed")

	if next.State == StateDenied {
		g.nav.Navigate(next.Redirect)
	}
}
