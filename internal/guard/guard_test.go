package guard

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/stockroom/internal/models"
)

// fakeSource is a settable session with subscriptions.
type fakeSource struct {
	mu        sync.Mutex
	session   models.Session
	listeners map[int]func(models.Session)
	next      int
}

func newFakeSource(s models.Session) *fakeSource {
	return &fakeSource{session: s, listeners: make(map[int]func(models.Session))}
}

func (f *fakeSource) Session() models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeSource) Subscribe(fn func(models.Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeSource) set(s models.Session) {
	f.mu.Lock()
	f.session = s
	listeners := make([]func(models.Session), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

type recordingNavigator struct {
	mu    sync.Mutex
	dests []string
}

func (r *recordingNavigator) Navigate(dest string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dests = append(r.dests, dest)
}

func (r *recordingNavigator) visited() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dests...)
}

func loggedIn(role models.Role) models.Session {
	return models.Session{
		Credential: "tok-1",
		Identity:   &models.Identity{ID: 7, Email: "a@b.com", Role: role},
	}
}

func renderContent(w io.Writer) error {
	_, err := io.WriteString(w, "protected")
	return err
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		session  models.Session
		allowed  []models.Role
		expected Decision
	}{
		{
			name:     "settling wins over authentication",
			session:  models.Session{Settling: true, Credential: "tok", Identity: &models.Identity{ID: 1, Email: "a@b.com", Role: models.RoleAdmin}},
			expected: Decision{State: StateSettling},
		},
		{
			name:     "settling without session",
			session:  models.Session{Settling: true},
			allowed:  []models.Role{models.RoleAdmin},
			expected: Decision{State: StateSettling},
		},
		{
			name:     "unauthenticated",
			session:  models.Session{},
			expected: Decision{State: StateDenied, Redirect: DefaultLoginPath},
		},
		{
			name:     "role not allowed",
			session:  loggedIn(models.RoleWorker),
			allowed:  []models.Role{models.RoleAdmin, models.RoleSuperAdmin},
			expected: Decision{State: StateDenied, Redirect: DefaultForbiddenPath},
		},
		{
			name:     "role allowed",
			session:  loggedIn(models.RoleSuperAdmin),
			allowed:  []models.Role{models.RoleAdmin, models.RoleSuperAdmin},
			expected: Decision{State: StateGranted},
		},
		{
			name:     "empty allowed set admits any role",
			session:  loggedIn(models.RoleWorker),
			expected: Decision{State: StateGranted},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.session, tt.allowed, DefaultLoginPath, DefaultForbiddenPath)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGuard_WorkerDeniedFromAdminContent(t *testing.T) {
	src := newFakeSource(loggedIn(models.RoleWorker))
	nav := &recordingNavigator{}

	g := New(src, nav, WithAllowedRoles(models.RoleAdmin, models.RoleSuperAdmin))
	defer g.Close()

	assert.Equal(t, StateDenied, g.State())
	assert.Equal(t, DefaultForbiddenPath, g.Decision().Redirect)
	assert.Equal(t, []string{DefaultForbiddenPath}, nav.visited())

	var buf bytes.Buffer
	err := g.Render(&buf, renderContent)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, buf.String())
}

func TestGuard_NeverRendersWhileSettling(t *testing.T) {
	s := loggedIn(models.RoleAdmin)
	s.Settling = true
	src := newFakeSource(s)
	nav := &recordingNavigator{}

	g := New(src, nav)
	defer g.Close()

	var buf bytes.Buffer
	err := g.Render(&buf, renderContent)
	assert.ErrorIs(t, err, ErrSettling)
	assert.Equal(t, DefaultPlaceholder+"\n", buf.String())
	assert.NotContains(t, buf.String(), "protected")
	assert.Empty(t, nav.visited(), "no redirect while settling")
}

func TestGuard_Transitions(t *testing.T) {
	src := newFakeSource(models.Session{Settling: true})
	nav := &recordingNavigator{}

	g := New(src, nav)
	defer g.Close()
	assert.Equal(t, StateSettling, g.State())

	// Restore finishes with a session
	src.set(loggedIn(models.RoleWorker))
	assert.Equal(t, StateGranted, g.State())

	var buf bytes.Buffer
	require.NoError(t, g.Render(&buf, renderContent))
	assert.Equal(t, "protected", buf.String())

	// Logged out elsewhere
	src.set(models.Session{})
	assert.Equal(t, StateDenied, g.State())
	assert.Equal(t, []string{DefaultLoginPath}, nav.visited())

	// A second notification with the same outcome does not redirect again
	src.set(models.Session{})
	assert.Equal(t, []string{DefaultLoginPath}, nav.visited())

	// Reinitialized
	src.set(models.Session{Settling: true})
	assert.Equal(t, StateSettling, g.State())

	src.set(loggedIn(models.RoleAdmin))
	assert.Equal(t, StateGranted, g.State())
}

func TestGuard_SetAllowedRoles(t *testing.T) {
	src := newFakeSource(loggedIn(models.RoleWorker))
	nav := &recordingNavigator{}

	g := New(src, nav)
	defer g.Close()
	assert.Equal(t, StateGranted, g.State())

	g.SetAllowedRoles(models.RoleAdmin)
	assert.Equal(t, StateDenied, g.State())
	assert.Equal(t, []string{DefaultForbiddenPath}, nav.visited())

	g.SetAllowedRoles()
	assert.Equal(t, StateGranted, g.State())
}

func TestGuard_CustomPaths(t *testing.T) {
	src := newFakeSource(models.Session{})
	var dest string

	g := New(src, NavigatorFunc(func(d string) { dest = d }),
		WithLoginPath("/signin"),
		WithForbiddenPath("/denied"),
		WithPlaceholder(""),
	)
	defer g.Close()

	assert.Equal(t, "/signin", dest)

	var buf bytes.Buffer
	assert.ErrorIs(t, g.Render(&buf, renderContent), ErrUnauthenticated)
	assert.Empty(t, buf.String())
}

func TestGuard_CloseIgnoresLateNotifications(t *testing.T) {
	src := newFakeSource(loggedIn(models.RoleWorker))
	nav := &recordingNavigator{}

	g := New(src, nav)
	g.Close()
	g.Close()

	src.set(models.Session{})
	assert.Equal(t, StateGranted, g.State())
	assert.Empty(t, nav.visited())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "SETTLING", StateSettling.String())
	assert.Equal(t, "DENIED", StateDenied.String())
	assert.Equal(t, "GRANTED", StateGranted.String())
	assert.Equal(t, "State(9)", State(9).String())
}
