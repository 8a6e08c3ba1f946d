package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/client"
	"github.com/wolfeidau/stockroom/internal/config"
	"github.com/wolfeidau/stockroom/internal/guard"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/session"
)

type Globals struct {
	Debug    bool
	Version  string
	Server   string
	StateDir string
	JSON     bool

	// Out and In default to stdout and stdin.
	Out io.Writer
	In  io.Reader
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Globals) in() io.Reader {
	if g.In == nil {
		return os.Stdin
	}
	return g.In
}

// App wires the session store, API client, auth controller and navigator for one command run.
type App struct {
	Store  *session.Store
	API    *client.Client
	Auth   *auth.Controller
	nav    *terminalNavigator
	out    io.Writer
	detach func()
}

// open builds the App and restores the persisted session.
func (g *Globals) open(ctx context.Context) (*App, error) {
	stateDir := g.StateDir
	if stateDir == "" {
		dir, err := config.DefaultStateDir()
		if err != nil {
			return nil, err
		}
		stateDir = dir
	}

	cfg, err := config.Load(filepath.Join(stateDir, config.FileName))
	if err != nil {
		return nil, err
	}
	if g.Server != "" {
		cfg.Server = g.Server
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sessionDir := stateDir
	if cfg.SessionDir != "" {
		sessionDir = cfg.SessionDir
	}

	backend, err := session.NewFileBackend(sessionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	store := session.NewStore(backend)
	api := client.New(cfg.ClientConfig(g.Debug), store)
	ctrl := auth.NewController(store, api)
	nav := newTerminalNavigator(os.Stderr)

	// The client only signals; the redirect happens here at the CLI boundary.
	detach := api.OnInvalidated(func(ev client.Invalidation) {
		nav.Navigate(guard.DefaultLoginPath)
	})

	if err := ctrl.Init(ctx); err != nil {
		detach()
		return nil, err
	}

	log.Debug().Str("server", cfg.Server).Str("stateDir", stateDir).Msg("session initialized")

	return &App{
		Store:  store,
		API:    api,
		Auth:   ctrl,
		nav:    nav,
		out:    g.out(),
		detach: detach,
	}, nil
}

// Close tears down the session controller.
func (a *App) Close() {
	a.detach()
	a.Auth.Teardown()
}

// protect runs fn only when the session is authenticated with one of roles.
func (a *App) protect(roles []models.Role, fn func(io.Writer) error) error {
	g := guard.New(a.Auth, a.nav, guard.WithAllowedRoles(roles...), guard.WithPlaceholder(""))
	defer g.Close()

	err := g.Render(a.out, fn)
	switch {
	case errors.Is(err, guard.ErrUnauthenticated):
		return fmt.Errorf("not logged in")
	case errors.Is(err, guard.ErrForbidden):
		return fmt.Errorf("access denied: requires one of %v", roles)
	default:
		return err
	}
}
