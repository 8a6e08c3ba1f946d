package commands

import (
	"bufio"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/client"
	"github.com/wolfeidau/stockroom/internal/models"
)

// LoginCmd signs in and persists the session.
type LoginCmd struct {
	Email    string `arg:"" help:"Account email"`
	Password string `help:"Account password (read from stdin when omitted)" env:"STOCKROOM_PASSWORD"`
}

func (c *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	password := c.Password
	if password == "" {
		password, err = readPassword(globals)
		if err != nil {
			return err
		}
	}

	identity, err := app.Auth.Login(ctx, c.Email, password)
	if err != nil {
		var apiErr *client.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return fmt.Errorf("login failed: %s", apiErr.Message)
		}
		return fmt.Errorf("login failed: %w", err)
	}

	log.Debug().Int64("userID", identity.ID).Str("role", string(identity.Role)).Msg("logged in")

	if globals.JSON {
		return printJSON(app.out, identity)
	}

	fmt.Fprintf(app.out, "Logged in as %s (%s)\n", identity.DisplayName(), identity.Role)
	return nil
}

func readPassword(globals *Globals) (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")

	line, err := bufio.NewReader(globals.in()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}

// LogoutCmd clears the stored session.
type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	wasAuthenticated := app.Auth.IsAuthenticated()

	if err := app.Auth.Logout(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if wasAuthenticated {
		fmt.Fprintln(app.out, "Logged out.")
	} else {
		fmt.Fprintln(app.out, "Not logged in.")
	}
	return nil
}

// StatusCmd shows the current session.
type StatusCmd struct{}

type statusOutput struct {
	Authenticated bool              `json:"authenticated"`
	User          *models.Identity  `json:"user,omitempty"`
	Permissions   []auth.Permission `json:"permissions,omitempty"`
	Fingerprint   string            `json:"fingerprint,omitempty"`
}

func (c *StatusCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	s := app.Auth.Session()
	out := statusOutput{Authenticated: s.IsAuthenticated()}
	if out.Authenticated {
		out.User = s.Identity
		out.Permissions = auth.Permissions(s.Role())
		out.Fingerprint = fingerprint(s.Credential)
	}

	if globals.JSON {
		return printJSON(app.out, out)
	}

	if !out.Authenticated {
		fmt.Fprintln(app.out, "Not logged in.")
		return nil
	}

	w := newTable(app.out)
	fmt.Fprintf(w, "User:\t%s\n", out.User.DisplayName())
	fmt.Fprintf(w, "Email:\t%s\n", out.User.Email)
	fmt.Fprintf(w, "Role:\t%s\n", out.User.Role)
	fmt.Fprintf(w, "Token:\t%s...\n", out.Fingerprint)

	perms := make([]string, 0, len(out.Permissions))
	for _, p := range out.Permissions {
		perms = append(perms, string(p))
	}
	fmt.Fprintf(w, "Permissions:\t%s\n", strings.Join(perms, ", "))
	return w.Flush()
}

// fingerprint identifies a credential without revealing it.
func fingerprint(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	fp := base58.Encode(sum[:])
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return fp
}

// RegisterCmd creates a new account.
type RegisterCmd struct {
	Name     string `required:"" help:"Display name"`
	Email    string `required:"" help:"Account email"`
	Password string `required:"" help:"Account password" env:"STOCKROOM_PASSWORD"`
}

func (c *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	resp, err := app.API.Register(ctx, models.NewAccount{Name: c.Name, Email: c.Email, Password: c.Password})
	if err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}

	if globals.JSON {
		return printJSON(app.out, resp)
	}

	fmt.Fprintf(app.out, "Registered %s. Run 'stockroom login %s' to sign in.\n", c.Email, c.Email)
	return nil
}
