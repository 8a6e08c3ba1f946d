package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/models"
)

// WorkersCmd manages worker accounts.
type WorkersCmd struct {
	Create WorkersCreateCmd `cmd:"" help:"Create a worker account"`
}

// WorkersCreateCmd creates a worker account. Admins only.
type WorkersCreateCmd struct {
	Name     string `required:"" help:"Worker name"`
	Email    string `required:"" help:"Worker email"`
	Password string `required:"" help:"Initial password" env:"STOCKROOM_WORKER_PASSWORD"`
}

func (c *WorkersCreateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.protect(auth.AdminRoles, func(w io.Writer) error {
		resp, err := app.API.CreateWorker(ctx, models.NewAccount{Name: c.Name, Email: c.Email, Password: c.Password})
		if err != nil {
			return fmt.Errorf("failed to create worker: %w", err)
		}

		if globals.JSON {
			return printJSON(w, resp)
		}

		fmt.Fprintf(w, "Created worker %s\n", c.Email)
		return nil
	})
}
