package guard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/guard"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/session"
)

type staticLogin struct {
	resp *models.LoginResponse
}

func (s staticLogin) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	return s.resp, nil
}

func TestGuard_FollowsController(t *testing.T) {
	ctx := context.Background()

	ctrl := auth.NewController(session.NewStore(session.NewMemoryBackend()), staticLogin{
		resp: &models.LoginResponse{
			Token: "tok-1",
			User:  &models.Identity{ID: 1, Email: "boss@b.com", Role: models.RoleAdmin},
		},
	})
	defer ctrl.Teardown()

	var visited []string
	g := guard.New(ctrl, guard.NavigatorFunc(func(dest string) { visited = append(visited, dest) }),
		guard.WithAllowedRoles(auth.AdminRoles...))
	defer g.Close()

	// Not yet restored
	assert.Equal(t, guard.StateSettling, g.State())
	assert.Empty(t, visited)

	require.NoError(t, ctrl.Init(ctx))
	assert.Equal(t, guard.StateDenied, g.State())
	assert.Equal(t, []string{guard.DefaultLoginPath}, visited)

	_, err := ctrl.Login(ctx, "boss@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, guard.StateGranted, g.State())

	require.NoError(t, ctrl.Logout(ctx))
	assert.Equal(t, guard.StateDenied, g.State())
	assert.Equal(t, []string{guard.DefaultLoginPath, guard.DefaultLoginPath}, visited)
}
