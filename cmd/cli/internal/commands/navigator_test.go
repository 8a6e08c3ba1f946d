package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wolfeidau/stockroom/internal/guard"
)

func TestTerminalNavigator(t *testing.T) {
	var buf bytes.Buffer
	nav := newTerminalNavigator(&buf)

	nav.Navigate(guard.DefaultLoginPath)
	nav.Navigate(guard.DefaultLoginPath)
	assert.Equal(t, 1, strings.Count(buf.String(), "not logged in"))

	nav.Navigate(guard.DefaultForbiddenPath)
	assert.Contains(t, buf.String(), "Access Denied")

	nav.Navigate(guard.DefaultLoginPath)
	assert.Equal(t, 2, strings.Count(buf.String(), "not logged in"))
}
