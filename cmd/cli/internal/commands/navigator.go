package commands

import (
	"fmt"
	"io"
	"sync"

	"github.com/wolfeidau/stockroom/internal/guard"
)

// terminalNavigator turns redirects into hints on the terminal. A redirect to
// the destination most recently shown is not repeated.
type terminalNavigator struct {
	w io.Writer

	mu   sync.Mutex
	last string
}

func newTerminalNavigator(w io.Writer) *terminalNavigator {
	return &terminalNavigator{w: w}
}

func (n *terminalNavigator) Navigate(dest string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if dest == n.last {
		return
	}
	n.last = dest

	switch dest {
	case guard.DefaultLoginPath:
		fmt.Fprintln(n.w, "You are not logged in. Run 'stockroom login' to sign in.")
	case guard.DefaultForbiddenPath:
		fmt.Fprintln(n.w, "Access Denied: you do not have permission to access this resource.")
	default:
		fmt.Fprintf(n.w, "See %s\n", dest)
	}
}
