package cli

import (
	"context"
	"fmt"
)

// getStatus renders the prompt status, e.g. "(ada@example.com authenticated)".
func (a *App) getStatus() string {
	st := a.tracker.State()
	s := st.Auth.String()
	if st.User != nil && st.User.Email != "" {
		s = st.User.Email + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}

// Root restores the previous session, starts the session watcher and runs
// the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to gophauth CLI (type 'help' for commands)")

	a.restoreSession(ctx)
	if !a.isLoggedIn() {
		printlnFn("Not logged in. Type 'login' or 'signup'.")
	}

	go a.StartSessionWatcher(ctx, a.config.SessionCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}
