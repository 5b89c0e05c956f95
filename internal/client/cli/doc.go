// Package cli provides the interactive gophauth command-line client.
//
// It wires configuration, the local session database, the API client with
// its token renewal coordinator, the session state tracker and an
// interactive REPL. Typical flow: restore the previous session (check the
// stored token and load the profile concurrently), start a background
// session watcher, then execute user commands until exit.
//
// Commands:
//   - login / signup / logout
//   - activate and reset-confirm, taking a uid and token or the link from
//     the e-mail
//   - reset, to request a password reset mail
//   - whoami and status
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartSessionWatcher, and runREPL for details.
package cli
