package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Activate(ctx context.Context, args []string) error
	ResetPassword(ctx context.Context) error
	ConfirmReset(ctx context.Context, args []string) error
	WhoAmI(ctx context.Context) error
	Status(ctx context.Context) error
	ClearErrors(ctx context.Context) error
	Logout(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login, signup, activate, reset, reset-confirm, status, exit"
	helpLoggedIn  = "Available commands: whoami, status, clear, logout, exit"
)

// runREPL starts a simple read-eval-print loop for the gophauth CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Commands that need more input read it from
// the same reader. Unknown commands are reported back to the user. The loop
// exits on EOF, when ctx is done, or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                                 show available commands
//	  - login                                open a session
//	  - signup                               create an account
//	  - activate [uid token | link]          activate an account
//	  - reset                                request a password reset mail
//	  - reset-confirm [uid token | link]     set a new password
//	  - status                               re-check and show the session
//	  - exit | quit                          leave the program
//
//	Logged in:
//	  - help             show available commands
//	  - whoami           show the current user
//	  - status           re-check and show the session
//	  - clear            clear the last error and message
//	  - logout           log out
//	  - exit | quit      leave the program
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("gophauth %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "login":
			_ = a.Login(ctx)

		case "signup", "register":
			_ = a.Signup(ctx)

		case "activate":
			_ = a.Activate(ctx, args)

		case "reset":
			_ = a.ResetPassword(ctx)

		case "reset-confirm":
			_ = a.ConfirmReset(ctx, args)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "status":
			_ = a.Status(ctx)

		case "clear":
			_ = a.ClearErrors(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
