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
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context) error
	Add(ctx context.Context) error
	Attach(ctx context.Context) error
	Download(ctx context.Context) error
	Delete(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them to a. Commands
// that need an account are refused until the user logs in. The loop exits
// on EOF or when the user types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers print
// their own errors so a failing command never ends the session.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	protected := map[string]func(context.Context) error{
		"profile":  a.Profile,
		"list":     a.List,
		"l":        a.List,
		"show":     a.Show,
		"add":      a.Add,
		"attach":   a.Attach,
		"download": a.Download,
		"delete":   a.Delete,
		"logout":   a.Logout,
	}

	for {
		printlnFn(fmt.Sprintf("wk%s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: profile, (l)ist, show, add, attach, download, delete, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			fn, ok := protected[cmd]
			switch {
			case !ok:
				printlnFn("Unknown command:", cmd)
			case !a.isLoggedIn():
				printlnFn("Please login first")
			default:
				_ = fn(ctx)
			}
		}
	}
}
