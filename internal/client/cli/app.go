package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/wellkeeper/internal/client/client"
	"github.com/dmitrijs2005/wellkeeper/internal/client/config"
)

type App struct {
	config   *config.Config
	client   client.Client
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		client: client.NewHTTPClient(c.ServerURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to wellkeeper CLI (type 'help' for commands)")

	if err := a.client.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "Warning: %s is not reachable: %v\n", a.config.ServerURL, err)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	a.client.Logout()
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// report prints a command failure without leaving the REPL.
func (a *App) report(err error) error {
	fmt.Fprintf(a.out, "Error: %v\n", err)
	return err
}
