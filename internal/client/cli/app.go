package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/pennyplan/internal/client/client"
	"github.com/dmitrijs2005/pennyplan/internal/client/config"
)

// API is the subset of the auth API the CLI drives.
type API interface {
	Register(ctx context.Context, username, email, password string) (*client.Session, error)
	Login(ctx context.Context, email, password string) (*client.Session, error)
	GoogleLogin(ctx context.Context, idToken string) (*client.Session, error)
	Me(ctx context.Context, token string) (*client.User, error)
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	api    API
	reader *bufio.Reader
	out    io.Writer

	token    string
	userName string
}

func NewApp(c *config.Config) *App {
	return newApp(c, client.New(c.ServerURL, c.Timeout), os.Stdin, os.Stdout)
}

func newApp(c *config.Config, api API, in io.Reader, out io.Writer) *App {
	return &App{config: c, api: api, reader: bufio.NewReader(in), out: out, token: c.Token}
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", a.userName)
}

// Run executes the command in args, or the REPL when there is none, and
// returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	cmd, rest, err := splitCommand(args)
	if err != nil {
		fmt.Fprintln(a.out, "error:", err)
		return 2
	}

	if cmd == "" {
		fmt.Fprintln(a.out, "Welcome to PennyPlan CLI (type 'help' for commands)")
		runREPL(ctx, a, a.out, a.getStatus, bufio.NewScanner(a.reader))
		return 0
	}

	if err := a.exec(ctx, cmd, rest); err != nil {
		fmt.Fprintln(a.out, "error:", err)
		return 1
	}
	return 0
}

func (a *App) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "google":
		if len(args) != 1 {
			return fmt.Errorf("usage: google <id-token>")
		}
		return a.GoogleLogin(ctx, args[0])
	case "me":
		return a.Me(ctx, args)
	case "ping":
		return a.Ping(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// splitCommand skips the global flags, which config.Load has already
// consumed, and returns the command with its arguments.
func splitCommand(args []string) (string, []string, error) {
	fs := flag.NewFlagSet("pennyplan", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("a", "", "")
	fs.String("w", "", "")
	fs.String("c", "", "")
	fs.String("config", "", "")

	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	if fs.NArg() == 0 {
		return "", nil, nil
	}
	return fs.Arg(0), fs.Args()[1:], nil
}
