package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL drives. App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	GoogleLogin(ctx context.Context, idToken string) error
	Me(ctx context.Context, args []string) error
	Ping(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands line by line until EOF, "exit" or "quit".
// Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, w io.Writer, statusFn func() string, scanner *bufio.Scanner) {
	for {
		fmt.Fprintf(w, "pennyplan%s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: me, ping, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, google <id-token>, ping, exit")
			}
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "google":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: google <id-token>")
				continue
			}
			err = a.GoogleLogin(ctx, args[0])
		case "me":
			err = a.Me(ctx, args)
		case "ping":
			err = a.Ping(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(w, "error:", err)
		}
	}
}
