package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/pennyplan/internal/client/client"
	"github.com/dmitrijs2005/pennyplan/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errPasswordMismatch = errors.New("passwords do not match")

// Register prompts for a user name, email and password (twice) and creates
// the account. The session token is kept for later commands.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(password) != string(confirm) {
		return errPasswordMismatch
	}

	s, err := a.api.Register(ctx, userName, email, string(password))
	if err != nil {
		return err
	}

	a.startSession(s)
	return nil
}

// Login prompts for email and password.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	a.startSession(s)
	return nil
}

// GoogleLogin signs in with a Google ID token obtained elsewhere, for
// example from the web sign-in button.
func (a *App) GoogleLogin(ctx context.Context, idToken string) error {
	s, err := a.api.GoogleLogin(ctx, idToken)
	if err != nil {
		return err
	}
	a.startSession(s)
	return nil
}

// Me prints the current user. args may carry -t <token>; otherwise the
// session or configured token is used.
func (a *App) Me(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("me", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	token := fs.String("t", a.token, "bearer token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return fmt.Errorf("%w: no token, log in first or pass -t", client.ErrUnauthorized)
	}

	u, err := a.api.Me(ctx, *token)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:       %s\n", u.ID)
	fmt.Fprintf(a.out, "username: %s\n", u.Username)
	fmt.Fprintf(a.out, "email:    %s\n", u.Email)
	if u.Picture != "" {
		fmt.Fprintf(a.out, "picture:  %s\n", u.Picture)
	}
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Server is up")
	return nil
}

// Logout forgets the session token.
func (a *App) Logout(context.Context) error {
	a.token = ""
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) startSession(s *client.Session) {
	a.token = s.Token
	a.userName = s.User.Username
	if a.userName == "" {
		a.userName = s.User.Email
	}

	if s.Message != "" {
		fmt.Fprintln(a.out, s.Message)
	} else {
		fmt.Fprintln(a.out, "Success!")
	}
	fmt.Fprintln(a.out, "token:", s.Token)
}
