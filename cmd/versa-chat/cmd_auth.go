package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ConcealedGem/versa-chat-view/internal/auth"
	"github.com/ConcealedGem/versa-chat-view/internal/interfaces"
)

const maxLoginAttempts = 3

func init() {
	loginCmd.Flags().StringP("username", "u", "", "user name (prompted when empty)")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the agent backend and store the token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		username, _ := cmd.Flags().GetString("username")
		p := newPrompter(os.Stdin, cmd.ErrOrStderr())
		session, err := p.login(cmd.Context(), a.Login, username)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", session.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if err := a.Login.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

// prompter asks for credentials on a terminal, falling back to plain line
// input when stdin is not one.
type prompter struct {
	in     *bufio.Reader
	fd     int
	isTTY  bool
	output io.Writer
}

func newPrompter(in *os.File, output io.Writer) *prompter {
	fd := int(in.Fd())
	return &prompter{
		in:     bufio.NewReader(in),
		fd:     fd,
		isTTY:  term.IsTerminal(fd),
		output: output,
	}
}

func (p *prompter) readLine(label string) (string, error) {
	fmt.Fprint(p.output, label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) readPassword(label string) (string, error) {
	if !p.isTTY {
		return p.readLine(label)
	}
	fmt.Fprint(p.output, label)
	password, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.output)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (p *prompter) credentials(username string) (auth.Credentials, error) {
	var err error
	if username == "" {
		if username, err = p.readLine("Username: "); err != nil {
			return auth.Credentials{}, err
		}
	}
	password, err := p.readPassword("Password: ")
	if err != nil {
		return auth.Credentials{}, err
	}
	return auth.Credentials{Username: username, Password: password}, nil
}

// login prompts until the backend accepts the credentials or the attempts
// run out.
func (p *prompter) login(ctx context.Context, svc interfaces.AuthService, username string) (*auth.Session, error) {
	var lastErr error
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		creds, err := p.credentials(username)
		if err != nil {
			return nil, fmt.Errorf("could not read credentials: %w", err)
		}
		session, err := svc.Login(ctx, creds)
		if err == nil {
			return session, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		fmt.Fprintf(p.output, "Login failed: %v\n", err)
	}
	return nil, fmt.Errorf("login failed after %d attempts: %w", maxLoginAttempts, lastErr)
}

// loginListener answers login-required events from the terminal. When the
// login is abandoned, giveUp is called so the waiting request ends.
func (p *prompter) loginListener(ctx context.Context, svc interfaces.AuthService, giveUp func()) auth.LoginListener {
	return func(_ context.Context, retry func()) {
		go func() {
			fmt.Fprintln(p.output, "The agent backend requires a login.")
			if _, err := p.login(ctx, svc, ""); err != nil {
				fmt.Fprintf(p.output, "%v\n", err)
				giveUp()
				return
			}
			retry()
		}()
	}
}
