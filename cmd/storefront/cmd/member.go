package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/unikraft-shop/storefront/internal/domain/member"
	"github.com/unikraft-shop/storefront/internal/domain/session"
	"github.com/unikraft-shop/storefront/internal/view"
)

var (
	loginID       string
	loginPassword string

	signupDraft member.SignupDraft
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and keep the session",
	Long: `Log in with your login id and password. Missing values are asked for.

The returned token is stored in the session storage and used by later
commands until you log out or the server reports it expired.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Long: `Create an account. Missing values are asked for.

Every field is required and the password must be typed twice. Nothing is
sent to the shop unless the local checks pass.`,
	Args: cobra.NoArgs,
	RunE: runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the navbar and session state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	loginCmd.Flags().StringVar(&loginID, "id", "", "login id")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (asked for when omitted)")

	f := signupCmd.Flags()
	f.StringVar(&signupDraft.LoginID, "id", "", "login id, 4 to 20 characters")
	f.StringVar(&signupDraft.Password, "password", "", "password, 8 to 20 characters")
	f.StringVar(&signupDraft.PasswordCheck, "password-check", "", "password again")
	f.StringVar(&signupDraft.Name, "name", "", "display name")
	f.StringVar(&signupDraft.Email, "email", "", "email address")

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	creds := member.Credentials{LoginID: loginID, Password: loginPassword}
	if err := p.fill(
		field{"Login id", &creds.LoginID},
		field{"Password", &creds.Password},
	); err != nil {
		return err
	}

	return withStorefront(cmd, func(ctx context.Context, sf *storefront) error {
		return notified(sf.shell.Login(ctx, creds))
	})
}

func runSignup(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	draft := signupDraft
	if err := p.fill(
		field{"Login id", &draft.LoginID},
		field{"Password", &draft.Password},
		field{"Password again", &draft.PasswordCheck},
		field{"Name", &draft.Name},
		field{"Email", &draft.Email},
	); err != nil {
		return err
	}

	return withStorefront(cmd, func(ctx context.Context, sf *storefront) error {
		return notified(sf.shell.Signup(ctx, draft))
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	return withStorefront(cmd, func(ctx context.Context, sf *storefront) error {
		return notified(sf.shell.Logout(ctx))
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withStorefront(cmd, func(ctx context.Context, sf *storefront) error {
		w := cmd.OutOrStdout()
		state := sf.shell.State(ctx)
		if err := view.Navbar(w, state); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "session:\t%s\n", state)
		token, ok, err := sf.provider.Token(ctx)
		if err != nil {
			fmt.Fprintf(tw, "token:\tunreadable (%v)\n", err)
		} else if ok {
			fmt.Fprintf(tw, "token:\t%s\n", session.Fingerprint(token))
		}
		fmt.Fprintf(tw, "storage:\t%s %s\n", sf.cfg.Session.Backend, sf.cfg.Session.Path)
		fmt.Fprintf(tw, "expiry policy:\t%s\n", sf.cfg.Session.ExpiryPolicy)
		fmt.Fprintf(tw, "api:\t%s\n", sf.cfg.API.BaseURL)
		return tw.Flush()
	})
}

// field is one value to ask for when it was not given as a flag.
type field struct {
	label string
	value *string
}

// prompter asks for missing values line by line.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// fill prompts for every field that is still empty.
func (p *prompter) fill(fields ...field) error {
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		v, err := p.ask(f.label)
		if err != nil {
			return err
		}
		*f.value = v
	}
	return nil
}

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
