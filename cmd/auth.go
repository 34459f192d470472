package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Andres337939/libros-front/internal/model"
)

func newLoginCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and keep the session for later commands",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			p := newPrompter(a.in, a.errOut)
			username := ""
			if len(args) > 0 {
				username = args[0]
			} else {
				var err error
				if username, err = p.line("Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				var err error
				if password, err = p.secret("Password: "); err != nil {
					return err
				}
			}

			user, err := a.session.Login(cmd.Context(), username, password)
			if err != nil {
				return a.explain(err)
			}
			fmt.Fprintf(a.out, "Signed in as %s (%s).\n", user.Username, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password, prompted for when empty")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			return renderSession(a.out, a.output, a.current())
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register [username]",
		Short: "Create a member account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			p := newPrompter(a.in, a.errOut)
			req := &model.RegisterRequest{Password: password, ConfirmPassword: password}
			if len(args) > 0 {
				req.Username = args[0]
			} else {
				var err error
				if req.Username, err = p.line("Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				var err error
				if req.Password, err = p.secret("Password: "); err != nil {
					return err
				}
				if req.ConfirmPassword, err = p.secret("Confirm password: "); err != nil {
					return err
				}
			}

			if err := a.session.Register(cmd.Context(), req); err != nil {
				return a.explain(err)
			}
			fmt.Fprintf(a.out, "Account %s created. Run \"libros login %s\" to sign in.\n", req.Username, req.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password, prompted for twice when empty")
	return cmd
}

// prompter reads answers from in. Secrets are read without echo when in is
// a terminal.
type prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, reader: bufio.NewReader(in), out: out}
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", errors.Wrap(err, "failed to read input")
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) secret(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.line(prompt)
	}
	fmt.Fprint(p.out, prompt)
	password, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}
	return strings.TrimSpace(string(password)), nil
}
