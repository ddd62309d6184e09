package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	dErrors "evoting/pkg/domain-errors"
)

func newLoginCmd(current func() *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an administrator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if email == "" {
				if email, err = prompt(in, out, "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(in, out, "Password: "); err != nil {
					return err
				}
			}

			p, err := a.admin.Login(cmd.Context(), email, password)
			if err != nil {
				return userError(err)
			}
			name := p.DisplayName
			if name == "" {
				name = p.Email
			}
			fmt.Fprintf(out, "Signed in as %s (%s)\n", name, p.RoleLabel())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Administrator email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	return cmd
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// userError strips wrapping so the terminal shows the classified message.
func userError(err error) error {
	return fmt.Errorf("%s (%s)", dErrors.MessageOf(err), dErrors.CodeOf(err))
}
