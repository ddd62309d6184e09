package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"evoting/internal/voterauth"
	dErrors "evoting/pkg/domain-errors"
)

func newVoterCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voter",
		Short: "Voter portal sign-in",
	}
	cmd.AddCommand(newVoterLoginCmd(current))
	return cmd
}

func newVoterLoginCmd(current func() *app) *cobra.Command {
	var claims voterauth.IdentityClaims
	var code string
	var maxAttempts int

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a voter with identity details and a one-time code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			ctx := cmd.Context()
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			state, err := a.voter.Initiate(ctx, claims)
			if err != nil {
				return userError(err)
			}
			if state.ContactHint != "" {
				fmt.Fprintf(out, "A code was sent to %s\n", state.ContactHint)
			} else if state.Message != "" {
				fmt.Fprintln(out, state.Message)
			}

			for attempt := 1; ; attempt++ {
				if code == "" {
					if code, err = prompt(in, out, "Code: "); err != nil {
						return err
					}
				}
				state, err = a.voter.Verify(ctx, code)
				if err == nil {
					break
				}
				// The backend decides how many wrong codes a challenge tolerates; the
				// prompt only stops on its own when --max-attempts asks it to.
				if !dErrors.HasCode(err, dErrors.CodeInvalidChallengeResponse) || (maxAttempts > 0 && attempt >= maxAttempts) {
					return userError(err)
				}
				fmt.Fprintf(out, "%s, try again\n", dErrors.MessageOf(err))
				code = ""
			}

			fmt.Fprintf(out, "Signed in as voter %s\n", state.Principal.SubjectID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&claims.VoterID, "voter-id", "", "Voter ID (EPIC number)")
	f.StringVar(&claims.NationalID, "national-id", "", "National ID number")
	f.StringVar(&claims.District, "district", "", "District")
	f.StringVar(&claims.LocalBodyType, "local-body-type", "", "Local body type")
	f.StringVar(&claims.LocalBodyName, "local-body-name", "", "Local body name")
	f.StringVar(&claims.Ward, "ward", "", "Ward number")
	f.StringVar(&code, "code", "", "One-time code (prompted if omitted)")
	f.IntVar(&maxAttempts, "max-attempts", 0, "Give up after this many rejected codes (0 keeps prompting until input ends)")
	for _, name := range []string{"voter-id", "national-id", "district", "local-body-type", "local-body-name", "ward"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
