package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"evoting/internal/capability"
	"evoting/internal/session"
	id "evoting/pkg/domain"
)

func kindFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "kind", "admin", "Principal kind (admin, voter)")
}

func newWhoamiCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in administrator and voter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			out := cmd.OutOrStdout()
			for _, kind := range id.AllKinds {
				st := a.sessions.Status(cmd.Context(), kind)
				switch {
				case st.Principal == nil:
					fmt.Fprintf(out, "%s: not signed in\n", kind)
				case st.Expired:
					fmt.Fprintf(out, "%s: %s (expired, sign in again)\n", kind, st.Principal.SubjectID)
				default:
					fmt.Fprintf(out, "%s: %s\n", kind, describe(st))
				}
			}
			return nil
		},
	}
}

func describe(st session.Status) string {
	p := st.Principal
	parts := []string{p.SubjectID, p.RoleLabel()}
	if p.DisplayName != "" {
		parts = append(parts, p.DisplayName)
	}
	if p.Permissions.Len() > 0 {
		parts = append(parts, "permissions="+strings.Join(p.Permissions.Tokens(), ","))
	}
	if !p.ExpiresAt.IsZero() {
		parts = append(parts, "expires="+p.ExpiresAt.Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, " ")
}

func newCanCmd(current func() *app) *cobra.Command {
	var kindName string
	cmd := &cobra.Command{
		Use:   "can <capability>",
		Short: "Check whether the signed-in principal holds a capability",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := id.ParsePrincipalKind(kindName)
			if err != nil {
				return err
			}
			required := ""
			if len(args) == 1 {
				required = args[0]
			}
			allowed := capability.NewResolver(current().sessions).Can(cmd.Context(), kind, required)
			if allowed {
				fmt.Fprintln(cmd.OutOrStdout(), "allowed")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "denied")
			return fmt.Errorf("%s does not hold %q", kind, required)
		},
	}
	kindFlag(cmd, &kindName)
	return cmd
}

func newMenuCmd(current func() *app) *cobra.Command {
	var kindName string
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List the console screens the signed-in principal may open",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := id.ParsePrincipalKind(kindName)
			if err != nil {
				return err
			}
			items := current().guard.Menu(cmd.Context(), kind)
			if len(items) == 0 {
				return fmt.Errorf("%s is not signed in", kind)
			}
			for _, item := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", item.Path, item.Title)
			}
			return nil
		},
	}
	kindFlag(cmd, &kindName)
	return cmd
}

func newLogoutCmd(current func() *app) *cobra.Command {
	var kindName string
	var all bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			kinds := id.AllKinds
			if !all {
				kind, err := id.ParsePrincipalKind(kindName)
				if err != nil {
					return err
				}
				kinds = []id.PrincipalKind{kind}
			}
			for _, kind := range kinds {
				if err := a.admin.Logout(cmd.Context(), kind); err != nil {
					return userError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s signed out\n", kind)
			}
			return nil
		},
	}
	kindFlag(cmd, &kindName)
	cmd.Flags().BoolVar(&all, "all", false, "Sign out every kind")
	return cmd
}
