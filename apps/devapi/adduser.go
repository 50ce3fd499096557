package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-console/core/user"
)

var errEmptyPassword = errors.New("password cannot be empty")

func newAddUserCmd(a *app) *cobra.Command {
	var (
		nu   user.NewUser
		role string
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user; the password is prompted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}

			_, _ = fmt.Fprint(a.out, "Enter password:")
			pwd, err := readPasswordFunc(int(a.in.Fd()))
			_, _ = fmt.Fprintln(a.out)
			if err != nil {
				return errors.Wrap(err, "reading password")
			}
			if len(pwd) == 0 {
				return errEmptyPassword
			}
			nu.Password, nu.PasswordConfirm = string(pwd), string(pwd)

			if role != "" {
				nu.Roles = []string{roleValue(role)}
			}
			usr, err := a.usrSvc.Create(cmd.Context(), nu)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.out, "created user #%d %s (%s)\n", usr.ID, usr.Username, user.RoleName(usr.Roles))
			return nil
		},
	}
	cmd.Flags().StringVar(&nu.Name, "name", "", "full name")
	cmd.Flags().StringVar(&nu.Username, "username", "", "username")
	cmd.Flags().StringVar(&nu.Email, "email", "", "email address")
	cmd.Flags().StringVar(&nu.ClassGroup, "class", "", "class group, eg. 7A")
	cmd.Flags().StringVar(&role, "role", "", "admin, teacher or student (or a raw role such as admin:owner)")
	return cmd
}

// roleValue maps a short role name to its role value.
func roleValue(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if strings.Contains(role, ":") {
		return role
	}
	return role + ":"
}
