package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-console/core/user"
)

func newResetPasswordCmd(a *app) *cobra.Command {
	var uname string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Set a new password for a user; the password is prompted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}

			_, _ = fmt.Fprint(a.out, "Enter new password:")
			pwd, err := readPasswordFunc(int(a.in.Fd()))
			_, _ = fmt.Fprintln(a.out)
			if err != nil {
				return errors.Wrap(err, "reading password")
			}
			if len(pwd) == 0 {
				return errEmptyPassword
			}

			usr, err := a.usrSvc.ResetPassword(cmd.Context(), user.PasswordReset{
				UsernameOrEmail: uname,
				Password:        string(pwd),
				PasswordConfirm: string(pwd),
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.out, "password updated for user #%d %s\n", usr.ID, uname)
			return nil
		},
	}
	cmd.Flags().StringVarP(&uname, "username", "u", "", "username or email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
