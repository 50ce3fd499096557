package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command (up, down, status, version, redo, up-to, down-to) on the SQL database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if a.db == nil {
				return errors.New("migrations need a SQL database engine (postgres or sqlite)")
			}
			return gooseRunFunc(a.db, a.conf.Database.Engine, args[0], args[1:]...)
		},
	}
}
