// Command devapi runs a fake school backend for the console: in memory by default,
// or on postgres/sqlite with embedded migrations.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
	logsvc "github.com/trezcool/masomo-console/services/logger"
	"github.com/trezcool/masomo-console/storage/database"
	inmemdb "github.com/trezcool/masomo-console/storage/database/inmem"
	sqlxrepos "github.com/trezcool/masomo-console/storage/database/sqlx"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	gooseRunFunc     = database.Migrate  // mockable
)

// app holds what every command needs once storage is open.
type app struct {
	conf    *core.Config
	logger  *logsvc.RollbarLogger
	db      *sqlx.DB // nil in memory
	usrSvc  *user.Service
	records database.RecordRepository
	out     io.Writer
	in      *os.File
}

func (a *app) open() error {
	if a.usrSvc != nil {
		return nil
	}
	if a.conf.Database.Engine == database.EngineMemory || a.conf.Database.Engine == "" {
		db := inmemdb.Open()
		a.usrSvc = user.NewService(inmemdb.NewUserRepository(db))
		a.records = inmemdb.NewRecordRepository(db)
		return nil
	}

	db, err := database.Open(a.conf)
	if err != nil {
		return err
	}
	a.db = db
	a.usrSvc = user.NewService(sqlxrepos.NewUserRepository(db))
	a.records = sqlxrepos.NewRecordRepository(db)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("closing database", err)
		}
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "devapi",
		Short:         "Fake Masomo backend for the console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.AddCommand(newServeCmd(a), newMigrateCmd(a), newAddUserCmd(a), newResetPasswordCmd(a))
	return root
}

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DEVAPI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	a := &app{conf: conf, logger: logger, out: os.Stdout, in: os.Stdin}
	if err := newRootCmd(a).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		a.close()
		os.Exit(1)
	}
}
