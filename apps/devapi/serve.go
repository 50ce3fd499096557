package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	echoapi "github.com/trezcool/masomo-console/apps/devapi/echo"
	"github.com/trezcool/masomo-console/storage/database"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		seed    bool
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if migrate && a.db != nil {
				if err := gooseRunFunc(a.db, a.conf.Database.Engine, "up"); err != nil {
					return err
				}
			}
			if seed || a.conf.Database.Engine == database.EngineMemory {
				users, err := echoapi.Seed(cmd.Context(), a.usrSvc, a.records, a.conf.Server.SeedPassword)
				if err != nil {
					return errors.Wrap(err, "seeding")
				}
				a.logger.Info(fmt.Sprintf("seeded %d users", len(users)))
			}
			return a.serve()
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "create demo users and records (always on in memory)")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations first")
	return cmd
}

func (a *app) serve() error {
	conf := a.conf
	a.logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer a.logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	if conf.Server.DebugAddress != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
				a.logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(&echoapi.Options{
		Conf:    conf,
		Logger:  a.logger,
		UserSvc: a.usrSvc,
		Records: a.records,
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "server error")

	case sig := <-shutdown:
		a.logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
	}
	return nil
}
