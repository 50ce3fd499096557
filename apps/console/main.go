// Command masomo is the console client of the school backend: list screens, records,
// report cards and the notifications badge, driven by the listview engine.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
	apisvc "github.com/trezcool/masomo-console/services/api"
	emailsvc "github.com/trezcool/masomo-console/services/email"
	logsvc "github.com/trezcool/masomo-console/services/logger"
)

var readPasswordFunc = term.ReadPassword // mockable

// env holds what every command needs.
type env struct {
	conf   *core.Config
	logger *logsvc.RollbarLogger
	mailer core.EmailService
	tokens tokenStore
	out    io.Writer
	errOut io.Writer
	in     io.Reader
	lines  *bufio.Reader
	styles styles

	// persistent flags
	baseURL   string
	assumeYes bool
	asJSON    bool

	client *apisvc.Client
}

// api returns the backend client, authenticated with the configured or saved token.
func (e *env) api() *apisvc.Client {
	if e.client != nil {
		return e.client
	}
	if e.baseURL != "" {
		e.conf.API.BaseURL = e.baseURL
	}
	e.client = apisvc.NewClient(e.conf, e.logger)
	if e.client.Token() == "" {
		tok, err := e.tokens.Load()
		if err != nil {
			e.logger.Warn("loading saved token", err)
		}
		e.client.SetToken(tok)
	}
	return e.client
}

func (e *env) principal() (user.Principal, error) {
	who, err := e.api().Principal()
	if err != nil {
		return user.Principal{}, err
	}
	if who.IsAnonymous() {
		return who, errNotLoggedIn
	}
	return who, nil
}

// inFd is the terminal file descriptor passwords are read from.
func (e *env) inFd() int {
	if f, ok := e.in.(*os.File); ok {
		return int(f.Fd())
	}
	return int(os.Stdin.Fd())
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "masomo",
		Short:         "Masomo school console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&e.baseURL, "api", "", "backend base url (default from config)")
	root.PersistentFlags().BoolVarP(&e.assumeYes, "yes", "y", false, "answer yes to confirmations")
	root.PersistentFlags().BoolVar(&e.asJSON, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newScreensCmd(e),
		newListCmd(e),
		newShowCmd(e),
		newCreateCmd(e),
		newUpdateCmd(e),
		newDeleteCmd(e),
		newUploadCmd(e),
		newReadCmd(e),
		newReportCmd(e),
		newAttendanceCmd(e),
		newSyllabusCmd(e),
	)
	return root
}

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "masomo", "token")
}

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "CONSOLE : ", log.LstdFlags|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	e := &env{
		conf:   conf,
		logger: logger,
		mailer: emailsvc.NewService(conf, logger),
		tokens: tokenStore{path: defaultTokenPath()},
		out:    os.Stdout,
		errOut: os.Stderr,
		in:     os.Stdin,
		styles: newStyles(term.IsTerminal(int(os.Stdout.Fd()))),
	}
	if err := newRootCmd(e).Execute(); err != nil {
		var reported errReported
		if !errors.As(err, &reported) {
			_, _ = fmt.Fprintln(os.Stderr, e.styles.err.Render("error: "+displayError(err)))
		}
		logger.Close()
		os.Exit(1)
	}
}
