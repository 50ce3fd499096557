package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-console/core/notification"
	"github.com/trezcool/masomo-console/core/user"
)

var (
	errNotLoggedIn   = errors.New("not logged in, run `masomo login` first")
	errEmptyPassword = errors.New("password cannot be empty")
)

// tokenStore keeps the session token between invocations.
type tokenStore struct {
	path string
}

func (s tokenStore) Load() (string, error) {
	if s.path == "" {
		return "", nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrap(err, "reading token")
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s tokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating config dir")
	}
	return errors.Wrap(os.WriteFile(s.path, []byte(token+"\n"), 0o600), "saving token")
}

func (s tokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing token")
	}
	return nil
}

func newLoginCmd(e *env) *cobra.Command {
	var creds user.LoginCredentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if creds.Username == "" {
				_, _ = fmt.Fprint(e.out, "Username or email: ")
				uname, err := e.readLine()
				if err != nil {
					return err
				}
				creds.Username = uname
			}
			if creds.Password == "" {
				_, _ = fmt.Fprint(e.out, "Password: ")
				pwd, err := readPasswordFunc(e.inFd())
				_, _ = fmt.Fprintln(e.out)
				if err != nil {
					return errors.Wrap(err, "reading password")
				}
				creds.Password = string(pwd)
			}
			if creds.Password == "" {
				return errEmptyPassword
			}

			client := e.api()
			client.SetToken("")
			token, err := client.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			if err = e.tokens.Save(token); err != nil {
				return err
			}

			profile, err := client.Me(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(e.out, e.styles.ok.Render(fmt.Sprintf("logged in as %s (%s)", profile.Name, profile.RoleName())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username or email")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := e.tokens.Clear(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(e.out, "logged out")
			return nil
		},
	}
}

// newWhoamiCmd prints the header every screen shares: who is logged in and the unread badge.
func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user and unread notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := e.principal(); err != nil {
				return err
			}
			client := e.api()
			badge := notification.NewBadge(client.UnreadCount)

			var (
				wg         sync.WaitGroup
				profile    user.Profile
				profileErr error
				badgeErr   error
			)
			wg.Add(2)
			go func() {
				defer wg.Done()
				profile, profileErr = client.Me(cmd.Context())
			}()
			go func() {
				defer wg.Done()
				_, badgeErr = badge.Refresh(cmd.Context())
			}()
			wg.Wait()

			if profileErr != nil {
				return profileErr
			}
			if badgeErr != nil {
				e.logger.Warn("whoami: unread count", badgeErr)
			}

			if e.asJSON {
				unread, _ := badge.Count()
				return writeJSON(e.out, struct {
					user.Profile
					Unread int `json:"unread"`
				}{profile, unread})
			}
			_, _ = fmt.Fprintln(e.out, e.styles.box.Render(header(e.styles, profile, badge)))
			return nil
		},
	}
}

func header(st styles, p user.Profile, badge *notification.Badge) string {
	parts := []string{st.title.Render(p.Name), p.RoleName()}
	if p.ClassGroup != "" {
		parts = append(parts, p.ClassGroup)
	}
	unread := "? unread"
	if n, ok := badge.Count(); ok {
		unread = strconv.Itoa(n) + " unread"
	}
	return strings.Join(parts, " · ") + "  " + st.muted.Render("["+unread+"]")
}

func newReadCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "read NOTIFICATION_ID",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err = e.principal(); err != nil {
				return err
			}

			client := e.api()
			if err = client.MarkRead(cmd.Context(), id); err != nil {
				return err
			}
			badge := notification.NewBadge(client.UnreadCount)
			n, err := badge.Refresh(cmd.Context())
			if err != nil {
				e.logger.Warn("read: unread count", err)
				_, _ = fmt.Fprintf(e.out, "marked #%d as read\n", id)
				return nil
			}
			_, _ = fmt.Fprintf(e.out, "marked #%d as read (%d unread)\n", id, n)
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid id %q", s)
	}
	return id, nil
}
