package main

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/storage/database"
	logsvc "github.com/trezcool/masomo-console/services/logger"
)

type cliTest struct {
	name       string
	args       []string // without program name
	password   string
	wantErr    error
	wantErrStr string
	wantOut    string
}

func setup(engine string) (*app, *bytes.Buffer) {
	conf := &core.Config{AppName: "Masomo", SecretKey: "secret", TestMode: true}
	conf.Database.Engine = engine
	out := new(bytes.Buffer)
	return &app{conf: conf, logger: logsvc.NewDiscardLogger(), out: out, in: os.Stdin}, out
}

func run(a *app, args ...string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.out)
	return root.ExecuteContext(context.Background())
}

func Test_adduser(t *testing.T) {
	tests := []cliTest{
		{
			name:     "student",
			args:     []string{"adduser", "--name", "Amani Juma", "--username", "amani", "--class", "7a", "--role", "student"},
			password: "Masomo@2024!",
			wantOut:  "created user #1 amani (Student)",
		},
		{
			name:     "raw admin role",
			args:     []string{"adduser", "--name", "Neema", "--email", "neema@masomo.test", "--role", "admin:owner"},
			password: "Masomo@2024!",
			wantOut:  "created user #1  (Admin Owner)",
		},
		{
			name:    "empty password",
			args:    []string{"adduser", "--name", "Neema", "--username", "neema"},
			wantErr: errEmptyPassword,
		},
		{
			name:       "weak password",
			args:       []string{"adduser", "--name", "Neema", "--username", "neema"},
			password:   "12345678",
			wantErrStr: "password: password cannot be entirely numeric",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out := setup(database.EngineMemory)
			readPasswordFunc = func(int) ([]byte, error) { return []byte(tt.password), nil }

			err := run(a, tt.args...)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
			default:
				require.NoError(t, err)
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func Test_migrate(t *testing.T) {
	var got []string
	gooseRunFunc = func(_ *sqlx.DB, engine, command string, args ...string) error {
		got = append([]string{engine, command}, args...)
		return nil
	}

	t.Run("memory has nothing to migrate", func(t *testing.T) {
		a, _ := setup(database.EngineMemory)
		err := run(a, "migrate", "up")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SQL database engine")
	})

	t.Run("sqlite", func(t *testing.T) {
		a, _ := setup(database.EngineSQLite)
		a.conf.Database.DSN = ":memory:"
		require.NoError(t, run(a, "migrate", "up-to", "2"))
		assert.Equal(t, []string{"sqlite", "up-to", "2"}, got)
	})

	t.Run("requires a command", func(t *testing.T) {
		a, _ := setup(database.EngineMemory)
		assert.Error(t, run(a, "migrate"))
	})
}

func Test_resetpassword(t *testing.T) {
	a, out := setup(database.EngineMemory)
	readPasswordFunc = func(int) ([]byte, error) { return []byte("Masomo@2024!"), nil }
	require.NoError(t, run(a, "adduser", "--name", "Baraka Mwalimu", "--username", "baraka", "--role", "teacher"))

	tests := []cliTest{
		{name: "unknown user", args: []string{"resetpassword", "-u", "nobody"}, password: "N3w!Passw0rd", wantErr: user.ErrNotFound},
		{name: "empty password", args: []string{"resetpassword", "-u", "baraka"}, wantErr: errEmptyPassword},
		{name: "weak password", args: []string{"resetpassword", "-u", "baraka"}, password: "baraka12", wantErrStr: "password: password must contain"},
		{name: "missing username", args: []string{"resetpassword"}, wantErrStr: `required flag(s) "username" not set`},
		{name: "valid", args: []string{"resetpassword", "-u", "BARAKA"}, password: "N3w!Passw0rd", wantOut: "password updated for user #1 BARAKA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			readPasswordFunc = func(int) ([]byte, error) { return []byte(tt.password), nil }

			err := run(a, tt.args...)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
			default:
				require.NoError(t, err)
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}

	_, err := a.usrSvc.Authenticate(context.Background(), user.LoginCredentials{Username: "baraka", Password: "N3w!Passw0rd"})
	assert.NoError(t, err)
}
