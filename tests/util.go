package testutil

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	echoapi "github.com/trezcool/masomo-console/apps/devapi/echo"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/storage/database"
	inmemdb "github.com/trezcool/masomo-console/storage/database/inmem"
)

const Password = "Masomo@2024!"

func CreateUser(t *testing.T, repo user.Repository, name, uname, email, pwd string, roles []string, classGroup string) user.User {
	usr := user.User{
		Name:       name,
		Username:   uname,
		Email:      email,
		Roles:      roles,
		ClassGroup: classGroup,
		IsActive:   true,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// DevAPI is a seeded in-memory backend served over HTTP.
type DevAPI struct {
	URL     string // base url, ending in /v1
	Users   map[string]user.User
	Records database.RecordRepository
	Server  *httptest.Server
}

// StartDevAPI serves a freshly seeded backend until the test ends. Every seeded user's password is Password.
func StartDevAPI(t *testing.T) *DevAPI {
	t.Helper()

	conf := &core.Config{AppName: "Masomo", SecretKey: "secret", TestMode: true}
	conf.Server.JWTExpirationDelta = time.Hour

	db := inmemdb.Open()
	records := inmemdb.NewRecordRepository(db)
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))

	srv := echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		UserSvc:        usrSvc,
		Records:        records,
		DisableReqLogs: true,
	})
	users, err := echoapi.Seed(context.Background(), usrSvc, records, Password)
	if err != nil {
		t.Fatalf("seeding devapi failed: %v", err)
	}

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	api := &DevAPI{URL: ts.URL + "/v1", Users: make(map[string]user.User), Records: records, Server: ts}
	for _, usr := range users {
		api.Users[usr.Username] = usr
	}
	return api
}
