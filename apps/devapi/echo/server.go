// Package echoapi is a fake school backend serving the REST contract the console consumes.
package echoapi

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/storage/database"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		UserSvc        *user.Service
		Records        database.RecordRepository
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts      *Options
		app       *echo.Echo
		jwtConfig middleware.JWTConfig
		resources map[string]resourceDef

		mediaMu sync.RWMutex
		media   map[string]mediaFile // {path: file}
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:      opts,
		app:       echo.New(),
		resources: make(map[string]resourceDef),
		media:     make(map[string]mediaFile),
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(opts.Conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(user.Claims),
		},
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.jwtConfig)

	s.registerUserAPI(v1, jwt)
	s.registerNotificationAPI(v1, jwt)
	for _, def := range defaultResources(s.opts.UserSvc) {
		s.registerResourceAPI(v1, jwt, def)
	}
	v1.GET("/media/*", s.serveMedia)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Masomo API!")
}
