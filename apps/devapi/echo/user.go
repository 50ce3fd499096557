package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
)

type LoginResponse struct {
	Token string `json:"token"`
}

func (s *server) registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", s.login)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.GET("/me", s.me)
	ag.GET("", s.queryUsers, adminMiddleware)
	ag.POST("", s.createUser, adminMiddleware)
}

// Handlers

func (s *server) login(ctx echo.Context) error {
	var data user.LoginCredentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginCredentials")
	}
	if err := core.ValidateStruct(data); err != nil {
		return err
	}

	usr, err := s.opts.UserSvc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := s.GenerateToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (s *server) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	id, err := claims.UserID()
	if err != nil {
		return errUnauthorized
	}
	usr, err := s.opts.UserSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr.Profile())
}

func (s *server) queryUsers(ctx echo.Context) error {
	users, err := s.opts.UserSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	profiles := make([]user.Profile, 0, len(users))
	for _, usr := range users {
		profiles = append(profiles, usr.Profile())
	}
	return ctx.JSON(http.StatusOK, profiles)
}

func (s *server) createUser(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	usr, err := s.opts.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr.Profile())
}
