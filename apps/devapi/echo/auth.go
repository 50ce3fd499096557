package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/user"
)

const (
	contextTokenKey = "userToken"
	defaultTokenTTL = 24 * time.Hour
)

// GenerateToken signs the claims of usr with the server secret.
func (s *server) GenerateToken(usr user.User) (string, error) {
	ttl := s.opts.Conf.Server.JWTExpirationDelta
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	claims := user.NewClaims(usr, s.opts.Conf.AppName, ttl, time.Now())
	token := jwt.NewWithClaims(jwt.GetSigningMethod(s.jwtConfig.SigningMethod), claims)

	ss, err := token.SignedString(s.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (*user.Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*user.Claims); ok {
			return claims, nil
		}
	}
	return nil, errUnauthorized
}

// principal is the caller identified by the request token.
func principal(ctx echo.Context) (user.Principal, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.Principal{}, err
	}
	return claims.Principal()
}

func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		who, err := principal(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context principal")
		}
		if who.IsAdmin() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}
