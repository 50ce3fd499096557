package user

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// Principal is the acting user as seen by role checks and scope predicates.
// The zero value is an anonymous principal without any role.
type Principal struct {
	UserID     int
	Name       string
	Username   string
	Roles      []string
	ClassGroup string
}

func (p Principal) IsAnonymous() bool { return p.UserID == 0 && len(p.Roles) == 0 }
func (p Principal) IsAdmin() bool     { return rolesStartWith(p.Roles, RoleAdmin) }
func (p Principal) IsTeacher() bool   { return rolesStartWith(p.Roles, RoleTeacher) }
func (p Principal) IsStudent() bool   { return rolesStartWith(p.Roles, RoleStudent) }

// IsStaff reports whether p is an admin or a teacher.
func (p Principal) IsStaff() bool { return p.IsAdmin() || p.IsTeacher() }

// HasAnyRole reports whether p has one of the roles (or a role under one of the prefixes).
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if rolesStartWith(p.Roles, role) {
			return true
		}
	}
	return false
}

// Claims are the JWT claims issued by `users/login`.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Name         string   `json:"name,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	ClassGroup   string   `json:"class_group,omitempty"`
	IsStudent    bool     `json:"is_student"`
	IsTeacher    bool     `json:"is_teacher"`
	IsAdmin      bool     `json:"is_admin"`
	Roles        []string `json:"roles,omitempty"`
}

func NewClaims(usr User, issuer string, ttl time.Duration, now time.Time) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.Itoa(usr.ID),
			Issuer:    issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		OrigIssuedAt: now.Unix(),
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		ClassGroup:   usr.ClassGroup,
		IsStudent:    usr.IsStudent(),
		IsTeacher:    usr.IsTeacher(),
		IsAdmin:      usr.IsAdmin(),
		Roles:        usr.Roles,
	}
}

func (c *Claims) UserID() (int, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil {
		return 0, errors.Wrap(err, "parsing token subject")
	}
	return id, nil
}

func (c *Claims) Principal() (Principal, error) {
	id, err := c.UserID()
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		UserID:     id,
		Name:       c.Name,
		Username:   c.Username,
		Roles:      c.Roles,
		ClassGroup: c.ClassGroup,
	}, nil
}

// PrincipalFromToken reads the principal out of a bearer token without verifying its signature:
// the backend is the one enforcing it, the console only uses it to pre-scope what it shows.
func PrincipalFromToken(token string) (Principal, error) {
	claims := new(Claims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return Principal{}, errors.Wrap(err, "parsing token")
	}
	return claims.Principal()
}
