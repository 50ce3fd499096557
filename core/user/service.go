package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, user User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		// GetUserByUsernameOrEmail matches uname against both the username and the email.
		GetUserByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		UpdatePassword(ctx context.Context, id int, hash []byte) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string) error {
	for fld, val := range map[string]string{"username": uname, "email": email} {
		if val == "" {
			continue
		}
		_, err := svc.repo.GetUserByUsernameOrEmail(ctx, val)
		switch errors.Cause(err) {
		case ErrNotFound:
			continue
		case nil:
			dupErr := ErrUsernameExists
			if fld == "email" {
				dupErr = ErrEmailExists
			}
			return core.NewValidationError(dupErr, core.FieldError{Field: fld, Error: dupErr.Error()})
		default:
			return err
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := core.ValidateStruct(nu); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}

	usr := User{
		Name:       nu.Name,
		Username:   nu.Username,
		Email:      nu.Email,
		IsActive:   true,
		Roles:      nu.Roles,
		ClassGroup: nu.ClassGroup,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

// Authenticate returns the active user matching the credentials, ErrInvalidCredentials otherwise.
func (svc *Service) Authenticate(ctx context.Context, creds LoginCredentials) (User, error) {
	usr, err := svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(creds.Username, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !usr.IsActive || usr.CheckPassword(creds.Password) != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

// ResetPassword sets a new password, checked against the password policy and the user's attributes.
func (svc *Service) ResetPassword(ctx context.Context, pr PasswordReset) (User, error) {
	usr, err := svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(pr.UsernameOrEmail, true /* lower */))
	if err != nil {
		return User{}, err
	}

	pr.name, pr.uname, pr.email = usr.Name, usr.Username, usr.Email
	if err = core.ValidateStruct(pr); err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pr.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	if err = svc.repo.UpdatePassword(ctx, usr.ID, usr.PasswordHash); err != nil {
		return User{}, err
	}
	return usr, nil
}
