package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-console/core/user"
)

const userColumns = "id, name, username, email, is_active, roles, class_group, password_hash"

type userRow struct {
	ID           int         `db:"id"`
	Name         string      `db:"name"`
	Username     null.String `db:"username"`
	Email        null.String `db:"email"`
	IsActive     bool        `db:"is_active"`
	Roles        string      `db:"roles"`
	ClassGroup   string      `db:"class_group"`
	PasswordHash []byte      `db:"password_hash"`
}

func (row userRow) toUser() user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username.String,
		Email:        row.Email.String,
		IsActive:     row.IsActive,
		ClassGroup:   row.ClassGroup,
		PasswordHash: row.PasswordHash,
		Roles:        []string{},
	}
	if row.Roles != "" {
		usr.Roles = strings.Split(row.Roles, ",")
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := repo.db.Rebind(`INSERT INTO users (name, username, email, is_active, roles, class_group, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := repo.db.QueryRowxContext(ctx, q,
		usr.Name,
		null.NewString(usr.Username, usr.Username != ""),
		null.NewString(usr.Email, usr.Email != ""),
		usr.IsActive,
		strings.Join(usr.Roles, ","),
		usr.ClassGroup,
		usr.PasswordHash,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	rows := make([]userRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+userColumns+" FROM users ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) getUser(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	var row userRow
	q := repo.db.Rebind("SELECT " + userColumns + " FROM users WHERE " + where + " LIMIT 1")
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getUser(ctx, "id = ?", id)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	if uname == "" {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, "username = ? OR email = ?", uname, uname)
}

func (repo *userRepository) UpdatePassword(ctx context.Context, id int, hash []byte) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("UPDATE users SET password_hash = ? WHERE id = ?"), hash, id)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}
