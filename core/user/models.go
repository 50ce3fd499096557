package user

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/masomo-console/core"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher = "teacher:"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminOwner, RoleAdminPrincipal}
	TeacherRoles = []string{RoleTeacher}
	StudentRoles = []string{RoleStudent}
	AllRoles     = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner:     30,
		RoleAdminPrincipal: 29,
		RoleAdmin:          21,

		// Teachers: 20 - 11
		RoleTeacher: 11,

		// Students: 10 - 1
		RoleStudent: 1,
	}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Principal", Value: RoleAdminPrincipal},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, TeacherRoles...)
	all = append(all, StudentRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

// RoleName returns the display name of the highest priority role, "Guest" if none.
func RoleName(roles []string) string {
	best, name := 0, "Guest"
	for _, r := range Roles {
		for _, role := range roles {
			if role == r.Value && RolePriority(role) > best {
				best, name = RolePriority(role), r.Name
			}
		}
	}
	return name
}

func rolesStartWith(roles []string, prefix string) bool {
	for _, role := range roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is an account known to the backend.
type User struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	IsActive     bool     `json:"is_active"`
	Roles        []string `json:"roles"`
	ClassGroup   string   `json:"class_group"` // students: own class; teachers: homeroom
	PasswordHash []byte   `json:"-"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool { return rolesStartWith(u.Roles, prefix) }
func (u *User) IsAdmin() bool                     { return u.RoleStartsWith(RoleAdmin) }
func (u *User) IsTeacher() bool                   { return u.RoleStartsWith(RoleTeacher) }
func (u *User) IsStudent() bool                   { return u.RoleStartsWith(RoleStudent) }

func (u *User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Name:       u.Name,
		Username:   u.Username,
		Email:      u.Email,
		Roles:      u.Roles,
		ClassGroup: u.ClassGroup,
	}
}

// Profile is the signed-in user as served by `users/me`, shown in every screen's header.
type Profile struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
	ClassGroup string   `json:"class_group"`
}

func (p Profile) RoleName() string { return RoleName(p.Roles) }

func (p Profile) Principal() Principal {
	return Principal{
		UserID:     p.ID,
		Name:       p.Name,
		Username:   p.Username,
		Roles:      p.Roles,
		ClassGroup: p.ClassGroup,
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	ClassGroup      string   `json:"class_group" validate:"omitempty,classgroup"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.ClassGroup = strings.ToUpper(core.CleanString(nu.ClassGroup))
}

// PasswordReset replaces the password of the user matching UsernameOrEmail.
type PasswordReset struct {
	UsernameOrEmail string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	// attributes the password must not resemble, filled from the stored user
	name, uname, email string
}

// LoginCredentials is the body of `users/login`.
type LoginCredentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
