package notification

import (
	"strings"
	"time"

	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/user"
)

const Resource = "notifications"

// Audiences
const (
	AudienceAll      = "all"
	AudienceStudents = "students"
	AudienceTeachers = "teachers"
	AudienceAdmins   = "admins"
)

type Notification struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Audience  string    `json:"audience"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func (n Notification) GetID() int { return n.ID }

type NewNotification struct {
	Title    string `json:"title" validate:"required,max=120"`
	Body     string `json:"body" validate:"required"`
	Audience string `json:"audience" validate:"required,oneof=all students teachers admins"`
}

type UpdateNotification struct {
	Read *bool `json:"read,omitempty"`
}

// Visible reports whether a notification targets who.
func Visible(who user.Principal, n Notification) bool {
	switch strings.ToLower(n.Audience) {
	case AudienceAll, "":
		return true
	case AudienceStudents:
		return who.IsStudent() || who.IsAdmin()
	case AudienceTeachers:
		return who.IsTeacher() || who.IsAdmin()
	case AudienceAdmins:
		return who.IsAdmin()
	}
	return false
}

func Pipeline() listview.Pipeline[Notification] {
	return listview.Pipeline[Notification]{
		Search: []func(Notification) string{
			func(n Notification) string { return n.Title },
			func(n Notification) string { return n.Body },
		},
		Scope: Visible,
		Less:  func(a, b Notification) bool { return a.CreatedAt.After(b.CreatedAt) },
		SortKeys: map[string]func(a, b Notification) int{
			"created_at": func(a, b Notification) int { return a.CreatedAt.Compare(b.CreatedAt) },
			"title":      func(a, b Notification) int { return listview.CompareStrings(a.Title, b.Title) },
		},
		GroupKey: func(n Notification) string {
			if n.Read {
				return "read"
			}
			return "unread"
		},
	}
}

func Policy() listview.Policy[Notification] {
	return listview.Policy[Notification]{
		Permit: func(who user.Principal, op listview.Op, _ *Notification) bool {
			if op == listview.OpUpdate {
				return !who.IsAnonymous() // marking as read
			}
			return who.IsAdmin()
		},
		Describe: func(n Notification) string { return n.Title },
	}
}
