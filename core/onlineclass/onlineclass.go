// Package onlineclass schedules the live lessons teachers run for a class group.
package onlineclass

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/user"
)

const Resource = "online-classes"

// Statuses
const (
	StatusScheduled = "scheduled"
	StatusLive      = "live"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type OnlineClass struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Subject     string      `json:"subject"`
	ClassGroup  string      `json:"class_group"`
	TeacherID   int         `json:"teacher_id"`
	TeacherName string      `json:"teacher_name"`
	StartsAt    time.Time   `json:"starts_at"`
	Duration    int         `json:"duration_minutes"`
	MeetingURL  string      `json:"meeting_url"`
	Status      string      `json:"status"`
	Notes       null.String `json:"notes"`
}

func (c OnlineClass) GetID() int { return c.ID }

func (c OnlineClass) EndsAt() time.Time {
	return c.StartsAt.Add(time.Duration(c.Duration) * time.Minute)
}

type NewOnlineClass struct {
	Title      string      `json:"title" validate:"required,max=120"`
	Subject    string      `json:"subject" validate:"required"`
	ClassGroup string      `json:"class_group" validate:"required,classgroup"`
	StartsAt   time.Time   `json:"starts_at" validate:"required"`
	Duration   int         `json:"duration_minutes" validate:"required,min=5,max=480"`
	MeetingURL string      `json:"meeting_url" validate:"required,url"`
	Notes      null.String `json:"notes"`
}

type UpdateOnlineClass struct {
	Title      string      `json:"title,omitempty" validate:"omitempty,max=120"`
	Subject    string      `json:"subject,omitempty"`
	ClassGroup string      `json:"class_group,omitempty" validate:"omitempty,classgroup"`
	StartsAt   *time.Time  `json:"starts_at,omitempty"`
	Duration   int         `json:"duration_minutes,omitempty" validate:"omitempty,min=5,max=480"`
	MeetingURL string      `json:"meeting_url,omitempty" validate:"omitempty,url"`
	Status     string      `json:"status,omitempty" validate:"omitempty,oneof=scheduled live completed cancelled"`
	Notes      null.String `json:"notes,omitempty"`
}

func Pipeline() listview.Pipeline[OnlineClass] {
	return listview.Pipeline[OnlineClass]{
		Search: []func(OnlineClass) string{
			func(c OnlineClass) string { return c.Title },
			func(c OnlineClass) string { return c.Subject },
			func(c OnlineClass) string { return c.TeacherName },
			func(c OnlineClass) string { return c.ClassGroup },
		},
		Scope: func(who user.Principal, c OnlineClass) bool {
			switch {
			case who.IsAdmin():
				return true
			case who.IsTeacher():
				return c.TeacherID == who.UserID
			case who.IsStudent():
				return c.ClassGroup == who.ClassGroup && c.Status != StatusCancelled
			}
			return false
		},
		Less: func(a, b OnlineClass) bool { return a.StartsAt.Before(b.StartsAt) },
		SortKeys: map[string]func(a, b OnlineClass) int{
			"starts_at": func(a, b OnlineClass) int { return a.StartsAt.Compare(b.StartsAt) },
			"title":     func(a, b OnlineClass) int { return listview.CompareStrings(a.Title, b.Title) },
			"subject":   func(a, b OnlineClass) int { return listview.CompareStrings(a.Subject, b.Subject) },
		},
		GroupKey: func(c OnlineClass) string { return c.StartsAt.Format(core.IsoDateLayout) },
	}
}

// Policy lets admins manage every class and teachers manage their own.
// Cancelling a class cannot be undone.
func Policy() listview.Policy[OnlineClass] {
	return listview.Policy[OnlineClass]{
		Permit: func(who user.Principal, op listview.Op, c *OnlineClass) bool {
			switch {
			case who.IsAdmin():
				return true
			case who.IsTeacher():
				return op == listview.OpCreate || (c != nil && c.TeacherID == who.UserID)
			}
			return false
		},
		NeedsConfirm: func(_ *OnlineClass, payload interface{}) bool {
			switch uc := payload.(type) {
			case UpdateOnlineClass:
				return uc.Status == StatusCancelled
			case *UpdateOnlineClass:
				return uc != nil && uc.Status == StatusCancelled
			}
			return false
		},
		Describe: func(c OnlineClass) string { return c.Title },
	}
}
