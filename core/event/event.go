package event

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/user"
)

const Resource = "events"

type Event struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Venue       string      `json:"venue"`
	Category    string      `json:"category"`
	StartsAt    time.Time   `json:"starts_at"`
	EndsAt      null.Time   `json:"ends_at"`
	CreatedBy   int         `json:"created_by"`
	Link        null.String `json:"link"`
}

func (e Event) GetID() int { return e.ID }

// Month is the group key of an event, eg. "March 2024".
func (e Event) Month() string { return e.StartsAt.Format("January 2006") }

type NewEvent struct {
	Title       string      `json:"title" validate:"required,max=120"`
	Description string      `json:"description"`
	Venue       string      `json:"venue" validate:"required"`
	Category    string      `json:"category" validate:"required,oneof=academic sports cultural meeting holiday other"`
	StartsAt    time.Time   `json:"starts_at" validate:"required"`
	EndsAt      null.Time   `json:"ends_at"`
	Link        null.String `json:"link"`
}

type UpdateEvent struct {
	Title       string      `json:"title,omitempty" validate:"omitempty,max=120"`
	Description string      `json:"description,omitempty"`
	Venue       string      `json:"venue,omitempty"`
	Category    string      `json:"category,omitempty" validate:"omitempty,oneof=academic sports cultural meeting holiday other"`
	StartsAt    *time.Time  `json:"starts_at,omitempty"`
	EndsAt      null.Time   `json:"ends_at,omitempty"`
	Link        null.String `json:"link,omitempty"`
}

func Pipeline() listview.Pipeline[Event] {
	return listview.Pipeline[Event]{
		Search: []func(Event) string{
			func(e Event) string { return e.Title },
			func(e Event) string { return e.Venue },
			func(e Event) string { return e.Category },
		},
		Less: func(a, b Event) bool { return a.StartsAt.Before(b.StartsAt) },
		SortKeys: map[string]func(a, b Event) int{
			"starts_at": func(a, b Event) int { return a.StartsAt.Compare(b.StartsAt) },
			"title":     func(a, b Event) int { return listview.CompareStrings(a.Title, b.Title) },
			"category":  func(a, b Event) int { return listview.CompareStrings(a.Category, b.Category) },
		},
		GroupKey: Event.Month,
	}
}

func Policy() listview.Policy[Event] {
	return listview.Policy[Event]{
		Permit: func(who user.Principal, op listview.Op, e *Event) bool {
			switch {
			case who.IsAdmin():
				return true
			case who.IsTeacher():
				return op == listview.OpCreate || (e != nil && e.CreatedBy == who.UserID)
			}
			return false
		},
		Describe: func(e Event) string { return e.Title },
	}
}
