// Package advert manages the school notice board: adverts aimed at an audience, with an optional image.
package advert

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/user"
)

const (
	Resource   = "advertisements"
	ImageField = "image"
)

// Audiences
const (
	AudienceAll      = "all"
	AudienceStudents = "students"
	AudienceTeachers = "teachers"
)

type Advertisement struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Audience    string      `json:"audience"`
	ImageURL    null.String `json:"image_url"`
	PublishedAt time.Time   `json:"published_at"`
	ExpiresAt   null.Time   `json:"expires_at"`
	CreatedBy   int         `json:"created_by"`
}

func (a Advertisement) GetID() int { return a.ID }

// Active reports whether the advert is still running at `at`.
func (a Advertisement) Active(at time.Time) bool {
	return !a.ExpiresAt.Valid || at.Before(a.ExpiresAt.Time)
}

type NewAdvertisement struct {
	Title     string    `json:"title" validate:"required,max=120"`
	Body      string    `json:"body" validate:"required"`
	Audience  string    `json:"audience" validate:"required,oneof=all students teachers"`
	ExpiresAt null.Time `json:"expires_at"`
}

type UpdateAdvertisement struct {
	Title     string    `json:"title,omitempty" validate:"omitempty,max=120"`
	Body      string    `json:"body,omitempty"`
	Audience  string    `json:"audience,omitempty" validate:"omitempty,oneof=all students teachers"`
	ExpiresAt null.Time `json:"expires_at,omitempty"`
}

func Visible(who user.Principal, a Advertisement) bool {
	switch a.Audience {
	case AudienceAll:
		return true
	case AudienceStudents:
		return who.IsStudent() || who.IsAdmin()
	case AudienceTeachers:
		return who.IsTeacher() || who.IsAdmin()
	}
	return who.IsAdmin()
}

func Pipeline() listview.Pipeline[Advertisement] {
	return listview.Pipeline[Advertisement]{
		Search: []func(Advertisement) string{
			func(a Advertisement) string { return a.Title },
			func(a Advertisement) string { return a.Body },
		},
		Scope: Visible,
		Less:  func(a, b Advertisement) bool { return a.PublishedAt.After(b.PublishedAt) },
		SortKeys: map[string]func(a, b Advertisement) int{
			"published_at": func(a, b Advertisement) int { return a.PublishedAt.Compare(b.PublishedAt) },
			"title":        func(a, b Advertisement) int { return listview.CompareStrings(a.Title, b.Title) },
		},
		GroupKey: func(a Advertisement) string { return a.Audience },
	}
}

func Policy() listview.Policy[Advertisement] {
	return listview.Policy[Advertisement]{
		Permit: func(who user.Principal, _ listview.Op, _ *Advertisement) bool {
			return who.IsAdmin()
		},
		Describe: func(a Advertisement) string { return a.Title },
	}
}
