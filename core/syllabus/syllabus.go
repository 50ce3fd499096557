// Package syllabus tracks how far each class is through its topics.
package syllabus

import (
	"math"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/user"
)

const Resource = "syllabus"

// Statuses
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Topic struct {
	ID          int       `json:"id"`
	Subject     string    `json:"subject"`
	ClassGroup  string    `json:"class_group"`
	Term        string    `json:"term"`
	Position    int       `json:"position"`
	Title       string    `json:"title"`
	TeacherID   int       `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	Status      string    `json:"status"`
	CompletedAt null.Time `json:"completed_at"`
}

func (t Topic) GetID() int { return t.ID }

type NewTopic struct {
	Subject    string `json:"subject" validate:"required"`
	ClassGroup string `json:"class_group" validate:"required,classgroup"`
	Term       string `json:"term" validate:"required"`
	Position   int    `json:"position" validate:"gte=0"`
	Title      string `json:"title" validate:"required"`
}

type UpdateTopic struct {
	Title       string    `json:"title,omitempty"`
	Position    int       `json:"position,omitempty" validate:"gte=0"`
	Status      string    `json:"status,omitempty" validate:"omitempty,oneof=not_started in_progress completed"`
	CompletedAt null.Time `json:"completed_at,omitempty"`
}

// Progress is the completion of one subject for one class group.
type Progress struct {
	Subject    string
	ClassGroup string
	Total      int
	Completed  int
	InProgress int
	Percent    float64
}

// Summarize computes the progress per subject and class group, sorted by subject then class.
func Summarize(topics []Topic) []Progress {
	type key struct{ subject, class string }
	byKey := make(map[key]*Progress)
	for _, t := range topics {
		k := key{t.Subject, t.ClassGroup}
		p, ok := byKey[k]
		if !ok {
			p = &Progress{Subject: t.Subject, ClassGroup: t.ClassGroup}
			byKey[k] = p
		}
		p.Total++
		switch t.Status {
		case StatusCompleted:
			p.Completed++
		case StatusInProgress:
			p.InProgress++
		}
	}

	out := make([]Progress, 0, len(byKey))
	for _, p := range byKey {
		p.Percent = math.Round(float64(p.Completed)/float64(p.Total)*1000) / 10
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].ClassGroup < out[j].ClassGroup
	})
	return out
}

func Pipeline() listview.Pipeline[Topic] {
	return listview.Pipeline[Topic]{
		Search: []func(Topic) string{
			func(t Topic) string { return t.Title },
			func(t Topic) string { return t.Subject },
			func(t Topic) string { return t.ClassGroup },
		},
		Scope: func(who user.Principal, t Topic) bool {
			switch {
			case who.IsAdmin():
				return true
			case who.IsTeacher():
				return t.TeacherID == who.UserID
			case who.IsStudent():
				return t.ClassGroup == who.ClassGroup
			}
			return false
		},
		Less: func(a, b Topic) bool {
			if a.Subject != b.Subject {
				return a.Subject < b.Subject
			}
			return a.Position < b.Position
		},
		SortKeys: map[string]func(a, b Topic) int{
			"subject":  func(a, b Topic) int { return listview.CompareStrings(a.Subject, b.Subject) },
			"position": func(a, b Topic) int { return listview.CompareInts(a.Position, b.Position) },
			"status":   func(a, b Topic) int { return listview.CompareStrings(a.Status, b.Status) },
		},
		GroupKey: func(t Topic) string { return t.Subject },
	}
}

func Policy() listview.Policy[Topic] {
	return listview.Policy[Topic]{
		Permit: func(who user.Principal, op listview.Op, t *Topic) bool {
			switch {
			case who.IsAdmin():
				return true
			case who.IsTeacher():
				return op == listview.OpCreate || (t != nil && t.TeacherID == who.UserID)
			}
			return false
		},
		Describe: func(t Topic) string { return t.Subject + ": " + t.Title },
	}
}
