// Package result holds students' term results and turns them into report cards.
package result

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/user"
)

const Resource = "results"

type SubjectMark struct {
	Subject  string  `json:"subject" validate:"required"`
	Score    float64 `json:"score" validate:"gte=0,ltefield=MaxScore"`
	MaxScore float64 `json:"max_score" validate:"gt=0"`
}

type Result struct {
	ID          int           `json:"id"`
	StudentID   int           `json:"student_id"`
	StudentName string        `json:"student_name"`
	ClassGroup  string        `json:"class_group"`
	Term        string        `json:"term"`
	Subjects    []SubjectMark `json:"subjects"`
	Remarks     null.String   `json:"remarks"`
	PublishedAt null.Time     `json:"published_at"`
}

func (r Result) GetID() int { return r.ID }

type NewResult struct {
	StudentID   int           `json:"student_id" validate:"required,gt=0"`
	StudentName string        `json:"student_name" validate:"required"`
	ClassGroup  string        `json:"class_group" validate:"required,classgroup"`
	Term        string        `json:"term" validate:"required"`
	Subjects    []SubjectMark `json:"subjects" validate:"required,min=1,dive"`
	Remarks     null.String   `json:"remarks"`
}

type UpdateResult struct {
	Subjects    []SubjectMark `json:"subjects,omitempty" validate:"omitempty,dive"`
	Remarks     null.String   `json:"remarks,omitempty"`
	PublishedAt null.Time     `json:"published_at,omitempty"`
}

func Pipeline() listview.Pipeline[Result] {
	return listview.Pipeline[Result]{
		Search: []func(Result) string{
			func(r Result) string { return r.StudentName },
			func(r Result) string { return r.ClassGroup },
			func(r Result) string { return r.Term },
		},
		Scope: func(who user.Principal, r Result) bool {
			if who.IsStaff() {
				return true
			}
			return who.IsStudent() && r.StudentID == who.UserID
		},
		Less: func(a, b Result) bool {
			if c := listview.CompareStrings(a.StudentName, b.StudentName); c != 0 {
				return c < 0
			}
			return a.Term < b.Term
		},
		SortKeys: map[string]func(a, b Result) int{
			"student": func(a, b Result) int { return listview.CompareStrings(a.StudentName, b.StudentName) },
			"term":    func(a, b Result) int { return listview.CompareStrings(a.Term, b.Term) },
			"percentage": func(a, b Result) int {
				pa, pb := BuildReportCard(a).Percentage, BuildReportCard(b).Percentage
				switch {
				case pa < pb:
					return -1
				case pa > pb:
					return 1
				}
				return 0
			},
		},
		GroupKey: func(r Result) string { return r.ClassGroup },
	}
}

// Policy: teachers record and amend results, only admins delete them.
// Publishing makes results visible to students and cannot be undone.
func Policy() listview.Policy[Result] {
	return listview.Policy[Result]{
		Permit: func(who user.Principal, op listview.Op, _ *Result) bool {
			switch {
			case who.IsAdmin():
				return true
			case who.IsTeacher():
				return op != listview.OpDelete
			}
			return false
		},
		NeedsConfirm: func(r *Result, payload interface{}) bool {
			var published null.Time
			switch ur := payload.(type) {
			case UpdateResult:
				published = ur.PublishedAt
			case *UpdateResult:
				if ur != nil {
					published = ur.PublishedAt
				}
			}
			return published.Valid && (r == nil || !r.PublishedAt.Valid)
		},
		Describe: func(r Result) string { return r.StudentName + ", " + r.Term },
	}
}
