// Package attendance records daily class attendance.
package attendance

import (
	"math"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/user"
)

const Resource = "attendance"

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

type Record struct {
	ID          int         `json:"id"`
	StudentID   int         `json:"student_id"`
	StudentName string      `json:"student_name"`
	ClassGroup  string      `json:"class_group"`
	Date        string      `json:"date"` // YYYY-MM-DD
	Status      string      `json:"status"`
	MarkedBy    int         `json:"marked_by"`
	Remarks     null.String `json:"remarks"`
}

func (r Record) GetID() int { return r.ID }

type NewRecord struct {
	StudentID   int         `json:"student_id" validate:"required,gt=0"`
	StudentName string      `json:"student_name" validate:"required"`
	ClassGroup  string      `json:"class_group" validate:"required,classgroup"`
	Date        string      `json:"date" validate:"required,isodate"`
	Status      string      `json:"status" validate:"required,oneof=present absent late excused"`
	Remarks     null.String `json:"remarks"`
}

type UpdateRecord struct {
	Status  string      `json:"status,omitempty" validate:"omitempty,oneof=present absent late excused"`
	Remarks null.String `json:"remarks,omitempty"`
}

// Summary is one student's attendance over the records given to Summarize.
type Summary struct {
	StudentID   int
	StudentName string
	ClassGroup  string
	Present     int
	Absent      int
	Late        int
	Excused     int
	Total       int
	Percentage  float64 // (present + late) / total
}

// Summarize aggregates records per student, sorted by student name.
func Summarize(records []Record) []Summary {
	byStudent := make(map[int]*Summary)
	for _, r := range records {
		s, ok := byStudent[r.StudentID]
		if !ok {
			s = &Summary{StudentID: r.StudentID, StudentName: r.StudentName, ClassGroup: r.ClassGroup}
			byStudent[r.StudentID] = s
		}
		s.Total++
		switch r.Status {
		case StatusPresent:
			s.Present++
		case StatusAbsent:
			s.Absent++
		case StatusLate:
			s.Late++
		case StatusExcused:
			s.Excused++
		}
	}

	out := make([]Summary, 0, len(byStudent))
	for _, s := range byStudent {
		if s.Total > 0 {
			s.Percentage = math.Round(float64(s.Present+s.Late)/float64(s.Total)*1000) / 10
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StudentName != out[j].StudentName {
			return out[i].StudentName < out[j].StudentName
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}

func Pipeline() listview.Pipeline[Record] {
	return listview.Pipeline[Record]{
		Search: []func(Record) string{
			func(r Record) string { return r.StudentName },
			func(r Record) string { return r.ClassGroup },
			func(r Record) string { return r.Status },
		},
		Scope: func(who user.Principal, r Record) bool {
			return who.IsStaff() || (who.IsStudent() && r.StudentID == who.UserID)
		},
		Less: func(a, b Record) bool {
			if a.Date != b.Date {
				return a.Date > b.Date // latest day first
			}
			return listview.CompareStrings(a.StudentName, b.StudentName) < 0
		},
		SortKeys: map[string]func(a, b Record) int{
			"date":    func(a, b Record) int { return listview.CompareStrings(a.Date, b.Date) },
			"student": func(a, b Record) int { return listview.CompareStrings(a.StudentName, b.StudentName) },
			"status":  func(a, b Record) int { return listview.CompareStrings(a.Status, b.Status) },
		},
		GroupKey: func(r Record) string { return r.Date },
	}
}

func Policy() listview.Policy[Record] {
	return listview.Policy[Record]{
		Permit: func(who user.Principal, op listview.Op, _ *Record) bool {
			if op == listview.OpDelete {
				return who.IsAdmin()
			}
			return who.IsStaff()
		},
		Describe: func(r Record) string { return r.StudentName + " " + r.Date },
	}
}
