// Package exam publishes exam timetables per class group.
package exam

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/user"
)

const Resource = "exam-schedules"

var (
	endAfterStartTag  = "endafterstart"
	endAfterStartText = "end time must be after start time"
)

func init() {
	core.Validate.RegisterStructValidation(scheduleStructValidation, NewSchedule{})
	core.RegisterCustomTranslation(endAfterStartTag, endAfterStartText)
}

type Schedule struct {
	ID          int    `json:"id"`
	ExamName    string `json:"exam_name"`
	Subject     string `json:"subject"`
	ClassGroup  string `json:"class_group"`
	Date        string `json:"date"`       // YYYY-MM-DD
	StartTime   string `json:"start_time"` // HH:MM
	EndTime     string `json:"end_time"`   // HH:MM
	Room        string `json:"room"`
	Invigilator string `json:"invigilator"`
}

func (s Schedule) GetID() int { return s.ID }

type NewSchedule struct {
	ExamName    string `json:"exam_name" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	ClassGroup  string `json:"class_group" validate:"required,classgroup"`
	Date        string `json:"date" validate:"required,isodate"`
	StartTime   string `json:"start_time" validate:"required,clock"`
	EndTime     string `json:"end_time" validate:"required,clock"`
	Room        string `json:"room" validate:"required"`
	Invigilator string `json:"invigilator"`
}

type UpdateSchedule struct {
	Date        string `json:"date,omitempty" validate:"omitempty,isodate"`
	StartTime   string `json:"start_time,omitempty" validate:"omitempty,clock"`
	EndTime     string `json:"end_time,omitempty" validate:"omitempty,clock"`
	Room        string `json:"room,omitempty"`
	Invigilator string `json:"invigilator,omitempty"`
}

// scheduleStructValidation checks the sitting ends after it starts (HH:MM compares lexically).
func scheduleStructValidation(sl validator.StructLevel) {
	s, ok := sl.Current().Interface().(NewSchedule)
	if !ok || s.StartTime == "" || s.EndTime == "" {
		return
	}
	if s.EndTime <= s.StartTime {
		sl.ReportError(s.EndTime, "end_time", "EndTime", endAfterStartTag, "")
	}
}

func Pipeline() listview.Pipeline[Schedule] {
	return listview.Pipeline[Schedule]{
		Search: []func(Schedule) string{
			func(s Schedule) string { return s.ExamName },
			func(s Schedule) string { return s.Subject },
			func(s Schedule) string { return s.Room },
			func(s Schedule) string { return s.ClassGroup },
		},
		Scope: func(who user.Principal, s Schedule) bool {
			if who.IsStudent() && !who.IsStaff() {
				return s.ClassGroup == who.ClassGroup
			}
			return who.IsStaff()
		},
		Less: func(a, b Schedule) bool {
			if a.Date != b.Date {
				return a.Date < b.Date
			}
			return a.StartTime < b.StartTime
		},
		SortKeys: map[string]func(a, b Schedule) int{
			"date":    func(a, b Schedule) int { return listview.CompareStrings(a.Date+a.StartTime, b.Date+b.StartTime) },
			"subject": func(a, b Schedule) int { return listview.CompareStrings(a.Subject, b.Subject) },
			"class":   func(a, b Schedule) int { return listview.CompareStrings(a.ClassGroup, b.ClassGroup) },
		},
		GroupKey: func(s Schedule) string { return s.Date },
	}
}

func Policy() listview.Policy[Schedule] {
	return listview.Policy[Schedule]{
		Permit: func(who user.Principal, op listview.Op, _ *Schedule) bool {
			if op == listview.OpDelete {
				return who.IsAdmin()
			}
			return who.IsStaff()
		},
		Describe: func(s Schedule) string { return s.Subject + " " + s.Date },
	}
}
