package sport

import (
	"time"

	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/user"
)

const Resource = "sports-registrations"

// Statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusWithdrawn = "withdrawn"
)

type Registration struct {
	ID           int       `json:"id"`
	StudentID    int       `json:"student_id"`
	StudentName  string    `json:"student_name"`
	ClassGroup   string    `json:"class_group"`
	Sport        string    `json:"sport"`
	Category     string    `json:"category"` // junior, senior
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (r Registration) GetID() int { return r.ID }

// NewRegistration: students register themselves, staff register on a student's behalf.
type NewRegistration struct {
	StudentID int    `json:"student_id,omitempty"`
	Sport     string `json:"sport" validate:"required"`
	Category  string `json:"category" validate:"required,oneof=junior senior"`
}

type UpdateRegistration struct {
	Category string `json:"category,omitempty" validate:"omitempty,oneof=junior senior"`
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed withdrawn"`
}

func Pipeline() listview.Pipeline[Registration] {
	return listview.Pipeline[Registration]{
		Search: []func(Registration) string{
			func(r Registration) string { return r.StudentName },
			func(r Registration) string { return r.Sport },
			func(r Registration) string { return r.ClassGroup },
		},
		Scope: func(who user.Principal, r Registration) bool {
			return who.IsStaff() || (who.IsStudent() && r.StudentID == who.UserID)
		},
		Less: func(a, b Registration) bool {
			if c := listview.CompareStrings(a.Sport, b.Sport); c != 0 {
				return c < 0
			}
			return listview.CompareStrings(a.StudentName, b.StudentName) < 0
		},
		SortKeys: map[string]func(a, b Registration) int{
			"student":       func(a, b Registration) int { return listview.CompareStrings(a.StudentName, b.StudentName) },
			"sport":         func(a, b Registration) int { return listview.CompareStrings(a.Sport, b.Sport) },
			"registered_at": func(a, b Registration) int { return a.RegisteredAt.Compare(b.RegisteredAt) },
		},
		GroupKey: func(r Registration) string { return r.Sport },
	}
}

// Policy: students may register and drop their own pending registrations,
// teachers confirm them, admins do anything. Withdrawing is final.
func Policy() listview.Policy[Registration] {
	return listview.Policy[Registration]{
		Permit: func(who user.Principal, op listview.Op, r *Registration) bool {
			switch {
			case who.IsAdmin():
				return true
			case who.IsTeacher():
				return op != listview.OpDelete
			case who.IsStudent():
				if op == listview.OpCreate {
					return true
				}
				return r != nil && r.StudentID == who.UserID && r.Status == StatusPending
			}
			return false
		},
		NeedsConfirm: func(_ *Registration, payload interface{}) bool {
			switch ur := payload.(type) {
			case UpdateRegistration:
				return ur.Status == StatusWithdrawn
			case *UpdateRegistration:
				return ur != nil && ur.Status == StatusWithdrawn
			}
			return false
		},
		Describe: func(r Registration) string { return r.StudentName + " - " + r.Sport },
	}
}
