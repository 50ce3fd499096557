// Package admission reviews pre-admission applications. Only admins see or act on them.
package admission

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/user"
)

const Resource = "pre-admissions"

// Statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var statusOrder = map[string]int{StatusPending: 0, StatusApproved: 1, StatusRejected: 2}

type PreAdmission struct {
	ID             int         `json:"id"`
	ApplicantName  string      `json:"applicant_name"`
	DateOfBirth    string      `json:"date_of_birth"`
	GuardianName   string      `json:"guardian_name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone"`
	GradeApplied   string      `json:"grade_applied"`
	PreviousSchool null.String `json:"previous_school"`
	Status         string      `json:"status"`
	SubmittedAt    time.Time   `json:"submitted_at"`
	ReviewedAt     null.Time   `json:"reviewed_at"`
	ReviewNotes    null.String `json:"review_notes"`
}

func (a PreAdmission) GetID() int { return a.ID }

func (a PreAdmission) Decided() bool { return a.Status == StatusApproved || a.Status == StatusRejected }

type NewPreAdmission struct {
	ApplicantName  string      `json:"applicant_name" validate:"required"`
	DateOfBirth    string      `json:"date_of_birth" validate:"required,isodate"`
	GuardianName   string      `json:"guardian_name" validate:"required"`
	Email          string      `json:"email" validate:"required,email"`
	Phone          string      `json:"phone" validate:"required,min=7,max=20"`
	GradeApplied   string      `json:"grade_applied" validate:"required"`
	PreviousSchool null.String `json:"previous_school"`
}

type UpdatePreAdmission struct {
	GuardianName string      `json:"guardian_name,omitempty"`
	Email        string      `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string      `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	GradeApplied string      `json:"grade_applied,omitempty"`
	Status       string      `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected"`
	ReviewNotes  null.String `json:"review_notes,omitempty"`
}

// Review builds the payload approving or rejecting an application.
func Review(approve bool, notes string) UpdatePreAdmission {
	status := StatusRejected
	if approve {
		status = StatusApproved
	}
	return UpdatePreAdmission{Status: status, ReviewNotes: null.NewString(notes, notes != "")}
}

func Pipeline() listview.Pipeline[PreAdmission] {
	return listview.Pipeline[PreAdmission]{
		Search: []func(PreAdmission) string{
			func(a PreAdmission) string { return a.ApplicantName },
			func(a PreAdmission) string { return a.GuardianName },
			func(a PreAdmission) string { return a.Email },
			func(a PreAdmission) string { return a.GradeApplied },
		},
		Scope: func(who user.Principal, _ PreAdmission) bool { return who.IsAdmin() },
		Less: func(a, b PreAdmission) bool {
			if statusOrder[a.Status] != statusOrder[b.Status] {
				return statusOrder[a.Status] < statusOrder[b.Status]
			}
			return a.SubmittedAt.After(b.SubmittedAt)
		},
		SortKeys: map[string]func(a, b PreAdmission) int{
			"submitted_at":   func(a, b PreAdmission) int { return a.SubmittedAt.Compare(b.SubmittedAt) },
			"applicant_name": func(a, b PreAdmission) int { return listview.CompareStrings(a.ApplicantName, b.ApplicantName) },
			"grade_applied":  func(a, b PreAdmission) int { return listview.CompareStrings(a.GradeApplied, b.GradeApplied) },
		},
		GroupKey: func(a PreAdmission) string { return a.Status },
	}
}

func Policy() listview.Policy[PreAdmission] {
	return listview.Policy[PreAdmission]{
		Permit: func(who user.Principal, op listview.Op, a *PreAdmission) bool {
			if !who.IsAdmin() {
				return false
			}
			// decided applications are frozen
			return op == listview.OpCreate || a == nil || !a.Decided() || op == listview.OpDelete
		},
		NeedsConfirm: func(_ *PreAdmission, payload interface{}) bool {
			var status string
			switch ua := payload.(type) {
			case UpdatePreAdmission:
				status = ua.Status
			case *UpdatePreAdmission:
				if ua != nil {
					status = ua.Status
				}
			}
			return status == StatusApproved || status == StatusRejected
		},
		Describe: func(a PreAdmission) string { return a.ApplicantName },
	}
}
