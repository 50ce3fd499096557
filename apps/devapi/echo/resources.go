package echoapi

import (
	"context"
	"time"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/admission"
	"github.com/trezcool/masomo-console/core/advert"
	"github.com/trezcool/masomo-console/core/attendance"
	"github.com/trezcool/masomo-console/core/event"
	"github.com/trezcool/masomo-console/core/exam"
	"github.com/trezcool/masomo-console/core/notification"
	"github.com/trezcool/masomo-console/core/onlineclass"
	"github.com/trezcool/masomo-console/core/result"
	"github.com/trezcool/masomo-console/core/sport"
	"github.com/trezcool/masomo-console/core/syllabus"
	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/storage/database"
)

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func setCreator(key string) EnrichFunc {
	return func(_ context.Context, who user.Principal, doc, _ database.Document) error {
		doc[key] = who.UserID
		return nil
	}
}

// defaultResources lists every collection served under /v1, with the fields the server owns.
func defaultResources(usrSvc *user.Service) []resourceDef {
	return []resourceDef{
		resource[notification.Notification, notification.NewNotification, notification.UpdateNotification]{
			name:   notification.Resource,
			policy: notification.Policy(),
			onCreate: func(_ context.Context, _ user.Principal, doc, _ database.Document) error {
				doc["read"] = false
				doc["created_at"] = now()
				return nil
			},
		},
		resource[onlineclass.OnlineClass, onlineclass.NewOnlineClass, onlineclass.UpdateOnlineClass]{
			name:   onlineclass.Resource,
			policy: onlineclass.Policy(),
			onCreate: func(_ context.Context, who user.Principal, doc, _ database.Document) error {
				doc["teacher_id"] = who.UserID
				doc["teacher_name"] = who.Name
				doc["status"] = onlineclass.StatusScheduled
				return nil
			},
		},
		resource[admission.PreAdmission, admission.NewPreAdmission, admission.UpdatePreAdmission]{
			name:   admission.Resource,
			policy: admission.Policy(),
			onCreate: func(_ context.Context, _ user.Principal, doc, _ database.Document) error {
				doc["status"] = admission.StatusPending
				doc["submitted_at"] = now()
				return nil
			},
			onUpdate: func(_ context.Context, _ user.Principal, doc, _ database.Document) error {
				switch doc["status"] {
				case admission.StatusApproved, admission.StatusRejected:
					doc["reviewed_at"] = now()
				}
				return nil
			},
		},
		resource[advert.Advertisement, advert.NewAdvertisement, advert.UpdateAdvertisement]{
			name:   advert.Resource,
			upload: advert.ImageField,
			policy: advert.Policy(),
			onCreate: func(ctx context.Context, who user.Principal, doc, stored database.Document) error {
				doc["published_at"] = now()
				return setCreator("created_by")(ctx, who, doc, stored)
			},
		},
		resource[event.Event, event.NewEvent, event.UpdateEvent]{
			name:     event.Resource,
			policy:   event.Policy(),
			onCreate: setCreator("created_by"),
		},
		resource[exam.Schedule, exam.NewSchedule, exam.UpdateSchedule]{
			name:   exam.Resource,
			policy: exam.Policy(),
		},
		resource[result.Result, result.NewResult, result.UpdateResult]{
			name:   result.Resource,
			policy: result.Policy(),
		},
		resource[sport.Registration, sport.NewRegistration, sport.UpdateRegistration]{
			name:     sport.Resource,
			policy:   sport.Policy(),
			onCreate: registerStudent(usrSvc),
		},
		resource[syllabus.Topic, syllabus.NewTopic, syllabus.UpdateTopic]{
			name:   syllabus.Resource,
			policy: syllabus.Policy(),
			onCreate: func(_ context.Context, who user.Principal, doc, _ database.Document) error {
				doc["teacher_id"] = who.UserID
				doc["teacher_name"] = who.Name
				doc["status"] = syllabus.StatusNotStarted
				return nil
			},
			onUpdate: func(_ context.Context, _ user.Principal, doc, _ database.Document) error {
				if doc["status"] == syllabus.StatusCompleted && doc["completed_at"] == nil {
					doc["completed_at"] = now()
				}
				return nil
			},
		},
		resource[attendance.Record, attendance.NewRecord, attendance.UpdateRecord]{
			name:     attendance.Resource,
			policy:   attendance.Policy(),
			onCreate: setCreator("marked_by"),
		},
	}
}

// registerStudent fills the student of a sports registration: the caller when a student registers,
// the student_id of the payload when staff do.
func registerStudent(usrSvc *user.Service) EnrichFunc {
	return func(ctx context.Context, who user.Principal, doc, _ database.Document) error {
		doc["status"] = sport.StatusPending
		doc["registered_at"] = now()

		if who.IsStudent() {
			doc["student_id"] = who.UserID
			doc["student_name"] = who.Name
			doc["class_group"] = who.ClassGroup
			return nil
		}

		id, _ := doc["student_id"].(float64)
		if id <= 0 {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "this field is required"})
		}
		usr, err := usrSvc.GetByID(ctx, int(id))
		if err != nil || !usr.IsStudent() {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "unknown student"})
		}
		doc["student_name"] = usr.Name
		doc["class_group"] = usr.ClassGroup
		return nil
	}
}
