package echoapi

import (
	"context"
	"time"

	"github.com/pkg/errors"

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

// Demo accounts created by Seed.
var SeedUsers = []user.NewUser{
	{Name: "Neema Admin", Username: "admin", Email: "admin@masomo.test", Roles: []string{user.RoleAdminOwner}},
	{Name: "Baraka Mwalimu", Username: "teacher", Email: "teacher@masomo.test", Roles: []string{user.RoleTeacher}, ClassGroup: "7A"},
	{Name: "Amani Juma", Username: "student", Email: "student@masomo.test", Roles: []string{user.RoleStudent}, ClassGroup: "7A"},
	{Name: "Zawadi Ali", Username: "student2", Email: "student2@masomo.test", Roles: []string{user.RoleStudent}, ClassGroup: "8B"},
}

// Seed creates the demo accounts with password pwd, then sample records for every resource.
// Users or records already present are left alone.
func Seed(ctx context.Context, usrSvc *user.Service, records database.RecordRepository, pwd string) ([]user.User, error) {
	users, err := usrSvc.QueryAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	if len(users) == 0 {
		for _, nu := range SeedUsers {
			nu.Password, nu.PasswordConfirm = pwd, pwd
			usr, err := usrSvc.Create(ctx, nu)
			if err != nil {
				return nil, errors.Wrapf(err, "creating %s", nu.Username)
			}
			users = append(users, usr)
		}
	}

	existing, err := records.ListRecords(ctx, exam.Resource)
	if err != nil {
		return nil, errors.Wrap(err, "listing exam schedules")
	}
	if len(existing) > 0 {
		return users, nil
	}

	byName := make(map[string]user.User, len(users))
	for _, usr := range users {
		byName[usr.Username] = usr
	}
	for resource, docs := range sampleRecords(byName, time.Now().UTC()) {
		for _, doc := range docs {
			if _, err = records.CreateRecord(ctx, resource, doc); err != nil {
				return nil, errors.Wrapf(err, "seeding %s", resource)
			}
		}
	}
	return users, nil
}

func sampleRecords(users map[string]user.User, at time.Time) map[string][]database.Document {
	teacher, student, student2 := users["teacher"], users["student"], users["student2"]
	day := func(d int) string { return at.AddDate(0, 0, d).Format("2006-01-02") }
	ts := func(d, h int) string {
		return time.Date(at.Year(), at.Month(), at.Day()+d, h, 0, 0, 0, time.UTC).Format(time.RFC3339)
	}

	return map[string][]database.Document{
		notification.Resource: {
			{"title": "Term dates", "body": "Term 2 opens on Monday.", "audience": notification.AudienceAll, "read": false, "created_at": ts(-2, 8)},
			{"title": "Staff meeting", "body": "Friday 3pm in the library.", "audience": notification.AudienceTeachers, "read": false, "created_at": ts(-1, 9)},
			{"title": "Fees reminder", "body": "Fees are due by the 15th.", "audience": notification.AudienceStudents, "read": true, "created_at": ts(-3, 10)},
		},
		onlineclass.Resource: {
			{"title": "Fractions", "subject": "Mathematics", "class_group": "7A", "teacher_id": teacher.ID, "teacher_name": teacher.Name,
				"starts_at": ts(1, 9), "duration_minutes": 40, "meeting_url": "https://meet.masomo.test/7a-math", "status": onlineclass.StatusScheduled},
			{"title": "Photosynthesis", "subject": "Biology", "class_group": "8B", "teacher_id": teacher.ID, "teacher_name": teacher.Name,
				"starts_at": ts(2, 11), "duration_minutes": 60, "meeting_url": "https://meet.masomo.test/8b-bio", "status": onlineclass.StatusScheduled},
		},
		admission.Resource: {
			{"applicant_name": "Imani Kweli", "date_of_birth": "2013-04-12", "guardian_name": "Rehema Kweli", "email": "rehema@example.com",
				"phone": "+255700000001", "grade_applied": "Grade 7", "status": admission.StatusPending, "submitted_at": ts(-5, 10)},
			{"applicant_name": "Tumaini Hassan", "date_of_birth": "2012-09-30", "guardian_name": "Said Hassan", "email": "said@example.com",
				"phone": "+255700000002", "grade_applied": "Grade 8", "status": admission.StatusApproved, "submitted_at": ts(-9, 14), "reviewed_at": ts(-4, 9)},
		},
		advert.Resource: {
			{"title": "Science fair", "body": "Submit your projects by Friday.", "audience": advert.AudienceStudents, "published_at": ts(-1, 7)},
			{"title": "Workshop", "body": "Digital literacy workshop for staff.", "audience": advert.AudienceTeachers, "published_at": ts(-2, 7)},
		},
		event.Resource: {
			{"title": "Sports day", "description": "Inter-house athletics.", "venue": "Main field", "category": "sports", "starts_at": ts(10, 8)},
			{"title": "Parents meeting", "description": "Term review.", "venue": "Hall", "category": "meeting", "starts_at": ts(40, 14)},
		},
		exam.Resource: {
			{"exam_name": "Midterm", "subject": "Mathematics", "class_group": "7A", "date": day(7), "start_time": "09:00", "end_time": "11:00", "room": "B2", "invigilator": teacher.Name},
			{"exam_name": "Midterm", "subject": "English", "class_group": "7A", "date": day(6), "start_time": "09:00", "end_time": "10:30", "room": "B2", "invigilator": teacher.Name},
			{"exam_name": "Midterm", "subject": "Biology", "class_group": "8B", "date": day(7), "start_time": "13:00", "end_time": "15:00", "room": "Lab 1", "invigilator": teacher.Name},
		},
		result.Resource: {
			{"student_id": student.ID, "student_name": student.Name, "class_group": "7A", "term": "Term 1", "remarks": "Good progress.", "published_at": ts(-20, 12),
				"subjects": []map[string]interface{}{
					{"subject": "Mathematics", "score": 78, "max_score": 100},
					{"subject": "English", "score": 85, "max_score": 100},
					{"subject": "Biology", "score": 62, "max_score": 100},
				}},
			{"student_id": student2.ID, "student_name": student2.Name, "class_group": "8B", "term": "Term 1",
				"subjects": []map[string]interface{}{
					{"subject": "Mathematics", "score": 91, "max_score": 100},
					{"subject": "English", "score": 47, "max_score": 100},
				}},
		},
		sport.Resource: {
			{"student_id": student.ID, "student_name": student.Name, "class_group": "7A", "sport": "Football", "category": "junior", "status": sport.StatusPending, "registered_at": ts(-3, 10)},
			{"student_id": student2.ID, "student_name": student2.Name, "class_group": "8B", "sport": "Netball", "category": "senior", "status": sport.StatusConfirmed, "registered_at": ts(-6, 10)},
		},
		syllabus.Resource: {
			{"subject": "Mathematics", "class_group": "7A", "term": "Term 2", "position": 1, "title": "Fractions", "teacher_id": teacher.ID, "teacher_name": teacher.Name, "status": syllabus.StatusCompleted, "completed_at": ts(-7, 12)},
			{"subject": "Mathematics", "class_group": "7A", "term": "Term 2", "position": 2, "title": "Decimals", "teacher_id": teacher.ID, "teacher_name": teacher.Name, "status": syllabus.StatusInProgress},
			{"subject": "Mathematics", "class_group": "7A", "term": "Term 2", "position": 3, "title": "Percentages", "teacher_id": teacher.ID, "teacher_name": teacher.Name, "status": syllabus.StatusNotStarted},
		},
		attendance.Resource: {
			{"student_id": student.ID, "student_name": student.Name, "class_group": "7A", "date": day(-2), "status": attendance.StatusPresent, "marked_by": teacher.ID},
			{"student_id": student.ID, "student_name": student.Name, "class_group": "7A", "date": day(-1), "status": attendance.StatusLate, "marked_by": teacher.ID},
			{"student_id": student2.ID, "student_name": student2.Name, "class_group": "8B", "date": day(-1), "status": attendance.StatusAbsent, "marked_by": teacher.ID},
		},
	}
}
