package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

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
)

type column[T any] struct {
	header string
	value  func(T) string
}

var screens = []screenDef{
	&screen[exam.Schedule, exam.NewSchedule, exam.UpdateSchedule]{
		name:     exam.Resource,
		title:    "Exam schedules",
		aliases:  []string{"exams", "schedules"},
		pipeline: exam.Pipeline,
		policy:   exam.Policy,
		columns: []column[exam.Schedule]{
			{"ID", func(s exam.Schedule) string { return strconv.Itoa(s.ID) }},
			{"DATE", func(s exam.Schedule) string { return s.Date }},
			{"TIME", func(s exam.Schedule) string { return s.StartTime + "-" + s.EndTime }},
			{"EXAM", func(s exam.Schedule) string { return s.ExamName }},
			{"SUBJECT", func(s exam.Schedule) string { return s.Subject }},
			{"CLASS", func(s exam.Schedule) string { return s.ClassGroup }},
			{"ROOM", func(s exam.Schedule) string { return s.Room }},
		},
	},
	&screen[result.Result, result.NewResult, result.UpdateResult]{
		name:     result.Resource,
		title:    "Results",
		pipeline: result.Pipeline,
		policy:   result.Policy,
		columns: []column[result.Result]{
			{"ID", func(r result.Result) string { return strconv.Itoa(r.ID) }},
			{"STUDENT", func(r result.Result) string { return r.StudentName }},
			{"CLASS", func(r result.Result) string { return r.ClassGroup }},
			{"TERM", func(r result.Result) string { return r.Term }},
			{"AVERAGE", func(r result.Result) string {
				rc := result.BuildReportCard(r)
				return pct(rc.Percentage) + " " + rc.Grade
			}},
			{"PUBLISHED", func(r result.Result) string { return nullAgo(r.PublishedAt) }},
		},
	},
	&screen[notification.Notification, notification.NewNotification, notification.UpdateNotification]{
		name:     notification.Resource,
		title:    "Notifications",
		pipeline: notification.Pipeline,
		policy:   notification.Policy,
		columns: []column[notification.Notification]{
			{"ID", func(n notification.Notification) string { return strconv.Itoa(n.ID) }},
			{"TITLE", func(n notification.Notification) string { return n.Title }},
			{"AUDIENCE", func(n notification.Notification) string { return n.Audience }},
			{"READ", func(n notification.Notification) string { return yesNo(n.Read) }},
			{"CREATED", func(n notification.Notification) string { return ago(n.CreatedAt) }},
		},
	},
	&screen[onlineclass.OnlineClass, onlineclass.NewOnlineClass, onlineclass.UpdateOnlineClass]{
		name:     onlineclass.Resource,
		title:    "Online classes",
		aliases:  []string{"classes"},
		pipeline: onlineclass.Pipeline,
		policy:   onlineclass.Policy,
		columns: []column[onlineclass.OnlineClass]{
			{"ID", func(c onlineclass.OnlineClass) string { return strconv.Itoa(c.ID) }},
			{"STARTS", func(c onlineclass.OnlineClass) string { return dateTime(c.StartsAt) }},
			{"MIN", func(c onlineclass.OnlineClass) string { return strconv.Itoa(c.Duration) }},
			{"TITLE", func(c onlineclass.OnlineClass) string { return c.Title }},
			{"SUBJECT", func(c onlineclass.OnlineClass) string { return c.Subject }},
			{"CLASS", func(c onlineclass.OnlineClass) string { return c.ClassGroup }},
			{"TEACHER", func(c onlineclass.OnlineClass) string { return c.TeacherName }},
			{"STATUS", func(c onlineclass.OnlineClass) string { return c.Status }},
		},
	},
	&screen[admission.PreAdmission, admission.NewPreAdmission, admission.UpdatePreAdmission]{
		name:     admission.Resource,
		title:    "Pre-admissions",
		aliases:  []string{"admissions"},
		pipeline: admission.Pipeline,
		policy:   admission.Policy,
		columns: []column[admission.PreAdmission]{
			{"ID", func(a admission.PreAdmission) string { return strconv.Itoa(a.ID) }},
			{"APPLICANT", func(a admission.PreAdmission) string { return a.ApplicantName }},
			{"GRADE", func(a admission.PreAdmission) string { return a.GradeApplied }},
			{"GUARDIAN", func(a admission.PreAdmission) string { return a.GuardianName }},
			{"STATUS", func(a admission.PreAdmission) string { return a.Status }},
			{"SUBMITTED", func(a admission.PreAdmission) string { return ago(a.SubmittedAt) }},
		},
	},
	&screen[advert.Advertisement, advert.NewAdvertisement, advert.UpdateAdvertisement]{
		name:     advert.Resource,
		title:    "Advertisements",
		aliases:  []string{"adverts", "ads"},
		upload:   "image",
		pipeline: advert.Pipeline,
		policy:   advert.Policy,
		columns: []column[advert.Advertisement]{
			{"ID", func(a advert.Advertisement) string { return strconv.Itoa(a.ID) }},
			{"TITLE", func(a advert.Advertisement) string { return a.Title }},
			{"AUDIENCE", func(a advert.Advertisement) string { return a.Audience }},
			{"IMAGE", func(a advert.Advertisement) string { return yesNo(a.ImageURL.Valid && a.ImageURL.String != "") }},
			{"PUBLISHED", func(a advert.Advertisement) string { return ago(a.PublishedAt) }},
			{"EXPIRES", func(a advert.Advertisement) string { return nullAgo(a.ExpiresAt) }},
		},
	},
	&screen[event.Event, event.NewEvent, event.UpdateEvent]{
		name:     event.Resource,
		title:    "Events",
		pipeline: event.Pipeline,
		policy:   event.Policy,
		columns: []column[event.Event]{
			{"ID", func(ev event.Event) string { return strconv.Itoa(ev.ID) }},
			{"STARTS", func(ev event.Event) string { return dateTime(ev.StartsAt) }},
			{"TITLE", func(ev event.Event) string { return ev.Title }},
			{"CATEGORY", func(ev event.Event) string { return ev.Category }},
			{"VENUE", func(ev event.Event) string { return ev.Venue }},
			{"WHEN", func(ev event.Event) string { return ago(ev.StartsAt) }},
		},
	},
	&screen[sport.Registration, sport.NewRegistration, sport.UpdateRegistration]{
		name:     sport.Resource,
		title:    "Sports registrations",
		aliases:  []string{"sports"},
		pipeline: sport.Pipeline,
		policy:   sport.Policy,
		columns: []column[sport.Registration]{
			{"ID", func(r sport.Registration) string { return strconv.Itoa(r.ID) }},
			{"STUDENT", func(r sport.Registration) string { return r.StudentName }},
			{"CLASS", func(r sport.Registration) string { return r.ClassGroup }},
			{"SPORT", func(r sport.Registration) string { return r.Sport }},
			{"CATEGORY", func(r sport.Registration) string { return r.Category }},
			{"STATUS", func(r sport.Registration) string { return r.Status }},
		},
	},
	&screen[syllabus.Topic, syllabus.NewTopic, syllabus.UpdateTopic]{
		name:     syllabus.Resource,
		title:    "Syllabus",
		aliases:  []string{"topics"},
		pipeline: syllabus.Pipeline,
		policy:   syllabus.Policy,
		columns: []column[syllabus.Topic]{
			{"ID", func(t syllabus.Topic) string { return strconv.Itoa(t.ID) }},
			{"SUBJECT", func(t syllabus.Topic) string { return t.Subject }},
			{"CLASS", func(t syllabus.Topic) string { return t.ClassGroup }},
			{"TERM", func(t syllabus.Topic) string { return t.Term }},
			{"#", func(t syllabus.Topic) string { return strconv.Itoa(t.Position) }},
			{"TITLE", func(t syllabus.Topic) string { return t.Title }},
			{"STATUS", func(t syllabus.Topic) string { return t.Status }},
		},
	},
	&screen[attendance.Record, attendance.NewRecord, attendance.UpdateRecord]{
		name:     attendance.Resource,
		title:    "Attendance",
		pipeline: attendance.Pipeline,
		policy:   attendance.Policy,
		columns: []column[attendance.Record]{
			{"ID", func(r attendance.Record) string { return strconv.Itoa(r.ID) }},
			{"DATE", func(r attendance.Record) string { return r.Date }},
			{"STUDENT", func(r attendance.Record) string { return r.StudentName }},
			{"CLASS", func(r attendance.Record) string { return r.ClassGroup }},
			{"STATUS", func(r attendance.Record) string { return r.Status }},
			{"REMARKS", func(r attendance.Record) string { return nullStr(r.Remarks) }},
		},
	},
}

// lookupScreen finds a screen by resource name or alias.
func lookupScreen(name string) (screenDef, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range screens {
		if s.Name() == name {
			return s, nil
		}
		for _, alias := range s.Aliases() {
			if alias == name {
				return s, nil
			}
		}
	}
	return nil, errors.Errorf("unknown screen %q (see `masomo screens`)", name)
}

func screenNames() []string {
	names := make([]string, 0, len(screens))
	for _, s := range screens {
		names = append(names, s.Name())
	}
	sort.Strings(names)
	return names
}

func newScreensCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "screens",
		Short: "List the available screens",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			rows := make([][]string, 0, len(screens))
			for _, s := range screens {
				rows = append(rows, []string{s.Name(), s.Title(), orDash(strings.Join(s.Aliases(), ", "))})
			}
			return e.styles.table(e.out, []string{"SCREEN", "TITLE", "ALIASES"}, rows)
		},
	}
}

// screenArg completes and validates the SCREEN positional argument.
func screenArg(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, name := range screenNames() {
		if strings.HasPrefix(name, toComplete) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func screenTitle(s screenDef, n int) string {
	return fmt.Sprintf("%s (%d)", s.Title(), n)
}
