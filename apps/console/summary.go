package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-console/core/attendance"
	"github.com/trezcool/masomo-console/core/syllabus"
)

func newAttendanceCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Attendance reports",
	}

	var class, query string
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Attendance percentage per student: (present + late) / total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			as := typedScreen[attendance.Record, attendance.NewRecord, attendance.UpdateRecord](attendance.Resource)
			sc, _, err := as.mount(cmd.Context(), e, 0)
			if err != nil {
				return as.loadError(e, err)
			}
			defer sc.Unmount()

			var records []attendance.Record
			for _, r := range sc.View(query).Items {
				if class == "" || strings.EqualFold(r.ClassGroup, class) {
					records = append(records, r)
				}
			}
			sums := attendance.Summarize(records)
			if e.asJSON {
				return writeJSON(e.out, sums)
			}

			_, _ = fmt.Fprintln(e.out, e.styles.title.Render(fmt.Sprintf("Attendance summary (%d)", len(sums))))
			if len(sums) == 0 {
				_, _ = fmt.Fprintln(e.out, "No attendance records yet.")
				return nil
			}
			rows := make([][]string, 0, len(sums))
			for _, s := range sums {
				rows = append(rows, []string{
					s.StudentName, s.ClassGroup,
					strconv.Itoa(s.Present), strconv.Itoa(s.Late), strconv.Itoa(s.Absent), strconv.Itoa(s.Excused),
					strconv.Itoa(s.Total), pct(s.Percentage),
				})
			}
			return e.styles.table(e.out, []string{"STUDENT", "CLASS", "PRESENT", "LATE", "ABSENT", "EXCUSED", "TOTAL", "ATTENDANCE"}, rows)
		},
	}
	summary.Flags().StringVar(&class, "class", "", "only this class group, eg. 7A")
	summary.Flags().StringVarP(&query, "query", "q", "", "case-insensitive search")
	cmd.AddCommand(summary)
	return cmd
}

func newSyllabusCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "syllabus",
		Short: "Syllabus coverage",
	}

	var class, term string
	progress := &cobra.Command{
		Use:   "progress",
		Short: "Completed topics per subject and class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ss := typedScreen[syllabus.Topic, syllabus.NewTopic, syllabus.UpdateTopic](syllabus.Resource)
			sc, _, err := ss.mount(cmd.Context(), e, 0)
			if err != nil {
				return ss.loadError(e, err)
			}
			defer sc.Unmount()

			var topics []syllabus.Topic
			for _, t := range sc.View("").Items {
				if (class == "" || strings.EqualFold(t.ClassGroup, class)) && (term == "" || strings.EqualFold(t.Term, term)) {
					topics = append(topics, t)
				}
			}
			stats := syllabus.Summarize(topics)
			if e.asJSON {
				return writeJSON(e.out, stats)
			}

			_, _ = fmt.Fprintln(e.out, e.styles.title.Render(fmt.Sprintf("Syllabus progress (%d)", len(stats))))
			if len(stats) == 0 {
				_, _ = fmt.Fprintln(e.out, "No syllabus topics yet.")
				return nil
			}
			rows := make([][]string, 0, len(stats))
			for _, p := range stats {
				rows = append(rows, []string{
					p.Subject, p.ClassGroup,
					fmt.Sprintf("%d/%d", p.Completed, p.Total), strconv.Itoa(p.InProgress),
					bar(p.Percent) + " " + pct(p.Percent),
				})
			}
			return e.styles.table(e.out, []string{"SUBJECT", "CLASS", "DONE", "IN PROGRESS", "PROGRESS"}, rows)
		},
	}
	progress.Flags().StringVar(&class, "class", "", "only this class group, eg. 7A")
	progress.Flags().StringVar(&term, "term", "", "only this term")
	cmd.AddCommand(progress)
	return cmd
}
