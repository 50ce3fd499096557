package main

import (
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-console/core/listview"
	"github.com/trezcool/masomo-console/core/result"
)

// typedScreen returns the registered screen of a known record type.
func typedScreen[T listview.Entity, N, U any](name string) *screen[T, N, U] {
	s, err := lookupScreen(name)
	if err != nil {
		panic(err)
	}
	return s.(*screen[T, N, U])
}

func newReportCmd(e *env) *cobra.Command {
	var term, out, email string
	cmd := &cobra.Command{
		Use:   "report STUDENT_ID",
		Short: "Print a student's report card, optionally saved as HTML or emailed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseID(args[0])
			if err != nil {
				return err
			}
			var to *mail.Address
			if email != "" {
				if to, err = mail.ParseAddress(email); err != nil {
					return errors.Wrapf(err, "invalid email %q", email)
				}
			}

			rs := typedScreen[result.Result, result.NewResult, result.UpdateResult](result.Resource)
			sc, _, err := rs.mount(cmd.Context(), e, 0)
			if err != nil {
				return rs.loadError(e, err)
			}
			defer sc.Unmount()

			// only results visible to the principal are considered
			var (
				latest result.Result
				found  int
			)
			for _, r := range sc.View("").Items {
				if r.StudentID != studentID || (term != "" && !strings.EqualFold(r.Term, term)) {
					continue
				}
				if found == 0 || r.ID > latest.ID {
					latest = r
				}
				found++
			}
			if found == 0 {
				if term != "" {
					return errors.Errorf("no %s results for student #%d", term, studentID)
				}
				return errors.Errorf("no results for student #%d", studentID)
			}

			rc := result.BuildReportCard(latest)
			if e.asJSON {
				if err = writeJSON(e.out, rc); err != nil {
					return err
				}
			} else if err = printReportCard(e, rc); err != nil {
				return err
			}
			if found > 1 && term == "" {
				_, _ = fmt.Fprintln(e.errOut, e.styles.muted.Render(fmt.Sprintf("showing the latest of %d results, pick one with --term", found)))
			}

			if out != "" {
				html, err := result.RenderReport(rc, e.conf.SchoolName)
				if err != nil {
					return err
				}
				if err = os.WriteFile(out, []byte(html), 0o644); err != nil {
					return errors.Wrap(err, "saving report")
				}
				_, _ = fmt.Fprintln(e.errOut, e.styles.ok.Render("saved report card to "+out))
			}
			if to != nil {
				msg, err := result.ReportEmail(rc, e.conf.SchoolName, *to)
				if err != nil {
					return err
				}
				if err = e.mailer.SendMessages(cmd.Context(), msg); err != nil {
					return errors.Wrap(err, "emailing report card")
				}
				_, _ = fmt.Fprintln(e.errOut, e.styles.ok.Render("emailed report card to "+to.Address))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&term, "term", "", "term, eg. \"Term 1\" (latest by default)")
	cmd.Flags().StringVar(&out, "out", "", "save the printable HTML report card to this file")
	cmd.Flags().StringVar(&email, "email", "", "email the report card to this address")
	return cmd
}

func printReportCard(e *env, rc result.ReportCard) error {
	_, _ = fmt.Fprintln(e.out, e.styles.title.Render(fmt.Sprintf("Report card: %s (%s), %s", rc.StudentName, rc.ClassGroup, rc.Term)))

	rows := make([][]string, 0, len(rc.Rows)+1)
	for _, row := range rc.Rows {
		rows = append(rows, []string{row.Subject, humanize.Ftoa(row.Score), humanize.Ftoa(row.MaxScore), pct(row.Percentage), row.Grade})
	}
	rows = append(rows, []string{"Total", humanize.Ftoa(rc.Total), humanize.Ftoa(rc.MaxTotal), pct(rc.Percentage), rc.Grade})
	if err := e.styles.table(e.out, []string{"SUBJECT", "SCORE", "MAX", "%", "GRADE"}, rows); err != nil {
		return err
	}
	if rc.Remarks != "" {
		_, _ = fmt.Fprintln(e.out, "Remarks: "+rc.Remarks)
	}
	_, _ = fmt.Fprintln(e.out, e.styles.muted.Render("result #"+strconv.Itoa(rc.ResultID)))
	return nil
}
