package result

import (
	"fmt"
	"math"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

const reportTemplate = "report_card"

// grade boundaries, highest first
var grades = []struct {
	min   float64
	grade string
}{
	{90, "A+"},
	{80, "A"},
	{70, "B"},
	{60, "C"},
	{50, "D"},
	{0, "F"},
}

// Grade converts a percentage into a letter grade.
func Grade(percentage float64) string {
	for _, g := range grades {
		if percentage >= g.min {
			return g.grade
		}
	}
	return "F"
}

type ReportRow struct {
	Subject    string
	Score      float64
	MaxScore   float64
	Percentage float64
	Grade      string
}

type ReportCard struct {
	ResultID    int
	StudentID   int
	StudentName string
	ClassGroup  string
	Term        string
	Rows        []ReportRow
	Total       float64
	MaxTotal    float64
	Percentage  float64
	Grade       string
	Remarks     string
}

func percent(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Round(score/max*1000) / 10 // 1 decimal
}

func BuildReportCard(r Result) ReportCard {
	rc := ReportCard{
		ResultID:    r.ID,
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		ClassGroup:  r.ClassGroup,
		Term:        r.Term,
		Remarks:     r.Remarks.String,
		Rows:        make([]ReportRow, 0, len(r.Subjects)),
	}
	for _, m := range r.Subjects {
		pct := percent(m.Score, m.MaxScore)
		rc.Rows = append(rc.Rows, ReportRow{
			Subject:    m.Subject,
			Score:      m.Score,
			MaxScore:   m.MaxScore,
			Percentage: pct,
			Grade:      Grade(pct),
		})
		rc.Total += m.Score
		rc.MaxTotal += m.MaxScore
	}
	rc.Percentage = percent(rc.Total, rc.MaxTotal)
	rc.Grade = Grade(rc.Percentage)
	return rc
}

// RenderReport returns the printable HTML report card.
func RenderReport(rc ReportCard, schoolName string) (string, error) {
	_, html, err := core.RenderTemplate(reportTemplate, core.ContextData{SchoolName: schoolName, Data: rc})
	if err != nil {
		return "", errors.Wrap(err, "rendering report card")
	}
	return html, nil
}

// ReportEmail builds the report card email for a guardian, with the HTML report attached.
func ReportEmail(rc ReportCard, schoolName string, to ...mail.Address) (*core.EmailMessage, error) {
	msg := &core.EmailMessage{
		To:           to,
		Subject:      fmt.Sprintf("%s report card: %s", rc.Term, rc.StudentName),
		TemplateName: reportTemplate,
		TemplateData: rc,
		SchoolName:   schoolName,
	}
	if err := msg.Render(); err != nil {
		return nil, errors.Wrap(err, "rendering report card email")
	}
	if err := msg.Attach(strings.NewReader(msg.HTMLContent), fmt.Sprintf("report-card-%d.html", rc.ResultID), "text/html"); err != nil {
		return nil, errors.Wrap(err, "attaching report card")
	}
	return msg, nil
}
