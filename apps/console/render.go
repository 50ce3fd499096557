package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/listview"
)

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
	err    lipgloss.Style
	ok     lipgloss.Style
	box    lipgloss.Style
}

// newStyles returns colored styles for terminals and plain ones otherwise.
func newStyles(colored bool) styles {
	if !colored {
		plain := lipgloss.NewStyle()
		return styles{title: plain, header: plain, muted: plain, err: plain, ok: plain, box: plain}
	}
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")),
		header: lipgloss.NewStyle().Bold(true),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		box:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// table aligns rows under headers. The header line is styled after alignment
// so escape sequences do not skew column widths.
func (st styles) table(w io.Writer, headers []string, rows [][]string) error {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i, line := range lines {
		if i == 0 {
			line = st.header.Render(strings.TrimRight(line, " "))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fields flattens a record into its JSON field names and display values, sorted by name.
func fields(v interface{}) ([][2]string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := make(map[string]interface{})
	if err = json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, display(m[k])})
	}
	return out, nil
}

func display(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case string:
		if v == "" {
			return "-"
		}
		return v
	case float64:
		return humanize.Ftoa(v)
	case bool:
		return yesNo(v)
	}
	raw, _ := json.Marshal(v)
	return string(raw)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func nullStr(s null.String) string {
	if !s.Valid {
		return "-"
	}
	return orDash(s.String)
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func nullAgo(t null.Time) string {
	if !t.Valid {
		return "-"
	}
	return ago(t.Time)
}

func dateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Mon 02 Jan 15:04")
}

func pct(p float64) string { return fmt.Sprintf("%.1f%%", p) }

// bar draws a ten cell progress bar for a percentage.
func bar(p float64) string {
	n := int(p/10 + 0.5)
	if n < 0 {
		n = 0
	} else if n > 10 {
		n = 10
	}
	return strings.Repeat("#", n) + strings.Repeat(".", 10-n)
}

// displayError is the one line shown for a failed command.
func displayError(err error) string {
	var mErr *listview.MutationError
	switch {
	case errors.As(err, &mErr):
		return fmt.Sprintf("%s failed: %s", mErr.Op, mErr.Reason)
	case errors.Is(err, core.ErrForbidden):
		return "you are not allowed to do that"
	case core.IsTransport(err):
		return "could not reach the backend, check --api and your connection"
	}
	return err.Error()
}
