package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"strconv"
	"time"
)

// Row is one query line of the dashboard.
type Row struct {
	Title      string
	URL        string
	IssueCount int
	Limits     string
	Pass       bool
	// Error is set when the query could not be evaluated.
	Error string
}

func (r Row) count() string {
	if r.Error != "" {
		return "n/a"
	}
	return strconv.Itoa(r.IssueCount)
}

// Dashboard renders the markdown status page of a team.
type Dashboard struct {
	Team  string
	URL   string
	Theme Theme
	Now   time.Time
}

// Render writes the dashboard for rows to w.
func (d Dashboard) Render(w io.Writer, rows []Row) error {
	var buf bytes.Buffer
	if d.Theme.Name == Legacy.Name {
		d.renderLegacy(&buf, rows)
	} else {
		d.renderModern(&buf, rows)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile renders the dashboard to path, replacing any previous content.
func (d Dashboard) WriteFile(path string, rows []Row) error {
	var buf bytes.Buffer
	if err := d.Render(&buf, rows); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- published dashboard
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func (d Dashboard) renderLegacy(buf *bytes.Buffer, rows []Row) {
	buf.WriteString("# Backlog Status\n\n")
	fmt.Fprintf(buf, "This is the dashboard for [%s](%s).\n", d.Team, d.URL)
	fmt.Fprintf(buf, "**Latest Run:** %s UTC\n", d.Now.UTC().Format("2006-01-02 15:04:05"))
	buf.WriteString("*(Please refresh to see latest results)*\n\n")

	if len(rows) == 0 {
		return
	}
	buf.WriteString("Backlog Query | Number of Issues | Limits | Status\n--- | --- | --- | ---\n")
	for _, r := range rows {
		fmt.Fprintf(buf, "[%s](%s)|%s|%s|%s\n", r.Title, r.URL, r.count(), r.Limits, d.Theme.Icon(r.Pass))
	}
	buf.WriteString("\n")
}

func (d Dashboard) renderModern(buf *bytes.Buffer, rows []Row) {
	fmt.Fprintf(buf, "### [%s](%s) Dashboard\n\n", d.Team, d.URL)

	var failing, passing []Row
	for _, r := range rows {
		if r.Pass {
			passing = append(passing, r)
		} else {
			failing = append(failing, r)
		}
	}

	if len(failing) > 0 {
		buf.WriteString("#### ⚠️ Attention Required\n")
		d.htmlTable(buf, failing)
	}
	if len(passing) > 0 {
		buf.WriteString("#### ✅ Passing Checks\n")
		d.htmlTable(buf, passing)
	}
}

func (d Dashboard) htmlTable(buf *bytes.Buffer, rows []Row) {
	buf.WriteString("<div class=\"table-responsive\">\n")
	buf.WriteString("<table class=\"table table-hover\">\n")
	buf.WriteString("<thead><tr><th>Backlog Query</th><th>Number of Issues</th><th>Limits</th><th>Status</th></tr></thead>\n")
	buf.WriteString("<tbody>\n")
	for _, r := range rows {
		fmt.Fprintf(buf, "<tr><td><a href='%s'>%s</a></td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(r.URL), html.EscapeString(r.Title), r.count(), html.EscapeString(r.Limits), d.Theme.Icon(r.Pass))
	}
	buf.WriteString("</tbody></table></div>\n\n")
}
