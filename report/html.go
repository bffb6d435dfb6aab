package report

import (
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// HTMLSink renders a standalone HTML report, one file per run.
type HTMLSink struct {
	collector
	dir   string
	runID string
	tmpl  *template.Template
	start time.Time
}

// NewHTMLSink builds a sink that writes report-<runID>.html under dir.
func NewHTMLSink(dir, runID string) (*HTMLSink, error) {
	tmpl, err := template.New("report").Parse(htmlReport)
	if err != nil {
		return nil, errors.Wrap(err, "parsing report template")
	}
	return &HTMLSink{dir: dir, runID: runID, tmpl: tmpl, start: time.Now()}, nil
}

// Path returns the file the report is (or will be) written to.
func (s *HTMLSink) Path() string {
	return filepath.Join(s.dir, "report-"+s.runID+".html")
}

func (s *HTMLSink) CreateTestEntry(name, description string) Entry {
	return s.create(name, description)
}

// Flush renders the accumulated records to disk.
func (s *HTMLSink) Flush() error {
	records := s.snapshots()
	data := htmlData{
		RunID:     s.runID,
		Generated: time.Now().Format(time.RFC1123),
		Elapsed:   formatDuration(time.Since(s.start)),
		Stats:     computeStats(records),
	}
	for _, r := range records {
		item := htmlTest{
			Name:        r.name,
			Description: r.description,
			Status:      r.status,
			Elapsed:     formatDuration(r.elapsed),
		}
		if !r.finished {
			item.Status = StatusFailed
		}
		if r.err != nil {
			item.Error = r.err.Error()
		}
		for _, l := range r.lines {
			item.Lines = append(item.Lines, htmlLine{
				Time:    l.Time.Format("15:04:05.000"),
				Level:   l.Level,
				Message: l.Message,
			})
		}
		for _, a := range r.artifacts {
			item.Artifacts = append(item.Artifacts, a)
		}
		data.Tests = append(data.Tests, item)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating report directory %s", s.dir)
	}
	f, err := os.Create(s.Path())
	if err != nil {
		return errors.Wrap(err, "creating report file")
	}
	defer f.Close()
	if err := s.tmpl.Execute(f, data); err != nil {
		return errors.Wrap(err, "rendering report")
	}
	return nil
}

type htmlData struct {
	RunID     string
	Generated string
	Elapsed   string
	Stats     Stats
	Tests     []htmlTest
}

type htmlTest struct {
	Name        string
	Description string
	Status      Status
	Elapsed     string
	Error       string
	Lines       []htmlLine
	Artifacts   []artifact
}

type htmlLine struct {
	Time    string
	Level   Level
	Message string
}

const htmlReport = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Test Report {{.RunID}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
.meta { color: #666; margin-bottom: 1em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 6px 10px; text-align: left; vertical-align: top; }
th { background: #f5f5f5; }
.passed { color: #1a7f37; font-weight: bold; }
.failed { color: #cf222e; font-weight: bold; }
.skipped { color: #9a6700; font-weight: bold; }
.logs { font-family: monospace; font-size: 0.85em; white-space: pre-wrap; margin: 0; }
.level-error { color: #cf222e; }
.level-warning { color: #9a6700; }
.summary span { margin-right: 1.5em; }
</style>
</head>
<body>
<h1>Test Report</h1>
<div class="meta">Run {{.RunID}} &middot; generated {{.Generated}} &middot; wall time {{.Elapsed}}</div>
<div class="summary">
<span>Total: {{.Stats.Total}}</span>
<span class="passed">Passed: {{.Stats.Passed}}</span>
<span class="failed">Failed: {{.Stats.Failed}}</span>
<span class="skipped">Skipped: {{.Stats.Skipped}}</span>
<span>Pass rate: {{printf "%.1f" .Stats.PassRate}}%</span>
</div>
<p></p>
<table>
<tr><th>Test</th><th>Status</th><th>Duration</th><th>Details</th></tr>
{{range .Tests}}
<tr>
<td><strong>{{.Name}}</strong>{{if .Description}}<br><small>{{.Description}}</small>{{end}}</td>
<td class="{{.Status}}">{{.Status}}</td>
<td>{{.Elapsed}}</td>
<td>
{{if .Error}}<div class="level-error">{{.Error}}</div>{{end}}
{{if .Lines}}<pre class="logs">{{range .Lines}}<span class="level-{{.Level}}">{{.Time}} [{{.Level}}] {{.Message}}</span>
{{end}}</pre>{{end}}
{{range .Artifacts}}<div><a href="{{.Path}}">{{.Caption}}</a></div>{{end}}
</td>
</tr>
{{end}}
</table>
</body>
</html>
`
