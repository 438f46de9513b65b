/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: html.go
Description: Standalone HTML report written with html/template, one file per run in the output
directory.
*/

package reporting

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

// HTMLGenerator writes HTML reports into an output directory
type HTMLGenerator struct {
	outputDir string
	logger    logrus.FieldLogger
}

// NewHTMLGenerator creates a generator for outputDir
func NewHTMLGenerator(outputDir string, logger logrus.FieldLogger) *HTMLGenerator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTMLGenerator{outputDir: outputDir, logger: logger}
}

// Generate writes r to a timestamped file and returns its path
func (g *HTMLGenerator) Generate(r *Report) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	name := fmt.Sprintf("report_%s.html", r.GeneratedAt.Format("2006-01-02_15-04-05"))
	path := filepath.Join(g.outputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := WriteHTML(f, r); err != nil {
		return "", err
	}
	g.logger.WithField("path", path).Info("HTML report generated")
	return path, nil
}

// WriteHTML renders r as a single HTML page
func WriteHTML(w io.Writer, r *Report) error {
	data := struct {
		*Report
		Duration string
	}{
		Report:   r,
		Duration: r.Duration.Round(time.Millisecond).String(),
	}
	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}} - {{.Target}}</title>
<style>
body { font-family: 'Segoe UI', Tahoma, sans-serif; margin: 2rem; color: #2d3748; }
h1 { color: #4a5568; }
h2 { border-bottom: 1px solid #e2e8f0; padding-bottom: .3rem; }
.muted { color: #a0aec0; }
.danger { color: #c53030; font-weight: bold; }
table { border-collapse: collapse; }
td, th { padding: .25rem .75rem; text-align: left; border-bottom: 1px solid #edf2f7; }
code { background: #f7fafc; padding: 0 .25rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Target <code>{{.Target}}</code> &middot; session <code>{{.SessionID}}</code> &middot; {{.Duration}}
<span class="muted">generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</span></p>
{{with .Crawl}}<p>Crawl: {{.Fetched}} fetched, {{.Failed}} failed, depth {{.Depth}}</p>{{end}}

<h2>Pages ({{len .Snapshot.Pages}})</h2>
<table>
<tr><th>URL</th><th>Parameters</th></tr>
{{range .Snapshot.Pages}}<tr><td><code>{{.URL}}</code></td><td>{{range $i, $p := .Params}}{{if $i}}, {{end}}{{$p}}{{end}}</td></tr>
{{end}}</table>

{{if .Guessed}}<h2>Guessed pages ({{len .Guessed}})</h2>
<ul>{{range .Guessed}}<li><code>{{.}}</code></li>{{end}}</ul>{{end}}

<h2>Forms ({{.FormCount}})</h2>
{{range .FormsByPage}}<h3><code>{{.Page}}</code></h3>
<ul>{{range .Forms}}<li>#{{.Index}}: {{range .Inputs}}<code>{{if .Name}}{{.Name}}{{else}}(unnamed){{end}}:{{.Kind}}</code> {{end}}</li>{{end}}</ul>
{{end}}

<h2>Cookies ({{len .Snapshot.Cookies}})</h2>
<table>
<tr><th>Name</th><th>Value</th><th>Domain</th><th>Path</th><th>Flags</th></tr>
{{range .Snapshot.Cookies}}<tr><td>{{.Name}}</td><td><code>{{.Value}}</code></td><td>{{.Domain}}</td><td>{{.Path}}</td><td>{{if .Secure}}Secure {{end}}{{if .HTTPOnly}}HttpOnly{{end}}</td></tr>
{{end}}</table>

{{if .Fuzz}}<h2>Fuzzed forms ({{len .Fuzz}})</h2>
<table>
<tr><th>Page</th><th>Form</th><th>Submissions</th><th>Failures</th><th>Note</th></tr>
{{range .Fuzz}}<tr><td><code>{{.Form.Page}}</code></td><td>#{{.Form.Index}}</td><td>{{.Submissions}}</td><td>{{.Failures}}</td><td class="muted">{{.Reason}}</td></tr>
{{end}}</table>{{end}}

<h2>Sensitive data ({{len .Snapshot.Leaks}})</h2>
{{range .Leaks}}<p class="danger">{{.Keyword}}</p>
<ul>{{range .Pages}}<li><code>{{.}}</code></li>{{end}}</ul>
{{end}}

<h2>Alerts ({{.AlertCount}})</h2>
{{range .Alerts}}<h3><code>{{.Page}}</code></h3>
<ul>{{range .Alerts}}<li class="danger">{{.}}</li>{{end}}</ul>
{{end}}

<h2>Credentials ({{len .Snapshot.Credentials}})</h2>
<ul>{{range .Snapshot.Credentials}}<li class="danger">{{.Username}} / {{.Password}}</li>{{end}}</ul>
</body>
</html>
`
