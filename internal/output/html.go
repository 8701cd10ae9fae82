package output

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/chris-regnier/bailiff/internal/issue"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"code":     func(i *issue.Issue, n int) string { return i.Code(n, false) },
	"moreInfo": func(i *issue.Issue) string { return MoreInfo(i.TestID, i.TestName) },
	"lower":    strings.ToLower,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Bailiff Report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.metrics, .skipped { margin-bottom: 2em; }
.issue-block { border: 1px solid #ccc; margin-bottom: 1em; padding: 0.5em 1em; }
.issue-sev-high { background-color: #fdd; }
.issue-sev-medium { background-color: #ffc; }
.issue-sev-low { background-color: #def; }
pre.code { background-color: #f4f4f4; padding: 0.5em; }
.candidates { margin-left: 2em; }
</style>
</head>
<body>
<div class="metrics">
<h2>Metrics</h2>
<p>Total lines of code: <span>{{index .Totals "loc"}}</span><br>
Total lines skipped (#nosec): <span>{{index .Totals "nosec"}}</span></p>
</div>
{{if .Skipped}}<div class="skipped">
<h2>Skipped files</h2>
<ul>{{range .Skipped}}
<li><b>{{.Filename}}</b> reason: {{.Reason}}</li>{{end}}
</ul>
</div>{{end}}
<div class="results">
<h2>Results</h2>
{{if not .Results}}<p>No issues identified.</p>{{end}}
{{range $i, $r := .Results}}<div class="issue-block issue-sev-{{lower $r.Severity.String}}" id="issue-{{$i}}">
<b>{{$r.TestName}}:</b> {{$r.Text}}<br>
<b>Test ID:</b> {{$r.TestID}}<br>
<b>Severity:</b> {{$r.Severity}}<br>
<b>Confidence:</b> {{$r.Confidence}}<br>
<b>CWE:</b> <a href="{{$r.CWE.Link}}" target="_blank">CWE-{{$r.CWE.ID}}</a><br>
<b>File:</b> {{$r.Filename}}<br>
<b>Line number:</b> {{$r.LineNumber}}<br>
<b>More info:</b> <a href="{{moreInfo $r}}" target="_blank">{{moreInfo $r}}</a><br>
<pre class="code">{{code $r $.ContextLines}}</pre>
{{with $.CandidatesFor $r}}<div class="candidates">
<b>Candidates:</b>
{{range .}}<pre class="code">{{code . $.ContextLines}}</pre>
{{end}}</div>{{end}}
</div>
{{end}}</div>
</body>
</html>
`))

// HTMLFormatter renders a standalone HTML page.
type HTMLFormatter struct{}

// Format renders the report as HTML.
func (f *HTMLFormatter) Format(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("html formatter: %w", err)
	}
	return buf.Bytes(), nil
}
