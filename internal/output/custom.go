package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/chris-regnier/bailiff/internal/issue"
)

// DefaultMsgTemplate is used when no --msg-template is given.
const DefaultMsgTemplate = "{abspath}:{line}: {test_id}[bailiff]: {severity}: {msg}"

// tagRE matches "{name}" or "{name:[<>^]width}".
var tagRE = regexp.MustCompile(`\{(\w+)(?::([<>^]?)(\d*))?\}`)

var tags = map[string]func(*issue.Issue) any{
	"abspath": func(i *issue.Issue) any {
		if p, err := filepath.Abs(i.Filename); err == nil {
			return p
		}
		return i.Filename
	},
	"relpath": func(i *issue.Issue) any {
		wd, err := os.Getwd()
		if err != nil {
			return i.Filename
		}
		abs, err := filepath.Abs(i.Filename)
		if err != nil {
			return i.Filename
		}
		if p, err := filepath.Rel(wd, abs); err == nil {
			return p
		}
		return i.Filename
	},
	"line":       func(i *issue.Issue) any { return i.LineNumber },
	"col":        func(i *issue.Issue) any { return i.ColOffset },
	"end_col":    func(i *issue.Issue) any { return i.EndColOffset },
	"test_id":    func(i *issue.Issue) any { return i.TestID },
	"test_name":  func(i *issue.Issue) any { return i.TestName },
	"severity":   func(i *issue.Issue) any { return i.Severity.String() },
	"confidence": func(i *issue.Issue) any { return i.Confidence.String() },
	"msg":        func(i *issue.Issue) any { return i.Text },
	"range":      func(i *issue.Issue) any { return pyList(i.LineRange) },
	"cwe":        func(i *issue.Issue) any { return i.CWE.String() },
}

// CustomFormatter renders one line per result from Report.MsgTemplate.
type CustomFormatter struct{}

// Format renders the results through the message template. An unknown
// tag is an error.
func (f *CustomFormatter) Format(r *Report) ([]byte, error) {
	tmpl := r.MsgTemplate
	if tmpl == "" {
		tmpl = DefaultMsgTemplate
	}
	for _, m := range tagRE.FindAllStringSubmatch(tmpl, -1) {
		if _, ok := tags[m[1]]; !ok {
			return nil, fmt.Errorf("custom formatter: unknown tag %q in message template", m[1])
		}
	}

	var lines []string
	for _, i := range r.Results {
		lines = append(lines, expand(tmpl, i))
	}
	if len(lines) == 0 {
		return nil, nil
	}
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

func expand(tmpl string, i *issue.Issue) string {
	return tagRE.ReplaceAllStringFunc(tmpl, func(tag string) string {
		m := tagRE.FindStringSubmatch(tag)
		v := tags[m[1]](i)
		return pad(v, m[2], m[3])
	})
}

// pad applies an alignment and width. Numbers align right and text left
// unless an alignment is given.
func pad(v any, align, width string) string {
	s := fmt.Sprint(v)
	w, err := strconv.Atoi(width)
	if err != nil || len(s) >= w {
		return s
	}
	if align == "" {
		align = "<"
		if _, isInt := v.(int); isInt {
			align = ">"
		}
	}
	gap := w - len(s)
	switch align {
	case ">":
		return strings.Repeat(" ", gap) + s
	case "^":
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}
