package sarif

import (
	"time"

	"github.com/chris-regnier/bailiff/internal/issue"
)

// Assembler provides a builder pattern for constructing a single-run log.
type Assembler struct {
	toolName     string
	toolVersion  string
	infoURI      string
	helpURI      func(testID, testName string) string
	contextLines int

	rules     []ReportingDescriptor
	ruleIndex map[string]int
	results   []Result
	notes     []Notification
	workDir   string
	endTime   time.Time
}

// NewAssembler creates an assembler for the named tool.
func NewAssembler(toolName, toolVersion string) *Assembler {
	return &Assembler{
		toolName:     toolName,
		toolVersion:  toolVersion,
		contextLines: 3,
		ruleIndex:    make(map[string]int),
		results:      []Result{},
	}
}

// WithInformationURI sets the tool's home page.
func (a *Assembler) WithInformationURI(uri string) *Assembler {
	a.infoURI = uri
	return a
}

// WithHelpURI sets the function naming each rule's documentation page.
func (a *Assembler) WithHelpURI(fn func(testID, testName string) string) *Assembler {
	a.helpURI = fn
	return a
}

// WithContextLines sets how many source lines each snippet carries.
func (a *Assembler) WithContextLines(n int) *Assembler {
	a.contextLines = n
	return a
}

// WithWorkingDirectory records the directory the scan ran in.
func (a *Assembler) WithWorkingDirectory(dir string) *Assembler {
	a.workDir = dir
	return a
}

// WithEndTime records when the scan finished.
func (a *Assembler) WithEndTime(t time.Time) *Assembler {
	a.endTime = t
	return a
}

// AddIssues converts issues to results, registering each rule once in
// first-seen order.
func (a *Assembler) AddIssues(issues []*issue.Issue) *Assembler {
	for _, i := range issues {
		idx, ok := a.ruleIndex[i.TestID]
		if !ok {
			help := ""
			if a.helpURI != nil {
				help = a.helpURI(i.TestID, i.TestName)
			}
			idx = len(a.rules)
			a.rules = append(a.rules, RuleFromIssue(i, help))
			a.ruleIndex[i.TestID] = idx
		}
		a.results = append(a.results, ResultFromIssue(i, idx, a.contextLines))
	}
	return a
}

// AddSkipped reports a file that could not be scanned as a tool
// execution notification.
func (a *Assembler) AddSkipped(filename, reason string) *Assembler {
	a.notes = append(a.notes, Notification{
		Level:   "error",
		Message: Message{Text: reason},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{ArtifactLocation: ArtifactLocation{URI: URI(filename)}},
		}},
	})
	return a
}

// Build constructs the final log.
func (a *Assembler) Build() *Log {
	log := NewLog(a.toolName, a.toolVersion)
	run := &log.Runs[0]
	run.Tool.Driver.InformationURI = a.infoURI
	run.Tool.Driver.Rules = a.rules
	run.Results = a.results

	inv := Invocation{
		ExecutionSuccessful:        true,
		ToolExecutionNotifications: a.notes,
	}
	if a.workDir != "" {
		inv.WorkingDirectory = &ArtifactLocation{URI: URI(a.workDir)}
	}
	if !a.endTime.IsZero() {
		inv.EndTimeUTC = a.endTime.UTC().Format(time.RFC3339)
	}
	run.Invocations = []Invocation{inv}
	return log
}
