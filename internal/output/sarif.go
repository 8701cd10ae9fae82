package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chris-regnier/bailiff/internal/sarif"
)

const toolURI = "https://github.com/chris-regnier/bailiff"

// SARIFFormatter renders the report as a SARIF 2.1.0 log.
type SARIFFormatter struct{}

// Format builds a single-run log from the results and skipped files.
func (f *SARIFFormatter) Format(r *Report) ([]byte, error) {
	a := sarif.NewAssembler("bailiff", r.Version).
		WithInformationURI(toolURI).
		WithHelpURI(MoreInfo).
		WithContextLines(r.ContextLines).
		WithEndTime(runTime(r)).
		AddIssues(r.Results)
	if wd, err := os.Getwd(); err == nil {
		a.WithWorkingDirectory(wd)
	}
	for _, s := range r.Skipped {
		a.AddSkipped(s.Filename, s.Reason)
	}
	data, err := json.MarshalIndent(a.Build(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sarif formatter: %w", err)
	}
	return append(data, '\n'), nil
}
