package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

var csvHeader = []string{
	"filename",
	"test_name",
	"test_id",
	"issue_severity",
	"issue_confidence",
	"issue_cwe",
	"issue_text",
	"line_number",
	"col_offset",
	"end_col_offset",
	"line_range",
	"more_info",
}

// CSVFormatter writes one row per result. The CWE column holds its link.
type CSVFormatter struct{}

// Format renders the results as CSV with a header row.
func (f *CSVFormatter) Format(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("csv formatter: %w", err)
	}
	for _, i := range r.Results {
		row := []string{
			i.Filename,
			i.TestName,
			i.TestID,
			i.Severity.String(),
			i.Confidence.String(),
			i.CWE.Link(),
			i.Text,
			strconv.Itoa(i.LineNumber),
			strconv.Itoa(i.ColOffset),
			strconv.Itoa(i.EndColOffset),
			pyList(i.LineRange),
			MoreInfo(i.TestID, i.TestName),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("csv formatter: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv formatter: %w", err)
	}
	return buf.Bytes(), nil
}

// pyList renders ints the way report consumers expect a list: "[1, 2]".
func pyList(ns []int) string {
	parts := make([]string, len(ns))
	for k, n := range ns {
		parts[k] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
