package output

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter renders the report as indented JSON with sorted keys.
type JSONFormatter struct{}

// Format serializes the report document as pretty-printed JSON.
func (f *JSONFormatter) Format(r *Report) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("json formatter: report is required")
	}
	data, err := json.MarshalIndent(document(r), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json formatter: %w", err)
	}
	return append(data, '\n'), nil
}
