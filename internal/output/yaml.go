package output

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter renders the same document as the JSON formatter in YAML.
type YAMLFormatter struct{}

// Format serializes the report document as YAML.
func (f *YAMLFormatter) Format(r *Report) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("yaml formatter: report is required")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(document(r)); err != nil {
		return nil, fmt.Errorf("yaml formatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yaml formatter: %w", err)
	}
	return buf.Bytes(), nil
}
