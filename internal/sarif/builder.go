package sarif

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"

	"github.com/chris-regnier/bailiff/internal/issue"
)

// Level maps an issue severity onto a SARIF result level.
func Level(sev issue.Level) string {
	switch sev {
	case issue.High:
		return "error"
	case issue.Medium:
		return "warning"
	default:
		return "note"
	}
}

// securitySeverity maps severities to GitHub Code Scanning scores.
func securitySeverity(sev issue.Level) string {
	switch sev {
	case issue.High:
		return "8.0"
	case issue.Medium:
		return "5.0"
	default:
		return "2.0"
	}
}

// precision maps confidence to GitHub Code Scanning precision values.
func precision(conf issue.Level) string {
	switch conf {
	case issue.High:
		return "high"
	case issue.Medium:
		return "medium"
	default:
		return "low"
	}
}

// URI renders a filename as an artifact URI.
func URI(filename string) string {
	return filepath.ToSlash(filename)
}

// RuleFromIssue describes the rule that produced i.
func RuleFromIssue(i *issue.Issue, helpURI string) ReportingDescriptor {
	tags := []string{"security"}
	if i.CWE.ID != 0 {
		tags = append(tags, fmt.Sprintf("external/cwe/cwe-%d", i.CWE.ID))
	}
	return ReportingDescriptor{
		ID:      i.TestID,
		Name:    i.TestName,
		HelpURI: helpURI,
		Properties: map[string]interface{}{
			"tags":              tags,
			"precision":         precision(i.Confidence),
			"security-severity": securitySeverity(i.Severity),
		},
	}
}

// ResultFromIssue converts i into a result pointing at rule ruleIndex. The
// snippet carries up to contextLines lines of source.
func ResultFromIssue(i *issue.Issue, ruleIndex, contextLines int) Result {
	end := i.LineNumber
	for _, l := range i.LineRange {
		if l > end {
			end = l
		}
	}
	region := &Region{
		StartLine:   i.LineNumber,
		EndLine:     end,
		StartColumn: i.ColOffset + 1,
		EndColumn:   i.EndColOffset + 1,
	}
	if code := i.Code(contextLines, false); code != "" {
		region.Snippet = &ArtifactContent{Text: code}
	}

	r := Result{
		RuleID:    i.TestID,
		RuleIndex: ruleIndex,
		Level:     Level(i.Severity),
		Message:   Message{Text: i.Text},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: URI(i.Filename)},
				Region:           region,
			},
		}},
		Properties: map[string]interface{}{
			"issue_severity":   i.Severity.String(),
			"issue_confidence": i.Confidence.String(),
		},
	}
	r.PartialFingerprints = map[string]string{"primaryLocationLineHash": Fingerprint(r)}
	return r
}

// Fingerprint hashes rule, file, and message; the line is left out so the
// fingerprint survives code moving around.
func Fingerprint(r Result) string {
	uri := ""
	if len(r.Locations) > 0 {
		uri = r.Locations[0].PhysicalLocation.ArtifactLocation.URI
	}
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", r.RuleID, uri, r.Message.Text)))
	return fmt.Sprintf("%x", hash[:16])
}
