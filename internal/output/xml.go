package output

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

type xmlTestSuite struct {
	XMLName   xml.Name      `xml:"testsuite"`
	Name      string        `xml:"name,attr"`
	Tests     string        `xml:"tests,attr"`
	TestCases []xmlTestCase `xml:"testcase"`
}

type xmlTestCase struct {
	ClassName string   `xml:"classname,attr"`
	Name      string   `xml:"name,attr"`
	Error     xmlError `xml:"error"`
}

type xmlError struct {
	MoreInfo string `xml:"more_info,attr"`
	Type     string `xml:"type,attr"`
	Message  string `xml:"message,attr"`
	Text     string `xml:",chardata"`
}

// XMLFormatter renders results as a JUnit-style test suite, one failing
// test case per result.
type XMLFormatter struct{}

// Format renders the results as XML.
func (f *XMLFormatter) Format(r *Report) ([]byte, error) {
	suite := xmlTestSuite{Name: "bailiff", Tests: strconv.Itoa(len(r.Results))}
	for _, i := range r.Results {
		text := fmt.Sprintf("Test ID: %s Severity: %s Confidence: %s\nCWE: %s\n%s\nLocation %s:%d",
			i.TestID, i.Severity, i.Confidence, i.CWE, i.Text, i.Filename, i.LineNumber)
		suite.TestCases = append(suite.TestCases, xmlTestCase{
			ClassName: i.Filename,
			Name:      i.TestName,
			Error: xmlError{
				MoreInfo: MoreInfo(i.TestID, i.TestName),
				Type:     i.Severity.String(),
				Message:  i.Text,
				Text:     text,
			},
		})
	}
	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("xml formatter: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}
