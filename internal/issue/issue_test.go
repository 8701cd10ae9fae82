package issue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Issue {
	return &Issue{
		Severity:   Medium,
		Confidence: High,
		CWE:        CWE{ID: 78},
		TestID:     "B102",
		TestName:   "exec_used",
		Text:       "Use of exec detected.",
		Filename:   "a.py",
		LineNumber: 3,
		LineRange:  []int{3},
	}
}

func TestLevelWeights(t *testing.T) {
	assert.Equal(t, 1, Undefined.Weight())
	assert.Equal(t, 3, Low.Weight())
	assert.Equal(t, 5, Medium.Weight())
	assert.Equal(t, 10, High.Weight())
	assert.Equal(t, "Medium", Medium.Title())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"low", Low},
		{"M", Medium},
		{"HIGH", High},
		{"undefined", Undefined},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseLevel("critical")
	assert.Error(t, err)
}

func TestLevelFromCount(t *testing.T) {
	assert.Equal(t, Undefined, LevelFromCount(0))
	assert.Equal(t, Low, LevelFromCount(1))
	assert.Equal(t, Medium, LevelFromCount(2))
	assert.Equal(t, High, LevelFromCount(3))
	assert.Equal(t, High, LevelFromCount(7))
}

func TestEqualIgnoresLine(t *testing.T) {
	a := sample()
	b := sample()
	b.LineNumber = 40
	b.LineRange = []int{40, 41}
	assert.True(t, a.Equal(b))

	b.Text = "other"
	assert.False(t, a.Equal(b))

	c := sample()
	c.Severity = Low
	assert.False(t, a.Equal(c))
}

func TestFilterMonotonic(t *testing.T) {
	i := sample()
	for _, s1 := range Ranking {
		for _, s2 := range Ranking {
			if s1 > s2 {
				continue
			}
			if i.Filter(s2, Undefined) {
				assert.True(t, i.Filter(s1, Undefined), "%s <= %s", s1, s2)
			}
		}
	}
	assert.True(t, i.Filter(Medium, High))
	assert.False(t, i.Filter(High, Undefined))
}

func TestCodeSnippet(t *testing.T) {
	i := sample()
	i.SetSource([]byte("import os\nx = 1\nexec(x)\ny = 2\nz = 3\n"))

	assert.Equal(t, "2 x = 1\n3 exec(x)\n4 y = 2\n", i.Code(3, false))
	assert.Equal(t, "3\texec(x)\n", i.Code(1, true))
}

func TestCodeSnippetStopsAtEOF(t *testing.T) {
	i := sample()
	i.LineNumber = 1
	i.LineRange = []int{1}
	i.SetSource([]byte("exec('x')"))
	assert.Equal(t, "1 exec('x')", i.Code(5, false))
}

func TestAsMapAndFromRecord(t *testing.T) {
	i := sample()
	m := i.AsMap(false, 3)
	assert.Equal(t, "MEDIUM", m["issue_severity"])
	assert.Equal(t, map[string]any{"id": 78, "link": "https://cwe.mitre.org/data/definitions/78.html"}, m["issue_cwe"])
	assert.NotContains(t, m, "code")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))

	back, err := FromRecord(rec)
	require.NoError(t, err)
	assert.True(t, i.Equal(back))
	assert.Equal(t, 3, back.LineNumber)
	assert.Equal(t, []int{3}, back.LineRange)
	assert.Equal(t, 78, back.CWE.ID)
}

func TestFromRecordRejectsIncomplete(t *testing.T) {
	_, err := FromRecord(map[string]any{"issue_severity": "LOW", "issue_confidence": "LOW"})
	assert.Error(t, err)
}

func TestScores(t *testing.T) {
	var s Scores
	s.Add(sample())
	s.Add(sample())
	low := sample()
	low.Severity = Low
	s.Add(low)

	assert.Equal(t, 10, s.Severity[Medium])
	assert.Equal(t, 3, s.Severity[Low])
	assert.Equal(t, 30, s.Confidence[High])

	counts := s.Counts()
	assert.Equal(t, 2, counts["SEVERITY.MEDIUM"])
	assert.Equal(t, 1, counts["SEVERITY.LOW"])
	assert.Equal(t, 3, counts["CONFIDENCE.HIGH"])

	var total Scores
	total.Merge(s)
	total.Merge(s)
	assert.Equal(t, 20, total.Severity[Medium])
}

func TestSort(t *testing.T) {
	a := sample()
	a.Filename = "b.py"
	a.TestName = "alpha"
	b := sample()
	b.Filename = "a.py"
	b.TestName = "zulu"
	list := []*Issue{a, b}

	Sort(list, "file")
	assert.Equal(t, "a.py", list[0].Filename)
	Sort(list, "vuln")
	assert.Equal(t, "alpha", list[0].TestName)
}
