package astcheck

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

const (
	modeOtherWrite = 0o002
	modeGroupExec  = 0o010
)

// SetBadFilePermissions flags chmod calls granting world-write or group-execute.
func SetBadFilePermissions() Rule {
	return NewRule("B103", "set_bad_file_permissions", setBadFilePermissions, kinds(pyast.KindCall),
		WithHints(issue.Medium, issue.High, 732))
}

func setBadFilePermissions(c *inspect.Context, _ Config) *issue.Issue {
	if !strings.Contains(c.CallFunctionName(), "chmod") || c.CallArgsCount() != 2 {
		return nil
	}
	mode, ok := c.CallArgAtPosition(1).(int64)
	if !ok {
		return nil
	}
	if mode&modeOtherWrite != modeOtherWrite && mode&modeGroupExec != modeGroupExec {
		return nil
	}
	sev := issue.Medium
	if mode&modeOtherWrite == modeOtherWrite {
		sev = issue.High
	}
	target := "NOT PARSED"
	if name, ok := c.CallArgAtPosition(0).(string); ok {
		target = name
	}
	return issue.New(sev, issue.High, 732,
		fmt.Sprintf("Chmod setting a permissive mask 0o%s on file (%s).", strconv.FormatInt(mode, 8), target))
}
