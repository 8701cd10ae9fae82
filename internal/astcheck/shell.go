package astcheck

import (
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

const shellInjectionKey = "shell_injection"

// fullPathRE matches absolute, relative and drive-qualified executable paths.
var fullPathRE = regexp.MustCompile(`^(?:[A-Za-z]:|[\\/.])`)

func shellInjectionDefaults() Config {
	return Config{
		"subprocess": []string{
			"subprocess.Popen",
			"subprocess.call",
			"subprocess.check_call",
			"subprocess.check_output",
			"subprocess.run",
		},
		"shell": []string{
			"os.system",
			"os.popen",
			"os.popen2",
			"os.popen3",
			"os.popen4",
			"popen2.popen2",
			"popen2.popen3",
			"popen2.popen4",
			"popen2.Popen3",
			"popen2.Popen4",
			"commands.getoutput",
			"commands.getstatusoutput",
			"subprocess.getoutput",
			"subprocess.getstatusoutput",
		},
		"no_shell": []string{
			"os.execl",
			"os.execle",
			"os.execlp",
			"os.execlpe",
			"os.execv",
			"os.execve",
			"os.execvp",
			"os.execvpe",
			"os.spawnl",
			"os.spawnle",
			"os.spawnlp",
			"os.spawnlpe",
			"os.spawnv",
			"os.spawnve",
			"os.spawnvp",
			"os.spawnvpe",
			"os.startfile",
		},
	}
}

func shellRule(id, name string, fn CheckFunc, sev, conf issue.Level) Rule {
	return NewRule(id, name, fn, kinds(pyast.KindCall),
		WithConfig(shellInjectionKey, shellInjectionDefaults),
		WithHints(sev, conf, 78))
}

// hasShell reports whether the call passes a truthy shell keyword.
func hasShell(c *inspect.Context) bool {
	v := c.CallKeywordNode("shell")
	if v == nil {
		return false
	}
	switch v.Type() {
	case "integer", "float":
		switch n := pyast.Literal(v, c.Source).(type) {
		case int64:
			return n != 0
		case float64:
			return n != 0
		}
		return true
	case "list", "tuple", "set", "dictionary":
		return v.NamedChildCount() > 0
	case "false", "none":
		return false
	case "true":
		return true
	case "identifier":
		switch v.Content(c.Source) {
		case "False", "None":
			return false
		}
	}
	return true
}

// literalCommand reports whether the first argument is a plain string,
// which makes a shell call low risk.
func literalCommand(c *inspect.Context) bool {
	arg := c.CallArgNode(0)
	return arg != nil && pyast.KindOf(arg, c.Source) == pyast.KindStr
}

// SubprocessPopenWithShellEqualsTrue flags subprocess calls that spawn a shell.
func SubprocessPopenWithShellEqualsTrue() Rule {
	return shellRule("B602", "subprocess_popen_with_shell_equals_true", subprocessPopenWithShellEqualsTrue, issue.High, issue.High)
}

func subprocessPopenWithShellEqualsTrue(c *inspect.Context, cfg Config) *issue.Issue {
	if !contains(cfg.Strings("subprocess"), c.CallFunctionNameQual()) || !hasShell(c) || c.CallArgsCount() == 0 {
		return nil
	}
	var is *issue.Issue
	if literalCommand(c) {
		is = issue.New(issue.Low, issue.High, 78,
			"subprocess call with shell=True seems safe, but may be changed in the future, consider rewriting without shell")
	} else {
		is = issue.New(issue.High, issue.High, 78, "subprocess call with shell=True identified, security issue.")
	}
	is.LineNumber = c.LinenoForCallArg("shell")
	return is
}

// SubprocessWithoutShellEqualsTrue flags subprocess calls without a shell
// so their arguments can be reviewed.
func SubprocessWithoutShellEqualsTrue() Rule {
	return shellRule("B603", "subprocess_without_shell_equals_true", subprocessWithoutShellEqualsTrue, issue.Low, issue.High)
}

func subprocessWithoutShellEqualsTrue(c *inspect.Context, cfg Config) *issue.Issue {
	if !contains(cfg.Strings("subprocess"), c.CallFunctionNameQual()) || hasShell(c) {
		return nil
	}
	is := issue.New(issue.Low, issue.High, 78, "subprocess call - check for execution of untrusted input.")
	is.LineNumber = c.LinenoForCallArg("shell")
	return is
}

// AnyOtherFunctionWithShellEqualsTrue flags shell=True on calls that are
// not known subprocess functions.
func AnyOtherFunctionWithShellEqualsTrue() Rule {
	return shellRule("B604", "any_other_function_with_shell_equals_true", anyOtherFunctionWithShellEqualsTrue, issue.Medium, issue.Low)
}

func anyOtherFunctionWithShellEqualsTrue(c *inspect.Context, cfg Config) *issue.Issue {
	if contains(cfg.Strings("subprocess"), c.CallFunctionNameQual()) || !hasShell(c) {
		return nil
	}
	is := issue.New(issue.Medium, issue.Low, 78,
		"Function call with shell=True parameter identified, possible security issue.")
	is.LineNumber = c.LinenoForCallArg("shell")
	return is
}

// StartProcessWithAShell flags functions that always run through a shell.
func StartProcessWithAShell() Rule {
	return shellRule("B605", "start_process_with_a_shell", startProcessWithAShell, issue.High, issue.High)
}

func startProcessWithAShell(c *inspect.Context, cfg Config) *issue.Issue {
	if !contains(cfg.Strings("shell"), c.CallFunctionNameQual()) || c.CallArgsCount() == 0 {
		return nil
	}
	if literalCommand(c) {
		return issue.New(issue.Low, issue.High, 78,
			"Starting a process with a shell: Seems safe, but may be changed in the future, consider rewriting without shell")
	}
	return issue.New(issue.High, issue.High, 78,
		"Starting a process with a shell, possible injection detected, security issue.")
}

// StartProcessWithNoShell flags exec and spawn style process launches.
func StartProcessWithNoShell() Rule {
	return shellRule("B606", "start_process_with_no_shell", startProcessWithNoShell, issue.Low, issue.Medium)
}

func startProcessWithNoShell(c *inspect.Context, cfg Config) *issue.Issue {
	if !contains(cfg.Strings("no_shell"), c.CallFunctionNameQual()) {
		return nil
	}
	return issue.New(issue.Low, issue.Medium, 78, "Starting a process without a shell.")
}

// StartProcessWithPartialPath flags process launches whose executable is
// resolved through PATH.
func StartProcessWithPartialPath() Rule {
	return shellRule("B607", "start_process_with_partial_path", startProcessWithPartialPath, issue.Low, issue.High)
}

func startProcessWithPartialPath(c *inspect.Context, cfg Config) *issue.Issue {
	qual := c.CallFunctionNameQual()
	if !contains(cfg.Strings("subprocess"), qual) &&
		!contains(cfg.Strings("shell"), qual) &&
		!contains(cfg.Strings("no_shell"), qual) {
		return nil
	}
	arg := executable(c.CallArgNode(0))
	if arg == nil {
		return nil
	}
	s, ok := pyast.StringValue(arg, c.Source)
	if !ok || fullPathRE.MatchString(s) {
		return nil
	}
	return issue.New(issue.Low, issue.High, 78, "Starting a process with a partial executable path")
}

// executable returns the node naming the program: the first element of a
// list argument, or the argument itself.
func executable(arg *sitter.Node) *sitter.Node {
	if arg == nil {
		return nil
	}
	if arg.Type() == "list" {
		if arg.NamedChildCount() == 0 {
			return nil
		}
		return arg.NamedChild(0)
	}
	return arg
}
