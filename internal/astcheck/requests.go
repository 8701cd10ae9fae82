package astcheck

import (
	"fmt"
	"strings"

	"github.com/chris-regnier/bailiff/internal/inspect"
	"github.com/chris-regnier/bailiff/internal/issue"
	"github.com/chris-regnier/bailiff/internal/pyast"
)

var httpVerbs = []string{"get", "options", "head", "post", "put", "patch", "delete", "request", "stream"}

var httpClients = []string{"requests", "httpx"}

// httpCall reports whether the call is a module-level verb of a known HTTP client.
func httpCall(c *inspect.Context) bool {
	qual := c.CallFunctionNameQual()
	parts := strings.Split(qual, ".")
	if len(parts) != 2 {
		return false
	}
	return contains(httpClients, parts[0]) && contains(httpVerbs, parts[1])
}

// RequestWithNoCertValidation flags HTTP calls made with verify=False.
func RequestWithNoCertValidation() Rule {
	return NewRule("B501", "request_with_no_cert_validation", requestWithNoCertValidation, kinds(pyast.KindCall),
		WithHints(issue.High, issue.High, 295))
}

func requestWithNoCertValidation(c *inspect.Context, _ Config) *issue.Issue {
	if !httpCall(c) {
		return nil
	}
	if match, _ := c.CheckCallArgValue("verify", "False"); !match {
		return nil
	}
	is := issue.New(issue.High, issue.High, 295, fmt.Sprintf(
		"Call to %s with verify=False disabling SSL certificate checks, security issue.",
		lastPart(c.CallFunctionNameQual())))
	is.LineNumber = c.LinenoForCallArg("verify")
	return is
}

// RequestWithoutTimeout flags HTTP calls that may block forever.
func RequestWithoutTimeout() Rule {
	return NewRule("B113", "request_without_timeout", requestWithoutTimeout, kinds(pyast.KindCall),
		WithHints(issue.Medium, issue.Low, 400))
}

func requestWithoutTimeout(c *inspect.Context, _ Config) *issue.Issue {
	qual := c.CallFunctionNameQual()
	parts := strings.Split(qual, ".")
	// httpx applies a default timeout.
	if len(parts) != 2 || parts[0] != "requests" || !contains(httpVerbs, parts[1]) {
		return nil
	}
	v, ok := c.CallArgValue("timeout")
	if !ok {
		return issue.New(issue.Medium, issue.Low, 400,
			fmt.Sprintf("Call to %s without timeout", qual))
	}
	if v == "None" {
		return issue.New(issue.Medium, issue.Low, 400,
			fmt.Sprintf("Call to %s with timeout set to None", qual))
	}
	return nil
}
