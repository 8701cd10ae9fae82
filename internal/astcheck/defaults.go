package astcheck

// Builtins returns the built-in rules in ID order.
func Builtins() []Rule {
	return []Rule{
		AssertUsed(),
		ExecUsed(),
		SetBadFilePermissions(),
		HardcodedBindAllInterfaces(),
		HardcodedPasswordString(),
		HardcodedPasswordFuncarg(),
		HardcodedPasswordDefault(),
		HardcodedTmpDirectory(),
		TryExceptPass(),
		TryExceptContinue(),
		RequestWithoutTimeout(),
		FlaskDebugTrue(),
		HashlibInsecureFunctions(),
		RequestWithNoCertValidation(),
		YamlLoad(),
		SubprocessPopenWithShellEqualsTrue(),
		SubprocessWithoutShellEqualsTrue(),
		AnyOtherFunctionWithShellEqualsTrue(),
		StartProcessWithAShell(),
		StartProcessWithNoShell(),
		StartProcessWithPartialPath(),
		HardcodedSQLExpressions(),
		Jinja2AutoescapeFalse(),
	}
}

// DefaultRegistry returns a Registry pre-loaded with all built-in rules.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, rule := range Builtins() {
		r.Register(rule)
	}
	return r
}
