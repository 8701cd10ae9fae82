package config

// SystemDefaults returns the built-in configuration.
func SystemDefaults() *Document {
	return &Document{
		Profiles:     map[string]Profile{},
		IncludeGlobs: []string{"*.py", "*.pyw"},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			Insecure:    true,
			SampleRate:  1.0,
			ServiceName: "bailiff",
		},
		Gate: GateConfig{
			Query: "data.bailiff.gate.decision",
		},
		Raw: map[string]any{},
	}
}
