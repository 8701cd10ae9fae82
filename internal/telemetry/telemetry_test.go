package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chris-regnier/bailiff/internal/config"
)

// shutdownCtx bounds shutdown so tests do not wait on an absent collector.
func shutdownCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

func enabledConfig(protocol, endpoint string) config.TelemetryConfig {
	return config.TelemetryConfig{
		Enabled:     true,
		Endpoint:    endpoint,
		Protocol:    protocol,
		Insecure:    true,
		ServiceName: "bailiff-test",
		SampleRate:  1.0,
	}
}

func TestInit_Disabled(t *testing.T) {
	t.Setenv(EnvEnabled, "")
	shutdown, err := Init(context.Background(), config.TelemetryConfig{})
	if err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown returned error: %v", err)
	}
}

func TestEnabled_EnvOverride(t *testing.T) {
	tests := []struct {
		env     string
		cfg     bool
		enabled bool
	}{
		{"", true, true},
		{"", false, false},
		{"false", true, false},
		{"TRUE", false, true},
		{"True", false, true},
		{"1", false, true},
		{"yes", true, false},
	}
	for _, tc := range tests {
		t.Run(tc.env, func(t *testing.T) {
			t.Setenv(EnvEnabled, tc.env)
			if got := Enabled(config.TelemetryConfig{Enabled: tc.cfg}); got != tc.enabled {
				t.Errorf("Enabled(cfg=%v) with %s=%q = %v, want %v", tc.cfg, EnvEnabled, tc.env, got, tc.enabled)
			}
		})
	}
}

func TestInit_EnvDisablesConfigured(t *testing.T) {
	t.Setenv(EnvEnabled, "false")
	shutdown, err := Init(context.Background(), enabledConfig("grpc", "localhost:4317"))
	if err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown returned error: %v", err)
	}
}

func TestInit_Protocols(t *testing.T) {
	t.Setenv(EnvEnabled, "")
	for _, tc := range []struct{ protocol, endpoint string }{
		{"grpc", "localhost:4317"},
		{"http", "localhost:4318"},
		{"", "localhost:4317"},
	} {
		t.Run(tc.protocol, func(t *testing.T) {
			cfg := enabledConfig(tc.protocol, tc.endpoint)
			cfg.Headers = map[string]string{"Authorization": "Bearer test-token"}
			// Exporters connect lazily, so no collector is needed.
			shutdown, err := Init(context.Background(), cfg)
			if err != nil {
				t.Fatalf("Init(%q) returned error: %v", tc.protocol, err)
			}
			_ = shutdown(shutdownCtx(t))
		})
	}
}

func TestInit_UnknownProtocol(t *testing.T) {
	t.Setenv(EnvEnabled, "")
	_, err := Init(context.Background(), enabledConfig("carrier-pigeon", "localhost:1"))
	if !errors.Is(err, ErrUnknownProtocol) {
		t.Errorf("expected ErrUnknownProtocol, got %v", err)
	}
}
