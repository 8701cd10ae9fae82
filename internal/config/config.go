// Package config loads the analyzer's configuration document and resolves
// it, together with a profile and command-line selections, into the
// effective rule set.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Profile is a named include/exclude selection of rule IDs or names.
type Profile struct {
	Include []string
	Exclude []string
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled        bool
	Endpoint       string
	Protocol       string // "grpc" or "http"
	Insecure       bool
	Headers        map[string]string
	SampleRate     float64
	ServiceName    string
	ServiceVersion string
}

// GateConfig points at an optional Rego policy deciding the exit status.
type GateConfig struct {
	PolicyDir string
	Query     string
}

// Document is a normalized configuration document. Raw keeps every
// top-level key so rule configuration blocks and legacy rule-list
// overrides can be looked up by name.
type Document struct {
	Path string

	Include      []string
	Exclude      []string
	Profiles     map[string]Profile
	IncludeGlobs []string
	ExcludeDirs  []string
	// NosecMarker replaces the "nosec" suppression comment marker.
	NosecMarker string

	Telemetry TelemetryConfig
	Gate      GateConfig

	Raw map[string]any
}

// Block returns the top-level mapping stored under key, or nil.
func (d *Document) Block(key string) map[string]any {
	if d == nil {
		return nil
	}
	m, _ := asMap(d.Raw[key])
	return m
}

// Load reads a configuration file. YAML is the default dialect; .toml
// files are read as TOML, and pyproject.toml contributes its
// [tool.bailiff] table.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrConfigUnopenable, path, err)
	}

	raw := map[string]any{}
	switch {
	case filepath.Base(path) == "pyproject.toml":
		var doc map[string]any
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrConfigInvalid, path, err)
		}
		if tool, ok := asMap(doc["tool"]); ok {
			if section, ok := asMap(tool["bailiff"]); ok {
				raw = section
			}
		}
	case strings.EqualFold(filepath.Ext(path), ".toml"):
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrConfigInvalid, path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrConfigInvalid, path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	doc, err := FromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrConfigInvalid, path, err)
	}
	doc.Path = path
	return doc, nil
}

// FromMap normalizes a decoded document. "tests" and "skips" are accepted
// as aliases for "include" and "exclude".
func FromMap(raw map[string]any) (*Document, error) {
	doc := &Document{Raw: raw, Profiles: map[string]Profile{}}

	include, err := stringsKey(raw, "include", "tests")
	if err != nil {
		return nil, err
	}
	doc.Exclude, err = stringsKey(raw, "exclude", "skips")
	if err != nil {
		return nil, err
	}
	// Older documents listed file globs under "include".
	for _, v := range include {
		if strings.ContainsAny(v, "*?[") {
			slog.Warn("file globs under \"include\" are deprecated, use \"include_globs\"", "glob", v)
			doc.IncludeGlobs = append(doc.IncludeGlobs, v)
			continue
		}
		doc.Include = append(doc.Include, v)
	}

	globs, err := stringsKey(raw, "include_globs")
	if err != nil {
		return nil, err
	}
	doc.IncludeGlobs = append(doc.IncludeGlobs, globs...)
	if doc.ExcludeDirs, err = stringsKey(raw, "exclude_dirs"); err != nil {
		return nil, err
	}
	if v, ok := raw["nosec_marker"]; ok {
		doc.NosecMarker = strings.TrimSpace(asString(v))
		if doc.NosecMarker == "" {
			return nil, errors.New("nosec_marker must be a non-empty string")
		}
	}

	if v, ok := raw["profiles"]; ok {
		profiles, ok := asMap(v)
		if !ok {
			return nil, errors.New("profiles must be a mapping")
		}
		for name, p := range profiles {
			pm, ok := asMap(p)
			if !ok {
				return nil, fmt.Errorf("profile %q must be a mapping", name)
			}
			var prof Profile
			if prof.Include, err = stringsKey(pm, "include", "tests"); err != nil {
				return nil, fmt.Errorf("profile %q: %w", name, err)
			}
			if prof.Exclude, err = stringsKey(pm, "exclude", "skips"); err != nil {
				return nil, fmt.Errorf("profile %q: %w", name, err)
			}
			doc.Profiles[name] = prof
		}
	}

	if t, ok := asMap(raw["telemetry"]); ok {
		doc.Telemetry = TelemetryConfig{
			Enabled:        asBool(t["enabled"]),
			Endpoint:       asString(t["endpoint"]),
			Protocol:       asString(t["protocol"]),
			Insecure:       asBool(t["insecure"]),
			SampleRate:     asFloat(t["sample_rate"]),
			ServiceName:    asString(t["service_name"]),
			ServiceVersion: asString(t["service_version"]),
		}
		if h, ok := asMap(t["headers"]); ok {
			doc.Telemetry.Headers = make(map[string]string, len(h))
			for k, v := range h {
				doc.Telemetry.Headers[k] = asString(v)
			}
		}
	}

	if g, ok := asMap(raw["gate"]); ok {
		doc.Gate = GateConfig{
			PolicyDir: asString(g["policy_dir"]),
			Query:     asString(g["query"]),
		}
	}

	return doc, nil
}

// Merge combines documents in order of increasing precedence. Non-empty
// lists and set fields from later documents override earlier ones; raw
// blocks are replaced key by key.
func Merge(docs ...*Document) *Document {
	result := &Document{Profiles: map[string]Profile{}, Raw: map[string]any{}}

	for _, d := range docs {
		if d == nil {
			continue
		}
		if d.Path != "" {
			result.Path = d.Path
		}
		if len(d.Include) > 0 {
			result.Include = d.Include
		}
		if len(d.Exclude) > 0 {
			result.Exclude = d.Exclude
		}
		if len(d.IncludeGlobs) > 0 {
			result.IncludeGlobs = d.IncludeGlobs
		}
		if len(d.ExcludeDirs) > 0 {
			result.ExcludeDirs = d.ExcludeDirs
		}
		if d.NosecMarker != "" {
			result.NosecMarker = d.NosecMarker
		}
		for name, p := range d.Profiles {
			result.Profiles[name] = p
		}
		for k, v := range d.Raw {
			result.Raw[k] = v
		}

		t := d.Telemetry
		if t.Enabled {
			result.Telemetry.Enabled = true
		}
		if t.Endpoint != "" {
			result.Telemetry.Endpoint = t.Endpoint
		}
		if t.Protocol != "" {
			result.Telemetry.Protocol = t.Protocol
		}
		if t.Insecure {
			result.Telemetry.Insecure = true
		}
		if len(t.Headers) > 0 {
			result.Telemetry.Headers = t.Headers
		}
		if t.SampleRate > 0 {
			result.Telemetry.SampleRate = t.SampleRate
		}
		if t.ServiceName != "" {
			result.Telemetry.ServiceName = t.ServiceName
		}
		if t.ServiceVersion != "" {
			result.Telemetry.ServiceVersion = t.ServiceVersion
		}

		if d.Gate.PolicyDir != "" {
			result.Gate.PolicyDir = d.Gate.PolicyDir
		}
		if d.Gate.Query != "" {
			result.Gate.Query = d.Gate.Query
		}
	}

	return result
}

// projectFiles are the names Discover looks for, in order.
var projectFiles = []string{".bailiff.yaml", ".bailiff.yml", ".bailiff.toml"}

// Discover returns the path of the project config file in dir, or
// ErrNoConfigFile.
func Discover(dir string) (string, error) {
	for _, name := range projectFiles {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoConfigFile, dir)
}

// LoadTiered merges the system defaults with the document at path. An
// empty path discovers a project file in the working directory and falls
// back to the defaults alone when there is none.
func LoadTiered(path string) (*Document, error) {
	if path == "" {
		found, err := Discover(".")
		if err != nil {
			if errors.Is(err, ErrNoConfigFile) {
				slog.Debug("no config file found, using defaults")
				return Merge(SystemDefaults()), nil
			}
			return nil, err
		}
		path = found
	}

	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Merge(SystemDefaults(), doc), nil
}
