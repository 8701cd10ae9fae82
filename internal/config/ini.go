package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// IniSection is the section of an ini file holding command-line defaults.
const IniSection = "bailiff"

// DefaultIniFile is read from the working directory when --ini is not given.
const DefaultIniFile = ".bailiff"

// LoadIni reads the [bailiff] section of an ini file. Keys are returned
// with underscores replaced by dashes so they line up with flag names.
func LoadIni(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrConfigUnopenable, path, err)
	}
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrConfigInvalid, path, err)
	}
	if !f.HasSection(IniSection) {
		return nil, fmt.Errorf("%w %s: missing [%s] section", ErrConfigInvalid, path, IniSection)
	}

	out := make(map[string]string)
	for _, key := range f.Section(IniSection).Keys() {
		out[strings.ReplaceAll(key.Name(), "_", "-")] = strings.TrimSpace(key.String())
	}
	return out, nil
}
