package config

import "errors"

var (
	// ErrConfigUnopenable means the config file could not be read.
	ErrConfigUnopenable = errors.New("could not open config file")
	// ErrConfigInvalid means the config file could not be decoded.
	ErrConfigInvalid = errors.New("invalid config file")
	// ErrProfileNotFound means the requested profile is not in the document.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrConfig covers inconsistent or unknown rule selections.
	ErrConfig = errors.New("configuration error")
	// ErrNoConfigFile means discovery found no config file to load.
	ErrNoConfigFile = errors.New("no config file found")
)
