package config

import "errors"

var (
	ErrParsingConfig     = errors.New("failed to parse environment variables into config")
	ErrInvalidConfigType = errors.New("config type must be a struct")
	ErrEnvFile           = errors.New("failed to read env file")
	ErrEnvAlreadyLoaded  = errors.New("env files already loaded")
)
