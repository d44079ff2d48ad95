package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound  = goerr.New("configuration file not found")
	ErrInvalidConfig   = goerr.New("invalid configuration")
	ErrUnknownBackend  = goerr.New("unknown backend")
	ErrMissingSetting  = goerr.New("required setting is missing")
	ErrInvalidAttrKind = goerr.New("invalid attribute kind")
)

// Context keys for error values
const (
	ConfigPathKey    = "config_path"
	BackendKey       = "backend"
	FlagKey          = "flag"
	AttributeKey     = "attribute"
	OpportunityIDKey = "opportunity_id"
)
