package config

import "strings"

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsProductionLike reports staging or production, where development
// defaults are rejected.
func (c ServerConfig) IsProductionLike() bool {
	env := strings.ToLower(c.Environment)
	return env == EnvStaging || env == EnvProduction
}
