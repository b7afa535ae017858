// Package config loads process settings from defaults, an optional YAML file
// and TENANTVEC_* environment variables, in that order of precedence.
package config
