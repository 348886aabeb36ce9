// Package config loads and validates homeydash configuration.
//
// Configuration is read from a YAML file, merged over hardcoded defaults,
// and finally overridden by HOMEYDASH_* environment variables. Validation
// runs once at load time so later consumers can trust the values.
package config
