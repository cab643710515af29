// Package config loads and validates relay configuration.
//
// Configuration is YAML with ${VAR} environment variable expansion.
// Load reads the raw file, LoadWithDefaults fills unset optional fields,
// and LoadAndValidate additionally rejects invalid combinations. The
// database section is optional: an empty host disables the stats sink.
package config
