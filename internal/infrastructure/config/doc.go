// Package config loads and validates authcore configuration.
//
// Configuration is read from a YAML file, with defaults applied first and
// environment variable overrides (AUTHCORE_*) applied last. The resulting
// Config struct is built once at startup and passed by reference to the
// components that need it — nothing reads the process environment at
// request time.
//
// Security-sensitive values (JWT signing secrets) are validated at load
// time: both secrets are required, must be at least 32 characters, and must
// differ from each other so that a token signed for one purpose can never
// validate for the other.
package config
