// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to the settings needed by the HTTP layer and the annotation engines
// while keeping configuration details separate from request handling.
package config
