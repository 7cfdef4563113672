// Package config loads and validates authd configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file, then
// AUTHD_* environment variable overrides. The result is validated once at
// startup and treated as immutable afterwards: signing keys, issuer, and
// cookie domain are never mutated while the process runs.
//
// Missing signing material (RSA private key file, refresh secret) fails
// validation: a token service without its keys must not start.
package config
