// Package logging wraps log/slog with the authd conventions: a JSON handler
// in production and text in development, a configurable level threshold, and
// service/version attributes stamped on every record.
//
// Configured from the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log secrets: no tokens, passwords, digests, or signing keys at any
// level. The seeded admin password is the single deliberate exception, logged
// once at first boot so the operator can capture it.
package logging
