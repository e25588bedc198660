// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a sane console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.),
//   - redaction of registered secrets such as registry credentials.
//
// All services accept a context and extract the logger from it, enabling
// scoped, structured logging throughout the codebase. Secrets registered via
// RegisterSecret are masked in every message and string field.
package logger
