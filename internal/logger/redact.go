package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// Mask replaces registered secret values in log output.
const Mask = "[REDACTED]"

// minSecretLength guards against registering values so short that
// redaction would mangle unrelated output.
const minSecretLength = 4

var (
	// secretsMu protects the registered secrets slice.
	//nolint:gochecknoglobals // Redaction must apply to every logger in the process.
	secretsMu sync.RWMutex
	// secrets holds values that must never appear in log output.
	//nolint:gochecknoglobals // Redaction must apply to every logger in the process.
	secrets []string
)

// RegisterSecret marks a value for redaction in all log output.
// Empty and very short values are ignored.
func RegisterSecret(value string) {
	if len(value) < minSecretLength {
		return
	}

	secretsMu.Lock()
	defer secretsMu.Unlock()

	secrets = append(secrets, value)
}

// Redact replaces every registered secret in s with the mask.
func Redact(s string) string {
	secretsMu.RLock()
	defer secretsMu.RUnlock()

	for _, secret := range secrets {
		s = strings.ReplaceAll(s, secret, Mask)
	}

	return s
}

// redactingCore wraps a zapcore.Core and scrubs registered secrets
// from messages and string fields before they are written.
type redactingCore struct {
	zapcore.Core
}

// Check adds the core to a checked entry if the log entry level is enabled for logging.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With returns a new redacting core with the provided fields scrubbed and attached.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{c.Core.With(redactFields(fields))}
}

// Write scrubs the message and string fields before delegating to the wrapped core.
//
//nolint:gocritic // Write signature is fixed by zapcore.Core.
func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = Redact(ent.Message)

	return c.Core.Write(ent, redactFields(fields))
}

// redactFields scrubs string field values, leaving other field types untouched.
func redactFields(fields []zapcore.Field) []zapcore.Field {
	result := make([]zapcore.Field, len(fields))
	for i, field := range fields {
		if field.Type == zapcore.StringType {
			field.String = Redact(field.String)
		}

		result[i] = field
	}

	return result
}
