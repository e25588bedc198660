package registry

import (
	"github.com/oshokin/release-button/internal/logger"
)

// Credential is an opaque registry upload token. It is handed only to the
// upload step, its printable forms are always masked, and the value is
// registered with the logger so redaction covers accidental formatting too.
type Credential struct {
	value string
}

// NewCredential wraps a raw token value and registers it for log redaction.
func NewCredential(value string) Credential {
	logger.RegisterSecret(value)

	return Credential{value: value}
}

// Empty reports whether no token was supplied.
func (c Credential) Empty() bool {
	return c.value == ""
}

// reveal returns the raw token. It stays unexported so the value can only be
// used inside this package, at the authentication call site.
func (c Credential) reveal() string {
	return c.value
}

// String implements fmt.Stringer and always masks the token.
func (c Credential) String() string {
	return logger.Mask
}

// GoString masks the token in %#v output as well.
func (c Credential) GoString() string {
	return "registry.Credential(" + logger.Mask + ")"
}
