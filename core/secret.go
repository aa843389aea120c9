package core

// Secret wraps an API key so it cannot leak through logging or serialization.
// String, GoString, JSON and text marshaling all yield a placeholder; use
// Expose for the Authorization header.
//
//	secret := NewSecret("vn-abc123")
//	fmt.Println(secret)  // [REDACTED]
//	secret.Expose()      // "vn-abc123"
type Secret struct {
	value string
}

// NewSecret creates a new Secret from a string value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// String implements fmt.Stringer.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer.
func (s Secret) GoString() string {
	return "core.Secret{[REDACTED]}"
}

// MarshalJSON implements json.Marshaler.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}

// MarshalText implements encoding.TextMarshaler, which also covers YAML.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// Expose returns the actual secret value.
// Be careful not to log or serialize the returned value.
func (s Secret) Expose() string {
	return s.value
}

// IsEmpty returns true if the secret value is empty.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

// Hint returns a masked form that keeps the last four characters, for
// telling keys apart in listings. Keys of eight characters or fewer are
// fully masked.
func (s Secret) Hint() string {
	if s.value == "" {
		return ""
	}
	if len(s.value) <= 8 {
		return "****"
	}
	return "****" + s.value[len(s.value)-4:]
}
