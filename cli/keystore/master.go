package keystore

import (
	"crypto/sha256"
	"errors"
	"os"
)

// PassphraseEnv names the environment variable holding the keystore
// passphrase.
const PassphraseEnv = "VENICE_KEYSTORE_PASSPHRASE"

// ErrEmptyMasterKey is returned by a source that yields no key material.
var ErrEmptyMasterKey = errors.New("keystore: empty master key")

// MasterKeySource supplies the secret the file encryption key is derived
// from.
type MasterKeySource interface {
	MasterKey() ([]byte, error)
}

// PassphraseSource uses a fixed passphrase.
type PassphraseSource string

// MasterKey implements MasterKeySource.
func (p PassphraseSource) MasterKey() ([]byte, error) {
	if p == "" {
		return nil, ErrEmptyMasterKey
	}
	return []byte(p), nil
}

// MachineSource derives a key from the hostname and user name. It keeps
// keys off disk in plain text but does not protect against someone with
// access to the same account.
type MachineSource struct{}

// MasterKey implements MasterKeySource.
func (MachineSource) MasterKey() ([]byte, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	sum := sha256.Sum256([]byte(hostname + ":" + username + ":venice-keystore"))
	return sum[:], nil
}

// DefaultMasterKeySource prefers $VENICE_KEYSTORE_PASSPHRASE and falls back
// to MachineSource.
func DefaultMasterKeySource() MasterKeySource {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return PassphraseSource(p)
	}
	return MachineSource{}
}
