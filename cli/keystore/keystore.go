// Package keystore provides encrypted local storage for API keys.
package keystore

import (
	"path/filepath"

	"github.com/petal-labs/venice/cli/config"
)

// Keystore defines the interface for secure key storage.
type Keystore interface {
	// Set stores a key-value pair.
	Set(name, value string) error
	// Get retrieves a value by name. Returns *ErrKeyNotFound if missing.
	Get(name string) (string, error)
	// Delete removes a key by name.
	Delete(name string) error
	// List returns all stored key names, sorted.
	List() ([]string, error)
}

// ErrKeyNotFound is returned when a requested key does not exist.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// DefaultKeystorePath returns ~/.venice/keys.enc.
func DefaultKeystorePath() string {
	return filepath.Join(config.DefaultDir(), "keys.enc")
}

// NewKeystore opens the default keystore. The master key comes from
// $VENICE_KEYSTORE_PASSPHRASE when set, otherwise from machine identity.
func NewKeystore() (Keystore, error) {
	return NewFileKeystore(DefaultKeystorePath(), DefaultMasterKeySource())
}
