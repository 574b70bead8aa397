// Package store defines the key/value storage capability behind the
// persistent catalog cache, and selects a backend from configuration.
package store

import "errors"

var (
	// ErrNotFound is returned by GetItem for a key that is not stored.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnavailable is returned by every operation of a disabled storage.
	ErrUnavailable = errors.New("storage: unavailable")
	// ErrQuotaExceeded is returned when a write does not fit the backend's quota.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// Storage is a flat string key/value store shaped after the browser's
// localStorage. Implementations must be safe for concurrent use.
type Storage interface {
	GetItem(key string) (string, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	// Keys lists every stored key. Backends with a key prefix return keys
	// without it.
	Keys() ([]string, error)
}

// Disabled is a Storage whose operations all fail with ErrUnavailable, the
// equivalent of a browser with storage turned off.
type Disabled struct{}

// GetItem implements Storage.
func (Disabled) GetItem(string) (string, error) { return "", ErrUnavailable }

// SetItem implements Storage.
func (Disabled) SetItem(string, string) error { return ErrUnavailable }

// RemoveItem implements Storage.
func (Disabled) RemoveItem(string) error { return ErrUnavailable }

// Keys implements Storage.
func (Disabled) Keys() ([]string, error) { return nil, ErrUnavailable }
