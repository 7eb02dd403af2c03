// Package secret defines the capability-scoped key-value store used for small
// secrets: biometric key material and the cached credential blob.
//
// The contract mirrors an OS keychain: plain Set/Get/Delete on string keys,
// no transactional guarantee across keys. Callers sequence writes themselves
// and must tolerate partial failure. Biometric gating is not a store concern;
// it is enforced by the enrollment layer before any read or write of gated
// entries.
package secret

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no value exists for the key.
	ErrNotFound = errors.New("secret: not found")
	// ErrUnavailable wraps backend failures of a store implementation.
	ErrUnavailable = errors.New("secret: store unavailable")
)

// Store is a minimal secret store. Implementations must treat Delete of an
// absent key as success so enrollment teardown is safe to retry.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
