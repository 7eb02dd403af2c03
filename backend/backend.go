// Package backend defines the remote identity service contract the
// authentication engine consumes, and ships [Hosted], a Redis-backed
// reference implementation used by tests, demos, and self-hosted deployments.
//
// Vendor-specific failures never cross this boundary raw: implementations
// classify them into the closed error set below so the engine can translate
// outcomes without knowing which provider sits behind the interface.
package backend

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyRegistered is returned by CreateAccount for a taken identifier.
	ErrAlreadyRegistered = errors.New("backend: account already registered")
	// ErrInvalidCredentials is returned by SignIn when the identifier or
	// secret does not match.
	ErrInvalidCredentials = errors.New("backend: invalid credentials")
	// ErrWeakSecret is returned by CreateAccount when the secret fails policy.
	ErrWeakSecret = errors.New("backend: secret too weak")
	// ErrRateLimited is returned when the caller exhausted its attempt budget.
	ErrRateLimited = errors.New("backend: rate limited")
	// ErrProfileNotFound is returned when no profile exists for the user id.
	ErrProfileNotFound = errors.New("backend: profile not found")
	// ErrUnavailable wraps transport or storage failures of the backend itself.
	ErrUnavailable = errors.New("backend: unavailable")
)

// Profile is the remote account record mirrored into the engine on
// authentication. BiometricPublicKey is the registered public half of the
// device's biometric key material, empty when the device never enrolled.
type Profile struct {
	UserID             string `json:"user_id"`
	Email              string `json:"email"`
	DisplayName        string `json:"display_name"`
	Phone              string `json:"phone,omitempty"`
	Address            string `json:"address,omitempty"`
	BiometricPublicKey string `json:"biometric_public_key,omitempty"`
}

// ProfileUpdate carries partial profile fields; nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName *string
	Phone       *string
	Address     *string
}

// SessionHandle references the currently signed-in remote identity. The
// backend is the source of truth; the engine only mirrors it.
type SessionHandle struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// IdentityBackend is the remote identity service consumed by the engine.
//
// Subscribe registers a session-change listener and delivers the current
// session state as its first notification before returning; a nil handle
// means signed out. The backend may invalidate a session out-of-band (token
// expiry) and must notify subscribers when it does. The returned cancel
// function unregisters the listener.
type IdentityBackend interface {
	CreateAccount(ctx context.Context, email, secret, displayName string) (*Profile, error)
	SignIn(ctx context.Context, email, secret string) (*Profile, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*SessionHandle, error)
	Subscribe(fn func(*SessionHandle)) (cancel func())
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error)
	StorePublicKey(ctx context.Context, userID, publicKey string) error
	GetPublicKey(ctx context.Context, userID string) (string, error)
}
