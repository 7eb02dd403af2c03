package bioauth

import (
	"github.com/veldtbank/bioauth/backend"
	"github.com/veldtbank/bioauth/enroll"
	"github.com/veldtbank/bioauth/sensor"
)

// AuthStatus is the engine's authentication state. Exactly one value holds
// at any instant; UI gating reads this value and never infers it from side
// channels.
type AuthStatus uint8

const (
	// StatusIdle holds from construction until the first backend session
	// notification arrives. The UI shows a neutral loading state and must not
	// redirect.
	StatusIdle AuthStatus = iota
	// StatusAuthenticating holds while a login operation is in flight.
	StatusAuthenticating
	// StatusAuthenticated means a remote session exists and the profile is
	// mirrored into State.User.
	StatusAuthenticated
	// StatusUnauthenticated means no remote session exists.
	StatusUnauthenticated
	// StatusError is the safe terminal for failures that escape the closed
	// taxonomy mid-operation.
	StatusError
)

func (s AuthStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Profile mirrors the remote account record.
type Profile = backend.Profile

// ProfileUpdate carries partial profile fields for UpdateProfile.
type ProfileUpdate = backend.ProfileUpdate

// BiometricCapability is the cached result of probing the device sensor.
type BiometricCapability = sensor.Capability

// CachedCredential is the identifier/secret pair held for the biometric
// fast path.
type CachedCredential = enroll.Credential

// State is a point-in-time snapshot of the engine, safe to retain after the
// engine moves on. User is a copy, never aliased to engine internals.
type State struct {
	Status       AuthStatus
	User         *Profile
	ErrorMessage string
	Loading      bool
	Biometric    BiometricCapability

	// EnrollmentPromptPending is set after a password login when the device
	// supports biometrics but has no key material, inviting opt-in.
	EnrollmentPromptPending bool

	// SensitiveDataRevealed is the transient per-view reveal gate. It is not
	// a session property and resets on logout.
	SensitiveDataRevealed bool
}
