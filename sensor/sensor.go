// Package sensor defines the device biometric sensor contract consumed by the
// authentication engine, plus a scriptable [Simulator] for tests and demos.
//
// A Sensor is a capability provider: it reports hardware presence, OS-level
// enrollment state, and supported modalities, and it executes an OS-mediated
// challenge prompt. The engine never talks to platform APIs directly; it only
// sees this interface.
package sensor

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by sensor implementations when the underlying
// platform API cannot be reached at all.
var ErrUnavailable = errors.New("sensor: hardware unavailable")

// Modality identifies the biometric mechanism a sensor verifies.
type Modality uint8

const (
	// ModalityNone means no biometric mechanism is usable.
	ModalityNone Modality = iota
	// ModalityFace is facial recognition.
	ModalityFace
	// ModalityFingerprint is fingerprint recognition.
	ModalityFingerprint
	// ModalityIris is iris recognition.
	ModalityIris
	// ModalityGeneric is an unspecified biometric mechanism, reported when the
	// platform confirms hardware but will not name the modality.
	ModalityGeneric
)

// String returns the lowercase name of the modality.
func (m Modality) String() string {
	switch m {
	case ModalityFace:
		return "face"
	case ModalityFingerprint:
		return "fingerprint"
	case ModalityIris:
		return "iris"
	case ModalityGeneric:
		return "generic"
	default:
		return "none"
	}
}

// Capability is the derived availability summary the engine caches. It is
// recomputed on demand via [InferCapability], never persisted.
type Capability struct {
	Supported bool
	Modality  Modality
}

// ChallengeResult is the outcome of one OS challenge prompt.
//
// OK is true only when the user passed the biometric (or, when permitted,
// device-passcode) verification. Reason carries the platform failure or
// cancellation cause. ModalityWarning is set when hardware is present but the
// modality is unusable in the current execution context, for example a facial
// sensor that still requires an OS-level enrollment step.
type ChallengeResult struct {
	OK              bool
	Reason          string
	ModalityWarning string
}

// Sensor is the device biometric capability provider.
//
// Challenge blocks on user interaction and must honor ctx cancellation.
// User cancellation is an ordinary failed result, not an error; errors are
// reserved for the platform API itself being unreachable.
type Sensor interface {
	HasHardware(ctx context.Context) (bool, error)
	IsEnrolled(ctx context.Context) (bool, error)
	SupportedModalities(ctx context.Context) ([]Modality, error)
	Challenge(ctx context.Context, prompt string, allowDeviceFallback bool) (ChallengeResult, error)
}
