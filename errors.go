package bioauth

import "errors"

var (
	// ErrValidation rejects empty or malformed input before any I/O occurs.
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyRegistered means the identifier is already taken.
	ErrAlreadyRegistered = errors.New("account already registered")
	// ErrInvalidCredentials means the identifier or secret did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrWeakSecret means the secret failed the backend's strength policy.
	ErrWeakSecret = errors.New("secret too weak")
	// ErrRateLimited means the backend refused the attempt budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrBackendUnavailable wraps unclassified identity backend failures.
	ErrBackendUnavailable = errors.New("identity backend unavailable")
	// ErrSensorUnavailable means no usable biometric hardware is present or
	// the platform sensor API was unreachable.
	ErrSensorUnavailable = errors.New("biometric sensor unavailable")
	// ErrSensorNotConfigured means hardware is present but unusable in the
	// current context, such as a face sensor lacking an OS permission.
	ErrSensorNotConfigured = errors.New("biometric sensor not configured")
	// ErrChallengeFailed means the user declined or failed the biometric or
	// passcode prompt.
	ErrChallengeFailed = errors.New("biometric challenge failed")
	// ErrEnrollmentMissing means biometric login was attempted with no stored
	// key material on this device.
	ErrEnrollmentMissing = errors.New("biometric enrollment missing")
	// ErrCredentialDataLost means key material exists but the cached
	// credential does not, a detectable inconsistency distinct from never
	// having enrolled.
	ErrCredentialDataLost = errors.New("cached credential lost")
	// ErrStorageFailure wraps secret store read/write errors.
	ErrStorageFailure = errors.New("secure storage failure")
	// ErrEngineNotReady means the engine was used before Initialize or after
	// Close.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUnexpected is the boundary mapping for failures outside the closed
	// taxonomy; status is left in a safe state when it is returned.
	ErrUnexpected = errors.New("unexpected error")
)

// userMessage translates a classified error into the short inline string the
// UI displays. Messages are deliberately terse and free of vendor detail.
func userMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "Please fill in all fields."
	case errors.Is(err, ErrAlreadyRegistered):
		return "An account with this email already exists."
	case errors.Is(err, ErrInvalidCredentials):
		return "Incorrect email or password."
	case errors.Is(err, ErrWeakSecret):
		return "Please choose a stronger password."
	case errors.Is(err, ErrRateLimited):
		return "Too many attempts. Try again later."
	case errors.Is(err, ErrBackendUnavailable):
		return "Service unavailable. Check your connection."
	case errors.Is(err, ErrSensorUnavailable):
		return "Biometric login is not available on this device."
	case errors.Is(err, ErrSensorNotConfigured):
		return "Biometric login needs to be set up in device settings."
	case errors.Is(err, ErrChallengeFailed):
		return "Biometric verification was not completed."
	case errors.Is(err, ErrEnrollmentMissing):
		return "Biometric login is not set up. Sign in with your password first."
	case errors.Is(err, ErrCredentialDataLost):
		return "Saved login data was lost. Sign in with your password to re-enable biometrics."
	case errors.Is(err, ErrStorageFailure):
		return "Secure storage failed. Try again."
	default:
		return "Something went wrong. Try again."
	}
}
