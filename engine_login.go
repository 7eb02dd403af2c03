package bioauth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/veldtbank/bioauth/backend"
	"github.com/veldtbank/bioauth/enroll"
	"github.com/veldtbank/bioauth/flags"
)

// LoginWithCredentials performs a password sign-in.
//
// Invalid input fails locally: no backend call is made and status is left
// untouched. On backend failure the status becomes unauthenticated with a
// classified user-facing message. On success the status becomes
// authenticated, the was-logged-in flag is persisted, and — when the device
// supports biometrics but holds no key material — the enrollment prompt is
// armed with the credential held in memory for opt-in.
func (e *Engine) LoginWithCredentials(ctx context.Context, identifier, secret string) error {
	if strings.TrimSpace(identifier) == "" || secret == "" {
		e.metricInc(MetricLoginValidationRejected)
		e.setError(ErrValidation)
		return ErrValidation
	}

	if err := e.beginOperation(); err != nil {
		return err
	}
	defer e.endOperation()

	e.setStatus(StatusAuthenticating)
	start := time.Now()

	profile, err := e.backend.SignIn(ctx, identifier, secret)
	if err != nil {
		classified := classifyBackendError(err)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditLoginFailure, "", false, classified, nil)
		e.fail(StatusUnauthenticated, classified)
		return classified
	}

	e.metricObserve(MetricSignInLatency, time.Since(start))

	if err := e.flags.Set(ctx, flags.WasLoggedIn); err != nil {
		log.Print("bioauth: persisting was-logged-in flag failed")
	}

	e.checkKeyIntegrity(ctx, profile.UserID)

	promptArmed := e.maybeArmEnrollmentPrompt(ctx, identifier, secret)

	e.mu.Lock()
	e.status = StatusAuthenticated
	copied := *profile
	e.user = &copied
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditLoginSuccess, profile.UserID, true, nil, map[string]string{
		"enrollment_prompt": boolString(promptArmed),
	})

	return nil
}

// LoginWithBiometrics replays the cached credential behind a sensor
// challenge. Both enrollment artifacts are checked before the sensor is
// invoked: a missing key fails with ErrEnrollmentMissing, a key without its
// credential with ErrCredentialDataLost. The final status and user are
// attributed to the inner password login.
func (e *Engine) LoginWithBiometrics(ctx context.Context) error {
	keyExists, err := e.enroll.KeyExists(ctx)
	if err != nil {
		e.setError(ErrStorageFailure)
		return ErrStorageFailure
	}
	if !keyExists {
		e.metricInc(MetricEnrollmentMissing)
		e.setError(ErrEnrollmentMissing)
		return ErrEnrollmentMissing
	}

	credExists, err := e.enroll.CredentialExists(ctx)
	if err != nil {
		e.setError(ErrStorageFailure)
		return ErrStorageFailure
	}
	if !credExists {
		e.metricInc(MetricCredentialDataLost)
		e.setError(ErrCredentialDataLost)
		return ErrCredentialDataLost
	}

	if err := e.beginOperation(); err != nil {
		return err
	}

	e.setStatus(StatusAuthenticating)

	result, err := e.sensor.Challenge(ctx, e.config.Biometric.LoginPrompt, e.config.Biometric.AllowDeviceFallback)
	if err != nil {
		e.endOperation()
		e.metricInc(MetricBiometricLoginFailure)
		e.emitAudit(ctx, auditBiometricLoginFailure, "", false, ErrSensorUnavailable, nil)
		e.fail(StatusUnauthenticated, ErrSensorUnavailable)
		return ErrSensorUnavailable
	}
	if result.ModalityWarning != "" {
		e.endOperation()
		e.metricInc(MetricBiometricLoginFailure)
		e.emitAudit(ctx, auditBiometricLoginFailure, "", false, ErrSensorNotConfigured, map[string]string{
			"warning": result.ModalityWarning,
		})
		e.fail(StatusUnauthenticated, ErrSensorNotConfigured)
		return ErrSensorNotConfigured
	}
	if !result.OK {
		e.endOperation()
		e.metricInc(MetricChallengeFailed)
		e.metricInc(MetricBiometricLoginFailure)
		e.emitAudit(ctx, auditBiometricLoginFailure, "", false, ErrChallengeFailed, map[string]string{
			"reason": result.Reason,
		})
		e.fail(StatusUnauthenticated, ErrChallengeFailed)
		return ErrChallengeFailed
	}

	// The store read is itself challenge-gated, so the user may be prompted
	// a second time. Accepted redundancy: the read gate belongs to the
	// credential, not to this operation.
	cred, err := e.enroll.RetrieveCredential(ctx, e.config.Biometric.LoginPrompt)
	if err != nil {
		classified := classifyEnrollError(err)
		e.endOperation()
		e.metricInc(MetricBiometricLoginFailure)
		e.emitAudit(ctx, auditBiometricLoginFailure, "", false, classified, nil)
		e.fail(StatusUnauthenticated, classified)
		return classified
	}

	e.endOperation()

	if err := e.LoginWithCredentials(ctx, cred.Identifier, cred.Secret); err != nil {
		e.metricInc(MetricBiometricLoginFailure)
		return err
	}

	e.metricInc(MetricBiometricLoginSuccess)
	e.emitAudit(ctx, auditBiometricLoginSuccess, e.currentUserID(), true, nil, nil)
	return nil
}

// checkKeyIntegrity regenerates local key material when the backend holds no
// matching public key: the device believes it is enrolled but the server
// cannot verify it. The cached credential is preserved so the fast path
// keeps working after regeneration.
func (e *Engine) checkKeyIntegrity(ctx context.Context, userID string) {
	keyExists, err := e.enroll.KeyExists(ctx)
	if err != nil || !keyExists {
		return
	}

	localKey, err := e.enroll.PublicKey(ctx)
	if err != nil {
		return
	}

	remoteKey, err := e.backend.GetPublicKey(ctx, userID)
	if err != nil {
		return
	}
	if remoteKey == localKey {
		return
	}

	if err := e.enroll.DeleteKey(ctx); err != nil {
		log.Print("bioauth: key regeneration delete failed")
		return
	}
	freshKey, err := e.enroll.CreateKey(ctx)
	if err != nil {
		log.Print("bioauth: key regeneration create failed")
		return
	}
	if err := e.backend.StorePublicKey(ctx, userID, freshKey); err != nil {
		log.Print("bioauth: key regeneration registration failed")
		return
	}

	e.metricInc(MetricKeyRegenerated)
	e.emitAudit(ctx, auditKeyRegenerated, userID, true, nil, nil)
}

// maybeArmEnrollmentPrompt flags the opt-in offer after a password login.
// The credential is held in memory only; nothing touches the secret store
// until the user accepts.
func (e *Engine) maybeArmEnrollmentPrompt(ctx context.Context, identifier, secret string) bool {
	e.mu.Lock()
	supported := e.capability.Supported
	e.mu.Unlock()
	if !supported {
		return false
	}

	keyExists, err := e.enroll.KeyExists(ctx)
	if err != nil || keyExists {
		return false
	}

	e.mu.Lock()
	e.promptOpen = true
	e.pendingCred = &CachedCredential{Identifier: identifier, Secret: secret}
	e.mu.Unlock()
	return true
}

func (e *Engine) currentUserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.user == nil {
		return ""
	}
	return e.user.UserID
}

func classifyBackendError(err error) error {
	switch {
	case errors.Is(err, backend.ErrAlreadyRegistered):
		return ErrAlreadyRegistered
	case errors.Is(err, backend.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, backend.ErrWeakSecret):
		return ErrWeakSecret
	case errors.Is(err, backend.ErrRateLimited):
		return ErrRateLimited
	case errors.Is(err, backend.ErrProfileNotFound):
		return ErrInvalidCredentials
	case errors.Is(err, backend.ErrUnavailable):
		return ErrBackendUnavailable
	default:
		return ErrUnexpected
	}
}

func classifyEnrollError(err error) error {
	switch {
	case errors.Is(err, enroll.ErrNotEnrolled):
		return ErrEnrollmentMissing
	case errors.Is(err, enroll.ErrCredentialMissing):
		return ErrCredentialDataLost
	case errors.Is(err, enroll.ErrChallengeFailed):
		return ErrChallengeFailed
	case errors.Is(err, enroll.ErrSensorUnavailable):
		return ErrSensorUnavailable
	case errors.Is(err, enroll.ErrStorage):
		return ErrStorageFailure
	default:
		return ErrUnexpected
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
