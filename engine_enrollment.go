package bioauth

import (
	"context"
	"log"
)

// EnrollBiometrics opts the device into biometric login: one sensor
// challenge, then key material and the cached credential written as a unit.
// A key created by this call is rolled back if the credential write fails,
// so no partial enrollment is left behind. When a user is signed in, the
// public key is registered with the backend; a registration failure rolls
// the whole enrollment back.
func (e *Engine) EnrollBiometrics(ctx context.Context, identifier, secret string) error {
	e.mu.Lock()
	supported := e.capability.Supported
	e.mu.Unlock()
	if !supported {
		e.setError(ErrSensorUnavailable)
		return ErrSensorUnavailable
	}

	if identifier == "" || secret == "" {
		e.setError(ErrValidation)
		return ErrValidation
	}

	if err := e.beginOperation(); err != nil {
		return err
	}
	defer e.endOperation()

	publicKey, createdKey, err := e.enroll.Enroll(ctx, e.config.Biometric.EnrollPrompt, identifier, secret)
	if err != nil {
		classified := classifyEnrollError(err)
		e.emitAudit(ctx, auditEnrollmentFailed, e.currentUserID(), false, classified, nil)
		e.setError(classified)
		return classified
	}

	if userID := e.currentUserID(); userID != "" {
		if err := e.backend.StorePublicKey(ctx, userID, publicKey); err != nil {
			e.rollbackEnrollment(ctx, createdKey)
			classified := classifyBackendError(err)
			e.metricInc(MetricEnrollmentRolledBack)
			e.emitAudit(ctx, auditEnrollmentFailed, userID, false, classified, nil)
			e.setError(classified)
			return classified
		}
	}

	e.mu.Lock()
	e.promptOpen = false
	e.pendingCred = nil
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)

	e.metricInc(MetricEnrollmentCreated)
	e.emitAudit(ctx, auditEnrollmentCreated, e.currentUserID(), true, nil, nil)
	return nil
}

// AcceptEnrollmentPrompt completes the post-login opt-in using the
// credential held in memory since the password login armed the prompt.
func (e *Engine) AcceptEnrollmentPrompt(ctx context.Context) error {
	e.mu.Lock()
	cred := e.pendingCred
	e.mu.Unlock()

	if cred == nil {
		e.setError(ErrEnrollmentMissing)
		return ErrEnrollmentMissing
	}

	return e.EnrollBiometrics(ctx, cred.Identifier, cred.Secret)
}

// DismissEnrollmentPrompt drops the opt-in offer and the in-memory
// credential without touching the secret store.
func (e *Engine) DismissEnrollmentPrompt() {
	e.mu.Lock()
	e.promptOpen = false
	e.pendingCred = nil
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)
}

// DisableBiometrics removes the local key material and cached credential
// behind a fresh sensor challenge. Challenge failure deletes nothing. The
// remote public key registration is cleared best-effort.
func (e *Engine) DisableBiometrics(ctx context.Context) error {
	if err := e.beginOperation(); err != nil {
		return err
	}
	defer e.endOperation()

	result, err := e.sensor.Challenge(ctx, e.config.Biometric.RevokePrompt, e.config.Biometric.AllowDeviceFallback)
	if err != nil {
		e.setError(ErrSensorUnavailable)
		return ErrSensorUnavailable
	}
	if !result.OK {
		e.metricInc(MetricChallengeFailed)
		e.setError(ErrChallengeFailed)
		return ErrChallengeFailed
	}

	if err := e.enroll.DeleteCredential(ctx); err != nil {
		e.setError(ErrStorageFailure)
		return ErrStorageFailure
	}
	if err := e.enroll.DeleteKey(ctx); err != nil {
		e.setError(ErrStorageFailure)
		return ErrStorageFailure
	}

	if userID := e.currentUserID(); userID != "" {
		if err := e.backend.StorePublicKey(ctx, userID, ""); err != nil {
			log.Print("bioauth: clearing remote public key failed")
		}
	}

	e.metricInc(MetricEnrollmentRemoved)
	e.emitAudit(ctx, auditEnrollmentRemoved, e.currentUserID(), true, nil, nil)
	return nil
}

func (e *Engine) rollbackEnrollment(ctx context.Context, createdKey bool) {
	if err := e.enroll.DeleteCredential(ctx); err != nil {
		log.Print("bioauth: enrollment rollback credential delete failed")
	}
	if createdKey {
		if err := e.enroll.DeleteKey(ctx); err != nil {
			log.Print("bioauth: enrollment rollback key delete failed")
		}
	}
}
