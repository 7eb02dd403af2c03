package bioauth

import "context"

// RevealSensitiveData opens the transient reveal gate guarding masked
// financial figures. Every reveal requires a fresh sensor challenge with
// passcode fallback per policy; failure leaves the data masked. The gate is
// per-view and deliberately decoupled from authentication status.
func (e *Engine) RevealSensitiveData(ctx context.Context) error {
	e.mu.Lock()
	if !e.initialized || e.closed {
		e.mu.Unlock()
		return ErrEngineNotReady
	}
	e.mu.Unlock()

	result, err := e.sensor.Challenge(ctx, e.config.Biometric.RevealPrompt, e.config.Biometric.AllowDeviceFallback)
	if err != nil {
		e.metricInc(MetricRevealDenied)
		e.emitAudit(ctx, auditRevealDenied, e.currentUserID(), false, ErrSensorUnavailable, nil)
		e.setError(ErrSensorUnavailable)
		return ErrSensorUnavailable
	}
	if !result.OK {
		e.metricInc(MetricRevealDenied)
		e.metricInc(MetricChallengeFailed)
		e.emitAudit(ctx, auditRevealDenied, e.currentUserID(), false, ErrChallengeFailed, nil)
		e.setError(ErrChallengeFailed)
		return ErrChallengeFailed
	}

	e.mu.Lock()
	e.revealed = true
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)

	e.metricInc(MetricRevealGranted)
	e.emitAudit(ctx, auditRevealGranted, e.currentUserID(), true, nil, nil)
	return nil
}

// HideSensitiveData closes the reveal gate. Hiding never requires
// authentication and never prompts.
func (e *Engine) HideSensitiveData() {
	e.mu.Lock()
	e.revealed = false
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)
}
