package bioauth

import (
	"context"
	"strings"
)

// Register creates a remote account. All three fields must be non-empty;
// validation failures are resolved locally with no backend call.
//
// Success sets the mirrored user but deliberately leaves status at its
// pre-call value: account creation and entering the authenticated app are
// separate steps, so the UI can interpose onboarding screens between them.
func (e *Engine) Register(ctx context.Context, identifier, secret, displayName string) error {
	if strings.TrimSpace(identifier) == "" || secret == "" || strings.TrimSpace(displayName) == "" {
		e.metricInc(MetricRegisterFailure)
		e.setError(ErrValidation)
		return ErrValidation
	}

	if err := e.beginOperation(); err != nil {
		return err
	}
	defer e.endOperation()

	profile, err := e.backend.CreateAccount(ctx, identifier, secret, displayName)
	if err != nil {
		classified := classifyBackendError(err)
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditRegisterFailure, "", false, classified, nil)
		e.setError(classified)
		return classified
	}

	e.mu.Lock()
	copied := *profile
	e.user = &copied
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditRegisterSuccess, profile.UserID, true, nil, nil)
	return nil
}

// UpdateProfile applies a partial profile update for the signed-in user and
// refreshes the mirrored copy.
func (e *Engine) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	userID := e.currentUserID()
	if userID == "" {
		return nil, ErrEngineNotReady
	}

	if err := e.beginOperation(); err != nil {
		return nil, err
	}
	defer e.endOperation()

	profile, err := e.backend.UpdateProfile(ctx, userID, update)
	if err != nil {
		classified := classifyBackendError(err)
		e.setError(classified)
		return nil, classified
	}

	e.mu.Lock()
	copied := *profile
	e.user = &copied
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)

	e.emitAudit(ctx, auditProfileUpdated, userID, true, nil, nil)

	result := *profile
	return &result, nil
}
