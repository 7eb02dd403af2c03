package bioauth

import (
	"context"
	"log"

	"github.com/veldtbank/bioauth/flags"
)

// Logout clears the persisted was-logged-in flag, signs out of the backend,
// and transitions to unauthenticated. Biometric enrollment artifacts are
// deliberately left in place so the next login still has the fast path;
// removing them is DisableBiometrics' job.
func (e *Engine) Logout(ctx context.Context) error {
	if err := e.beginOperation(); err != nil {
		return err
	}
	defer e.endOperation()

	userID := e.currentUserID()

	if err := e.flags.Clear(ctx, flags.WasLoggedIn); err != nil {
		log.Print("bioauth: clearing was-logged-in flag failed")
	}

	if err := e.backend.SignOut(ctx); err != nil {
		classified := classifyBackendError(err)
		e.setError(classified)
		return classified
	}

	e.mu.Lock()
	e.status = StatusUnauthenticated
	e.user = nil
	e.revealed = false
	e.promptOpen = false
	e.pendingCred = nil
	state := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(state)

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditLogout, userID, true, nil, nil)
	return nil
}
