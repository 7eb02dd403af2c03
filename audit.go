package bioauth

import (
	"context"
	"io"
	"time"

	"github.com/veldtbank/bioauth/internal/audit"
)

// AuditEvent is the structured record emitted for every engine operation
// outcome.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's asynchronous dispatcher.
type AuditSink = audit.Sink

// NewChannelAuditSink returns a sink that buffers events on a channel,
// convenient for tests and log shippers.
func NewChannelAuditSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONAuditSink returns a sink writing one JSON event per line.
func NewJSONAuditSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

const (
	auditLoginSuccess          = "login_success"
	auditLoginFailure          = "login_failure"
	auditBiometricLoginSuccess = "biometric_login_success"
	auditBiometricLoginFailure = "biometric_login_failure"
	auditRegisterSuccess       = "register_success"
	auditRegisterFailure       = "register_failure"
	auditEnrollmentCreated     = "enrollment_created"
	auditEnrollmentFailed      = "enrollment_failed"
	auditEnrollmentRemoved     = "enrollment_removed"
	auditKeyRegenerated        = "key_regenerated"
	auditRevealGranted         = "reveal_granted"
	auditRevealDenied          = "reveal_denied"
	auditProfileUpdated        = "profile_updated"
	auditLogout                = "logout"
)

func (e *Engine) emitAudit(ctx context.Context, eventType, userID string, success bool, opErr error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		DeviceID:  deviceIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	e.audit.Emit(ctx, event)
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}
