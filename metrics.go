package bioauth

import (
	"time"

	"github.com/veldtbank/bioauth/internal/metrics"
)

// MetricID identifies a counter or histogram in the engine's metrics system.
type MetricID = metrics.MetricID

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot = metrics.Snapshot

const (
	MetricLoginSuccess            = metrics.MetricLoginSuccess
	MetricLoginFailure            = metrics.MetricLoginFailure
	MetricLoginValidationRejected = metrics.MetricLoginValidationRejected
	MetricBiometricLoginSuccess   = metrics.MetricBiometricLoginSuccess
	MetricBiometricLoginFailure   = metrics.MetricBiometricLoginFailure
	MetricEnrollmentMissing       = metrics.MetricEnrollmentMissing
	MetricCredentialDataLost      = metrics.MetricCredentialDataLost
	MetricChallengeFailed         = metrics.MetricChallengeFailed
	MetricRegisterSuccess         = metrics.MetricRegisterSuccess
	MetricRegisterFailure         = metrics.MetricRegisterFailure
	MetricEnrollmentCreated       = metrics.MetricEnrollmentCreated
	MetricEnrollmentRemoved       = metrics.MetricEnrollmentRemoved
	MetricEnrollmentRolledBack    = metrics.MetricEnrollmentRolledBack
	MetricKeyRegenerated          = metrics.MetricKeyRegenerated
	MetricRevealGranted           = metrics.MetricRevealGranted
	MetricRevealDenied            = metrics.MetricRevealDenied
	MetricLogout                  = metrics.MetricLogout
	MetricSessionNotification     = metrics.MetricSessionNotification
	MetricCapabilityProbeFailed   = metrics.MetricCapabilityProbeFailed
	MetricSignInLatency           = metrics.MetricSignInLatency
)

// Metrics returns a snapshot of all engine metrics. Disabled metrics yield
// empty maps.
func (e *Engine) Metrics() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.SnapshotAll()
}

// MetricValue returns a single counter value.
func (e *Engine) MetricValue(id MetricID) uint64 {
	if e == nil {
		return 0
	}
	return e.metrics.Value(id)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil {
		return
	}
	e.metrics.Observe(id, d)
}
