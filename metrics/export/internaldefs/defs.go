package internaldefs

import (
	bioauth "github.com/veldtbank/bioauth"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   bioauth.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   bioauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: bioauth.MetricLoginSuccess, Name: "bioauth_login_success_total", Help: "Successful password logins."},
	{ID: bioauth.MetricLoginFailure, Name: "bioauth_login_failure_total", Help: "Failed password logins."},
	{ID: bioauth.MetricLoginValidationRejected, Name: "bioauth_login_validation_rejected_total", Help: "Login attempts rejected locally before any backend call."},
	{ID: bioauth.MetricBiometricLoginSuccess, Name: "bioauth_biometric_login_success_total", Help: "Successful biometric fast-path logins."},
	{ID: bioauth.MetricBiometricLoginFailure, Name: "bioauth_biometric_login_failure_total", Help: "Failed biometric fast-path logins."},
	{ID: bioauth.MetricEnrollmentMissing, Name: "bioauth_enrollment_missing_total", Help: "Biometric logins attempted without key material."},
	{ID: bioauth.MetricCredentialDataLost, Name: "bioauth_credential_data_lost_total", Help: "Detected key-without-credential inconsistencies."},
	{ID: bioauth.MetricChallengeFailed, Name: "bioauth_challenge_failed_total", Help: "Declined or failed sensor challenges."},
	{ID: bioauth.MetricRegisterSuccess, Name: "bioauth_register_success_total", Help: "Successful account registrations."},
	{ID: bioauth.MetricRegisterFailure, Name: "bioauth_register_failure_total", Help: "Failed account registrations."},
	{ID: bioauth.MetricEnrollmentCreated, Name: "bioauth_enrollment_created_total", Help: "Completed biometric enrollments."},
	{ID: bioauth.MetricEnrollmentRemoved, Name: "bioauth_enrollment_removed_total", Help: "Biometric enrollments removed by the user."},
	{ID: bioauth.MetricEnrollmentRolledBack, Name: "bioauth_enrollment_rolled_back_total", Help: "Enrollments rolled back after a partial failure."},
	{ID: bioauth.MetricKeyRegenerated, Name: "bioauth_key_regenerated_total", Help: "Key material regenerations after a backend mismatch."},
	{ID: bioauth.MetricRevealGranted, Name: "bioauth_reveal_granted_total", Help: "Granted sensitive-data reveals."},
	{ID: bioauth.MetricRevealDenied, Name: "bioauth_reveal_denied_total", Help: "Denied sensitive-data reveals."},
	{ID: bioauth.MetricLogout, Name: "bioauth_logout_total", Help: "Logout operations."},
	{ID: bioauth.MetricSessionNotification, Name: "bioauth_session_notification_total", Help: "Backend session-change notifications observed."},
	{ID: bioauth.MetricCapabilityProbeFailed, Name: "bioauth_capability_probe_failed_total", Help: "Capability probes that degraded to unsupported."},
}

// HistogramDefs lists every engine histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: bioauth.MetricSignInLatency, Name: "bioauth_signin_latency_seconds", Help: "Password sign-in latency histogram."},
}

// HistogramBounds are the cumulative bucket upper bounds in seconds, as
// rendered in Prometheus label form.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in OTel
// instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets widens a raw bucket slice into the fixed bucket array,
// tolerating short or missing snapshots.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form both
// exporters emit.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
