package bioauth

import (
	"context"
	"errors"
	"testing"

	"github.com/veldtbank/bioauth/flags"
	"github.com/veldtbank/bioauth/sensor"
)

func TestLoginValidationFailsLocally(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, tc := range []struct {
		name       string
		identifier string
		secret     string
	}{
		{"empty identifier", "", "pw123456"},
		{"blank identifier", "   ", "pw123456"},
		{"empty secret", "ana@example.com", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := env.engine.LoginWithCredentials(ctx, tc.identifier, tc.secret)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	// Validation failures never leave the current status.
	state := env.engine.State()
	if state.Status != StatusUnauthenticated {
		t.Fatalf("expected status untouched, got %v", state.Status)
	}
	if got := env.engine.MetricValue(MetricLoginValidationRejected); got != 3 {
		t.Fatalf("expected 3 validation rejections, got %d", got)
	}
	if got := env.engine.MetricValue(MetricLoginFailure); got != 0 {
		t.Fatalf("expected no backend failures, got %d", got)
	}
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "ana@example.com", "pw123456")
	env.login(t, "ana@example.com", "pw123456")

	state := env.engine.State()
	if state.Status != StatusAuthenticated {
		t.Fatalf("expected authenticated, got %v", state.Status)
	}
	if state.User == nil || state.User.Email != "ana@example.com" {
		t.Fatalf("expected mirrored profile, got %+v", state.User)
	}
	if state.Loading {
		t.Fatal("expected loading cleared")
	}

	// The device now remembers the login.
	wasLoggedIn, err := env.flags.IsSet(ctx, flags.WasLoggedIn)
	if err != nil || !wasLoggedIn {
		t.Fatalf("expected was-logged-in flag, got set=%v err=%v", wasLoggedIn, err)
	}

	// Supported sensor, no key material: the opt-in prompt is armed.
	if !state.EnrollmentPromptPending {
		t.Fatal("expected enrollment prompt armed")
	}

	if got := env.engine.MetricValue(MetricLoginSuccess); got != 1 {
		t.Fatalf("expected 1 login success, got %d", got)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "ana@example.com", "pw123456")

	err := env.engine.LoginWithCredentials(ctx, "ana@example.com", "wrongpass")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	state := env.engine.State()
	if state.Status != StatusUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", state.Status)
	}
	if state.ErrorMessage != "Incorrect email or password." {
		t.Fatalf("unexpected message %q", state.ErrorMessage)
	}
	if got := env.engine.MetricValue(MetricLoginFailure); got != 1 {
		t.Fatalf("expected 1 login failure, got %d", got)
	}
}

func TestLoginPromptNotArmedWithoutCapability(t *testing.T) {
	env := newTestEnv(t)

	env.sim.SetHardware(false)
	env.engine.RefreshCapability(context.Background())

	env.register(t, "ana@example.com", "pw123456")
	env.login(t, "ana@example.com", "pw123456")

	if env.engine.State().EnrollmentPromptPending {
		t.Fatal("expected no prompt without a usable sensor")
	}
}

func TestBiometricLoginWithoutEnrollment(t *testing.T) {
	env := newTestEnv(t)

	err := env.engine.LoginWithBiometrics(context.Background())
	if !errors.Is(err, ErrEnrollmentMissing) {
		t.Fatalf("expected ErrEnrollmentMissing, got %v", err)
	}

	// The artifact check precedes the sensor.
	if got := env.sim.ChallengeCalls(); got != 0 {
		t.Fatalf("expected no challenge, got %d", got)
	}
	if got := env.engine.MetricValue(MetricEnrollmentMissing); got != 1 {
		t.Fatalf("expected 1 enrollment-missing, got %d", got)
	}
	if env.engine.State().Status != StatusUnauthenticated {
		t.Fatalf("expected status untouched, got %v", env.engine.State().Status)
	}
}

func TestBiometricLoginKeyWithoutCredential(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.engine.enroll.CreateKey(ctx); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	err := env.engine.LoginWithBiometrics(ctx)
	if !errors.Is(err, ErrCredentialDataLost) {
		t.Fatalf("expected ErrCredentialDataLost, got %v", err)
	}
	if got := env.sim.ChallengeCalls(); got != 0 {
		t.Fatalf("expected no challenge, got %d", got)
	}
	if got := env.engine.MetricValue(MetricCredentialDataLost); got != 1 {
		t.Fatalf("expected 1 data-lost, got %d", got)
	}
}

func TestBiometricLoginRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "ana@example.com", "pw123456")
	env.login(t, "ana@example.com", "pw123456")
	env.enrollViaPrompt(t)

	if err := env.engine.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if err := env.engine.LoginWithBiometrics(ctx); err != nil {
		t.Fatalf("LoginWithBiometrics failed: %v", err)
	}

	state := env.engine.State()
	if state.Status != StatusAuthenticated {
		t.Fatalf("expected authenticated, got %v", state.Status)
	}
	if state.User == nil || state.User.Email != "ana@example.com" {
		t.Fatalf("expected mirrored profile, got %+v", state.User)
	}
	if got := env.engine.MetricValue(MetricBiometricLoginSuccess); got != 1 {
		t.Fatalf("expected 1 biometric success, got %d", got)
	}
	// Key material already present: the prompt must not re-arm.
	if state.EnrollmentPromptPending {
		t.Fatal("expected no enrollment prompt after biometric login")
	}
}

func TestBiometricLoginChallengeDeclined(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "ana@example.com", "pw123456")
	env.login(t, "ana@example.com", "pw123456")
	env.enrollViaPrompt(t)
	if err := env.engine.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	env.sim.QueueChallenge(sensor.ChallengeResult{Reason: "user cancelled"})

	err := env.engine.LoginWithBiometrics(ctx)
	if !errors.Is(err, ErrChallengeFailed) {
		t.Fatalf("expected ErrChallengeFailed, got %v", err)
	}

	state := env.engine.State()
	if state.Status != StatusUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", state.Status)
	}
	if got := env.engine.MetricValue(MetricBiometricLoginFailure); got != 1 {
		t.Fatalf("expected 1 biometric failure, got %d", got)
	}
	// Declining the prompt does not destroy the enrollment.
	keyExists, err := env.engine.enroll.KeyExists(ctx)
	if err != nil || !keyExists {
		t.Fatalf("expected key material to survive, got exists=%v err=%v", keyExists, err)
	}
}

func TestBiometricLoginModalityWarning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "ana@example.com", "pw123456")
	env.login(t, "ana@example.com", "pw123456")
	env.enrollViaPrompt(t)
	if err := env.engine.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	env.sim.QueueChallenge(sensor.ChallengeResult{ModalityWarning: "face enrollment incomplete"})

	err := env.engine.LoginWithBiometrics(ctx)
	if !errors.Is(err, ErrSensorNotConfigured) {
		t.Fatalf("expected ErrSensorNotConfigured, got %v", err)
	}
}

func TestKeyRegenerationOnMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.register(t, "ana@example.com", "pw123456")
	env.login(t, "ana@example.com", "pw123456")
	env.enrollViaPrompt(t)
	if err := env.engine.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	// Server-side registration goes stale, for example after a restore onto
	// different hardware.
	if err := env.backend.StorePublicKey(ctx, created.UserID, "stale-key"); err != nil {
		t.Fatalf("StorePublicKey failed: %v", err)
	}

	env.login(t, "ana@example.com", "pw123456")

	if got := env.engine.MetricValue(MetricKeyRegenerated); got != 1 {
		t.Fatalf("expected 1 regeneration, got %d", got)
	}

	localKey, err := env.engine.enroll.PublicKey(ctx)
	if err != nil {
		t.Fatalf("PublicKey failed: %v", err)
	}
	remoteKey, err := env.backend.GetPublicKey(ctx, created.UserID)
	if err != nil {
		t.Fatalf("GetPublicKey failed: %v", err)
	}
	if localKey != remoteKey || remoteKey == "stale-key" {
		t.Fatalf("expected fresh matching keys, local=%q remote=%q", localKey, remoteKey)
	}

	// The cached credential survives regeneration; the fast path still works.
	credExists, err := env.engine.enroll.CredentialExists(ctx)
	if err != nil || !credExists {
		t.Fatalf("expected cached credential preserved, got exists=%v err=%v", credExists, err)
	}
}

func TestKeyMatchSkipsRegeneration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "ana@example.com", "pw123456")
	env.login(t, "ana@example.com", "pw123456")
	env.enrollViaPrompt(t)
	if err := env.engine.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	env.login(t, "ana@example.com", "pw123456")

	if got := env.engine.MetricValue(MetricKeyRegenerated); got != 0 {
		t.Fatalf("expected no regeneration for matching keys, got %d", got)
	}
}
