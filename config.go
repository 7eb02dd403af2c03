package bioauth

import (
	"errors"
	"time"
)

// Config is the full engine configuration. Configure before Build and treat
// as immutable afterwards.
type Config struct {
	Engine    EngineConfig
	Biometric BiometricConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// EngineConfig tunes state machine behavior.
type EngineConfig struct {
	// ErrorAutoClear is how long a user-facing error message stays on the
	// state before clearing itself. Zero disables auto-clear; the message
	// then clears on the next operation.
	ErrorAutoClear time.Duration

	// ProfileFetchTimeout bounds the profile read triggered by a backend
	// session notification.
	ProfileFetchTimeout time.Duration
}

// BiometricConfig tunes the biometric fast path.
type BiometricConfig struct {
	// AllowDeviceFallback lets challenges fall back to the device passcode.
	AllowDeviceFallback bool

	// OptimisticInference enables the best-effort capability guess: when the
	// sensor confirms hardware but modality probing fails, capability is
	// reported as supported with the Generic modality. Documented as
	// unreliable; off unless a platform is known to under-report.
	OptimisticInference bool

	// KeyEntry and CredentialEntry name the secret store entries holding key
	// material and the cached credential.
	KeyEntry        string
	CredentialEntry string

	// Prompt texts shown by the OS challenge sheet.
	LoginPrompt  string
	EnrollPrompt string
	RevokePrompt string
	RevealPrompt string
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			ErrorAutoClear:      5 * time.Second,
			ProfileFetchTimeout: 10 * time.Second,
		},
		Biometric: BiometricConfig{
			AllowDeviceFallback: true,
			KeyEntry:            "biometric.key",
			CredentialEntry:     "biometric.credential",
			LoginPrompt:         "Sign in to your account",
			EnrollPrompt:        "Secure your credentials",
			RevokePrompt:        "Confirm to turn off biometric login",
			RevealPrompt:        "Confirm to reveal account details",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Engine.ErrorAutoClear < 0 {
		return errors.New("Engine.ErrorAutoClear must not be negative")
	}
	if c.Engine.ProfileFetchTimeout < 0 {
		return errors.New("Engine.ProfileFetchTimeout must not be negative")
	}
	if c.Biometric.KeyEntry == "" {
		return errors.New("Biometric.KeyEntry must not be empty")
	}
	if c.Biometric.CredentialEntry == "" {
		return errors.New("Biometric.CredentialEntry must not be empty")
	}
	if c.Biometric.KeyEntry == c.Biometric.CredentialEntry {
		return errors.New("Biometric.KeyEntry and CredentialEntry must differ")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}
	return nil
}

// cloneConfig copies cfg. Config holds no reference types today; the clone
// point exists so Builder and Engine never share a caller's struct.
func cloneConfig(cfg Config) Config {
	return cfg
}
