package bioauth

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	valid := defaultConfig()
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected default config valid, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative auto-clear", func(c *Config) { c.Engine.ErrorAutoClear = -time.Second }},
		{"negative fetch timeout", func(c *Config) { c.Engine.ProfileFetchTimeout = -time.Second }},
		{"empty key entry", func(c *Config) { c.Biometric.KeyEntry = "" }},
		{"empty credential entry", func(c *Config) { c.Biometric.CredentialEntry = "" }},
		{"colliding entries", func(c *Config) { c.Biometric.CredentialEntry = c.Biometric.KeyEntry }},
		{"audit without buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestUserMessageCoversTaxonomy(t *testing.T) {
	for _, err := range []error{
		ErrValidation,
		ErrAlreadyRegistered,
		ErrInvalidCredentials,
		ErrWeakSecret,
		ErrRateLimited,
		ErrBackendUnavailable,
		ErrSensorUnavailable,
		ErrSensorNotConfigured,
		ErrChallengeFailed,
		ErrEnrollmentMissing,
		ErrCredentialDataLost,
		ErrStorageFailure,
		ErrUnexpected,
	} {
		if msg := userMessage(err); msg == "" {
			t.Fatalf("expected a message for %v", err)
		}
	}
	if msg := userMessage(nil); msg != "" {
		t.Fatalf("expected empty message for nil, got %q", msg)
	}
}
