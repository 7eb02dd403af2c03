// Package enroll manages the local biometric enrollment artifacts: the
// device key material and the cached credential blob, both held in the
// secret store and gated behind sensor challenges.
//
// Key material is a real ed25519 pair. The seed never leaves the secret
// store; only the public half is exported for backend registration, and
// challenge-response signing is available for integrity checks. All
// destructive operations are idempotent so a failed teardown is safe to
// retry.
package enroll

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/veldtbank/bioauth/secret"
	"github.com/veldtbank/bioauth/sensor"
)

var (
	// ErrKeyExists is returned by CreateKey when key material already exists.
	// Existing keys are never silently overwritten; delete first.
	ErrKeyExists = errors.New("enroll: key material already exists")
	// ErrNotEnrolled means no key material exists on this device.
	ErrNotEnrolled = errors.New("enroll: not enrolled")
	// ErrCredentialMissing means key material exists but the cached
	// credential does not — a detectable data-loss inconsistency, distinct
	// from never having enrolled.
	ErrCredentialMissing = errors.New("enroll: cached credential missing")
	// ErrChallengeFailed means the user declined or failed the sensor prompt.
	ErrChallengeFailed = errors.New("enroll: challenge failed")
	// ErrSensorUnavailable means the sensor platform API was unreachable.
	ErrSensorUnavailable = errors.New("enroll: sensor unavailable")
	// ErrStorage wraps secret store failures.
	ErrStorage = errors.New("enroll: storage failure")
)

// Credential is the cached identifier/secret pair replayed for biometric
// login. It exists in plaintext only inside the secret store and in memory.
type Credential struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// Config names the secret store entries and sets challenge policy.
type Config struct {
	KeyEntry            string
	CredentialEntry     string
	AllowDeviceFallback bool
}

// DefaultConfig returns the entry names used by the engine.
func DefaultConfig() Config {
	return Config{
		KeyEntry:            "biometric.key",
		CredentialEntry:     "biometric.credential",
		AllowDeviceFallback: true,
	}
}

// Manager owns the enrollment artifacts. It is the only writer of the key
// and credential entries; the engine never touches the secret store directly.
type Manager struct {
	secrets secret.Store
	sensor  sensor.Sensor
	cfg     Config
}

// NewManager wires a manager over the given store and sensor.
func NewManager(secrets secret.Store, s sensor.Sensor, cfg Config) *Manager {
	if cfg.KeyEntry == "" {
		cfg.KeyEntry = "biometric.key"
	}
	if cfg.CredentialEntry == "" {
		cfg.CredentialEntry = "biometric.credential"
	}
	return &Manager{secrets: secrets, sensor: s, cfg: cfg}
}

// KeyExists reports whether key material is present.
func (m *Manager) KeyExists(ctx context.Context) (bool, error) {
	_, err := m.secrets.Get(ctx, m.cfg.KeyEntry)
	if err != nil {
		if errors.Is(err, secret.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return true, nil
}

// CreateKey generates a fresh ed25519 pair, stores the seed, and returns the
// base64 public half for backend registration. Refuses to overwrite.
func (m *Manager) CreateKey(ctx context.Context) (string, error) {
	exists, err := m.KeyExists(ctx)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrKeyExists
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	seed := base64.RawStdEncoding.EncodeToString(priv.Seed())
	if err := m.secrets.Set(ctx, m.cfg.KeyEntry, seed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return base64.RawStdEncoding.EncodeToString(pub), nil
}

// PublicKey derives the public half from the stored seed.
func (m *Manager) PublicKey(ctx context.Context) (string, error) {
	priv, err := m.privateKey(ctx)
	if err != nil {
		return "", err
	}
	pub := priv.Public().(ed25519.PublicKey)
	return base64.RawStdEncoding.EncodeToString(pub), nil
}

// SignChallenge signs a backend-issued nonce with the device key.
func (m *Manager) SignChallenge(ctx context.Context, nonce []byte) ([]byte, error) {
	priv, err := m.privateKey(ctx)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(priv, nonce), nil
}

// DeleteKey removes key material. Deleting an absent key succeeds.
func (m *Manager) DeleteKey(ctx context.Context) error {
	if err := m.secrets.Delete(ctx, m.cfg.KeyEntry); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// CredentialExists reports whether a cached credential is present without
// triggering a challenge.
func (m *Manager) CredentialExists(ctx context.Context) (bool, error) {
	_, err := m.secrets.Get(ctx, m.cfg.CredentialEntry)
	if err != nil {
		if errors.Is(err, secret.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return true, nil
}

// StoreCredential writes the credential pair after a successful challenge.
func (m *Manager) StoreCredential(ctx context.Context, prompt, identifier, secretValue string) error {
	if err := m.challenge(ctx, prompt); err != nil {
		return err
	}
	return m.writeCredential(ctx, identifier, secretValue)
}

// RetrieveCredential returns the cached pair after a successful challenge.
// Missing artifacts are reported before any prompt is shown: ErrNotEnrolled
// when no key material exists, ErrCredentialMissing when the key exists but
// the credential blob is gone.
func (m *Manager) RetrieveCredential(ctx context.Context, prompt string) (Credential, error) {
	keyExists, err := m.KeyExists(ctx)
	if err != nil {
		return Credential{}, err
	}
	if !keyExists {
		return Credential{}, ErrNotEnrolled
	}

	credExists, err := m.CredentialExists(ctx)
	if err != nil {
		return Credential{}, err
	}
	if !credExists {
		return Credential{}, ErrCredentialMissing
	}

	if err := m.challenge(ctx, prompt); err != nil {
		return Credential{}, err
	}

	raw, err := m.secrets.Get(ctx, m.cfg.CredentialEntry)
	if err != nil {
		if errors.Is(err, secret.ErrNotFound) {
			return Credential{}, ErrCredentialMissing
		}
		return Credential{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return Credential{}, fmt.Errorf("%w: corrupt credential blob", ErrStorage)
	}
	return cred, nil
}

// DeleteCredential removes the cached credential. Idempotent.
func (m *Manager) DeleteCredential(ctx context.Context) error {
	if err := m.secrets.Delete(ctx, m.cfg.CredentialEntry); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Enroll performs the full opt-in as a unit behind one challenge: ensure key
// material exists, then cache the credential. A key created by this call is
// rolled back if the credential write fails, so no partial enrollment is
// left behind. Returns the public key and whether this call created it.
func (m *Manager) Enroll(ctx context.Context, prompt, identifier, secretValue string) (publicKey string, createdKey bool, err error) {
	if err := m.challenge(ctx, prompt); err != nil {
		return "", false, err
	}

	keyExists, err := m.KeyExists(ctx)
	if err != nil {
		return "", false, err
	}

	if keyExists {
		publicKey, err = m.PublicKey(ctx)
		if err != nil {
			return "", false, err
		}
	} else {
		publicKey, err = m.CreateKey(ctx)
		if err != nil {
			return "", false, err
		}
		createdKey = true
	}

	if err := m.writeCredential(ctx, identifier, secretValue); err != nil {
		if createdKey {
			if rollbackErr := m.DeleteKey(ctx); rollbackErr != nil {
				log.Print("bioauth: enrollment key rollback failed")
			}
		}
		return "", false, err
	}

	return publicKey, createdKey, nil
}

func (m *Manager) writeCredential(ctx context.Context, identifier, secretValue string) error {
	blob, err := json.Marshal(Credential{Identifier: identifier, Secret: secretValue})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := m.secrets.Set(ctx, m.cfg.CredentialEntry, string(blob)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func (m *Manager) challenge(ctx context.Context, prompt string) error {
	result, err := m.sensor.Challenge(ctx, prompt, m.cfg.AllowDeviceFallback)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSensorUnavailable, err)
	}
	if !result.OK {
		if result.Reason != "" {
			return fmt.Errorf("%w: %s", ErrChallengeFailed, result.Reason)
		}
		return ErrChallengeFailed
	}
	return nil
}

func (m *Manager) privateKey(ctx context.Context) (ed25519.PrivateKey, error) {
	encoded, err := m.secrets.Get(ctx, m.cfg.KeyEntry)
	if err != nil {
		if errors.Is(err, secret.ErrNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	seed, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: corrupt key material", ErrStorage)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
