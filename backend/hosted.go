package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/veldtbank/bioauth/internal/rate"
	"github.com/veldtbank/bioauth/password"
)

// HostedConfig tunes the reference backend.
type HostedConfig struct {
	RedisPrefix     string
	SessionTTL      time.Duration
	SigningKey      []byte
	MinSecretLength int
	Password        password.Config
	MaxSignInTries  int
	SignInCooldown  time.Duration
}

// DefaultHostedConfig returns the tuning the test suite and examples use.
func DefaultHostedConfig(signingKey []byte) HostedConfig {
	return HostedConfig{
		RedisPrefix:     "ba",
		SessionTTL:      30 * time.Minute,
		SigningKey:      signingKey,
		MinSecretLength: 8,
		Password: password.Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		MaxSignInTries: 5,
		SignInCooldown: 15 * time.Minute,
	}
}

type hostedRecord struct {
	Profile      Profile `json:"profile"`
	PasswordHash string  `json:"password_hash"`
	CreatedAt    int64   `json:"created_at"`
}

// Hosted is a Redis-backed [IdentityBackend]. Accounts and profiles live in
// Redis; the session is held per-instance, mirroring a device-side vendor SDK
// where each app process owns at most one signed-in identity. Session tokens
// are signed JWTs whose expiry drives out-of-band invalidation.
type Hosted struct {
	redis   redis.UniversalClient
	cfg     HostedConfig
	hasher  *password.Argon2
	limiter *rate.Limiter

	mu           sync.Mutex
	session      *SessionHandle
	expiry       *time.Timer
	listeners    map[int]func(*SessionHandle)
	nextListener int
}

// NewHosted validates cfg and returns a hosted backend on the given client.
func NewHosted(client redis.UniversalClient, cfg HostedConfig) (*Hosted, error) {
	if client == nil {
		return nil, errors.New("backend: redis client required")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("backend: signing key required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("backend: session TTL must be positive")
	}
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = "ba"
	}
	if cfg.MinSecretLength <= 0 {
		cfg.MinSecretLength = 8
	}

	hasher, err := password.NewArgon2(cfg.Password)
	if err != nil {
		return nil, err
	}

	return &Hosted{
		redis:  client,
		cfg:    cfg,
		hasher: hasher,
		limiter: rate.New(client, rate.Config{
			MaxAttempts: cfg.MaxSignInTries,
			Cooldown:    cfg.SignInCooldown,
		}),
		listeners: make(map[int]func(*SessionHandle)),
	}, nil
}

func (h *Hosted) userKey(userID string) string {
	return h.cfg.RedisPrefix + ":user:" + userID
}

func (h *Hosted) emailKey(email string) string {
	return h.cfg.RedisPrefix + ":email:" + strings.ToLower(email)
}

// CreateAccount registers a new identity. It does not establish a session;
// signing in is a separate step so callers can interpose onboarding.
func (h *Hosted) CreateAccount(ctx context.Context, email, secret, displayName string) (*Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidCredentials
	}
	if len(secret) < h.cfg.MinSecretLength {
		return nil, ErrWeakSecret
	}

	hash, err := h.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	userID := uuid.NewString()
	claimed, err := h.redis.SetNX(ctx, h.emailKey(email), userID, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !claimed {
		return nil, ErrAlreadyRegistered
	}

	record := hostedRecord{
		Profile: Profile{
			UserID:      userID,
			Email:       email,
			DisplayName: displayName,
		},
		PasswordHash: hash,
		CreatedAt:    time.Now().Unix(),
	}
	if err := h.writeRecord(ctx, &record); err != nil {
		// Roll back the email claim so the identifier is not burned.
		if delErr := h.redis.Del(ctx, h.emailKey(email)).Err(); delErr != nil {
			log.Print("bioauth: email index rollback failed after record write failure")
		}
		return nil, err
	}

	profile := record.Profile
	return &profile, nil
}

// SignIn verifies the credential pair, establishes a session, and notifies
// subscribers. Lookup and verification failures are indistinguishable to the
// caller.
func (h *Hosted) SignIn(ctx context.Context, email, secret string) (*Profile, error) {
	email = strings.TrimSpace(email)
	limiterID := strings.ToLower(email)

	if err := h.limiter.Check(ctx, limiterID); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	userID, err := h.redis.Get(ctx, h.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, h.failSignIn(ctx, limiterID)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	record, err := h.readRecord(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, h.failSignIn(ctx, limiterID)
		}
		return nil, err
	}

	ok, err := h.hasher.Verify(secret, record.PasswordHash)
	if err != nil || !ok {
		return nil, h.failSignIn(ctx, limiterID)
	}

	if err := h.limiter.Reset(ctx, limiterID); err != nil {
		log.Print("bioauth: sign-in limiter reset failed")
	}

	handle, err := h.issueSession(record.Profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	h.installSession(handle)

	profile := record.Profile
	return &profile, nil
}

func (h *Hosted) failSignIn(ctx context.Context, limiterID string) error {
	if err := h.limiter.RecordFailure(ctx, limiterID); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			return ErrRateLimited
		}
		log.Print("bioauth: sign-in failure recording failed")
	}
	return ErrInvalidCredentials
}

// SignOut clears the current session and notifies subscribers. Signing out
// with no session is a no-op.
func (h *Hosted) SignOut(_ context.Context) error {
	h.mu.Lock()
	if h.session == nil {
		h.mu.Unlock()
		return nil
	}
	h.clearSessionLocked()
	listeners := h.snapshotListenersLocked()
	h.mu.Unlock()

	notify(listeners, nil)
	return nil
}

// CurrentSession returns the live session handle, or nil when signed out.
// A handle whose token has expired is invalidated before returning.
func (h *Hosted) CurrentSession(_ context.Context) (*SessionHandle, error) {
	h.mu.Lock()
	if h.session == nil {
		h.mu.Unlock()
		return nil, nil
	}
	if time.Now().After(h.session.ExpiresAt) {
		h.clearSessionLocked()
		listeners := h.snapshotListenersLocked()
		h.mu.Unlock()
		notify(listeners, nil)
		return nil, nil
	}
	handle := *h.session
	h.mu.Unlock()
	return &handle, nil
}

// Subscribe implements [IdentityBackend]. The current session state is
// delivered synchronously before Subscribe returns.
func (h *Hosted) Subscribe(fn func(*SessionHandle)) (cancel func()) {
	h.mu.Lock()
	id := h.nextListener
	h.nextListener++
	h.listeners[id] = fn
	var current *SessionHandle
	if h.session != nil {
		copied := *h.session
		current = &copied
	}
	h.mu.Unlock()

	fn(current)

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// GetProfile implements [IdentityBackend].
func (h *Hosted) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	record, err := h.readRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := record.Profile
	return &profile, nil
}

// UpdateProfile applies the non-nil fields of update and returns the stored
// profile.
func (h *Hosted) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error) {
	record, err := h.readRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		record.Profile.DisplayName = *update.DisplayName
	}
	if update.Phone != nil {
		record.Profile.Phone = *update.Phone
	}
	if update.Address != nil {
		record.Profile.Address = *update.Address
	}

	if err := h.writeRecord(ctx, record); err != nil {
		return nil, err
	}

	profile := record.Profile
	return &profile, nil
}

// StorePublicKey registers the device's biometric public key. An empty key
// clears the registration.
func (h *Hosted) StorePublicKey(ctx context.Context, userID, publicKey string) error {
	record, err := h.readRecord(ctx, userID)
	if err != nil {
		return err
	}
	record.Profile.BiometricPublicKey = publicKey
	return h.writeRecord(ctx, record)
}

// GetPublicKey returns the registered biometric public key, empty when the
// device never enrolled.
func (h *Hosted) GetPublicKey(ctx context.Context, userID string) (string, error) {
	record, err := h.readRecord(ctx, userID)
	if err != nil {
		return "", err
	}
	return record.Profile.BiometricPublicKey, nil
}

// ValidateToken parses and verifies a session token, returning the user id
// it was issued for. Used by hosted deployments to guard API routes.
func (h *Hosted) ValidateToken(_ context.Context, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return h.cfg.SigningKey, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidCredentials
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}

// Close stops the expiry timer. Pending notifications still fire.
func (h *Hosted) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.expiry != nil {
		h.expiry.Stop()
		h.expiry = nil
	}
}

func (h *Hosted) issueSession(userID string) (*SessionHandle, error) {
	now := time.Now()
	expires := now.Add(h.cfg.SessionTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString(h.cfg.SigningKey)
	if err != nil {
		return nil, err
	}

	return &SessionHandle{
		UserID:    userID,
		Token:     signed,
		ExpiresAt: expires,
	}, nil
}

func (h *Hosted) installSession(handle *SessionHandle) {
	h.mu.Lock()
	if h.expiry != nil {
		h.expiry.Stop()
	}
	h.session = handle
	h.expiry = time.AfterFunc(time.Until(handle.ExpiresAt), func() {
		h.expireSession(handle.Token)
	})
	copied := *handle
	listeners := h.snapshotListenersLocked()
	h.mu.Unlock()

	notify(listeners, &copied)
}

// expireSession invalidates the session out-of-band when its token lapses.
func (h *Hosted) expireSession(token string) {
	h.mu.Lock()
	if h.session == nil || h.session.Token != token {
		h.mu.Unlock()
		return
	}
	h.clearSessionLocked()
	listeners := h.snapshotListenersLocked()
	h.mu.Unlock()

	notify(listeners, nil)
}

func (h *Hosted) clearSessionLocked() {
	h.session = nil
	if h.expiry != nil {
		h.expiry.Stop()
		h.expiry = nil
	}
}

func (h *Hosted) snapshotListenersLocked() []func(*SessionHandle) {
	out := make([]func(*SessionHandle), 0, len(h.listeners))
	for _, fn := range h.listeners {
		out = append(out, fn)
	}
	return out
}

// notify runs outside the backend lock: listeners are allowed to call back
// into the backend.
func notify(listeners []func(*SessionHandle), handle *SessionHandle) {
	for _, fn := range listeners {
		fn(handle)
	}
}

func (h *Hosted) readRecord(ctx context.Context, userID string) (*hostedRecord, error) {
	data, err := h.redis.Get(ctx, h.userKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var record hostedRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: corrupt account record", ErrUnavailable)
	}
	return &record, nil
}

func (h *Hosted) writeRecord(ctx context.Context, record *hostedRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := h.redis.Set(ctx, h.userKey(record.Profile.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
